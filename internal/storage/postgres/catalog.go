package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bazarshop/bazar-api/internal/domain/product"
)

// Catalog reads the self-hosted product catalog from the products table.
type Catalog struct {
	pool *pgxpool.Pool
}

// NewCatalog returns a Catalog backed by the given pool.
func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// List returns all products ordered by id.
func (c *Catalog) List(ctx context.Context) ([]product.Product, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, name, brand, category, image, price FROM products ORDER BY id`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.Category, &p.Image, &p.Price); err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate products")
	}
	return out, nil
}

// Upsert inserts or replaces a product row. Used by the seed tool.
func (c *Catalog) Upsert(ctx context.Context, p product.Product) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO products (id, name, brand, category, image, price)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, brand = EXCLUDED.brand,
		   category = EXCLUDED.category, image = EXCLUDED.image,
		   price = EXCLUDED.price`,
		p.ID, p.Name, p.Brand, p.Category, p.Image, p.Price,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert product %q", p.ID)
	}
	return nil
}
