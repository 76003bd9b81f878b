// Command offer-ingest loads partner offer eligibility feeds into the
// database. Feeds are large gzip-compressed line files; a product/offer pair
// is only trusted when at least two independent feeds agree on it, so the
// tool streams each feed twice: pass 1 builds one bloom filter per feed,
// pass 2 collects rows whose key appears in another feed's filter.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bazarshop/bazar-api/internal/storage/postgres"
)

const (
	bloomCapacity = 50_000_000
	bloomFPR      = 0.001
	numFeeds      = 3
	progressEvery = 5_000_000
)

// feedRow is one parsed feed line: product_id|offer_id|partner|discount_pct.
type feedRow struct {
	productID   string
	offerID     string
	partner     string
	discountPct decimal.Decimal
}

// key identifies a row across feeds for cross-confirmation.
func (r feedRow) key() string {
	return r.productID + "|" + r.offerID
}

// fileResult holds candidate rows found in a single feed during pass 2.
type fileResult struct {
	rows  map[string]feedRow
	masks map[string]uint
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing offerfeedN.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("offer ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("offer ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files := make([]string, numFeeds)
	for i := range numFeeds {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("offerfeed%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: build bloom filters concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("feeds", numFeeds))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: find rows confirmed by 2+ feeds.
	slog.Info("pass 2: finding confirmed rows")

	confirmed, err := findConfirmedRows(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find confirmed rows")
	}

	slog.Info("confirmed rows found", slog.Int("count", len(confirmed)))

	if len(confirmed) == 0 {
		slog.Info("no rows to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := writeRows(ctx, postgres.NewOfferStore(pool), confirmed); err != nil {
		return errors.Wrap(err, "write eligibility rows")
	}

	return nil
}

// buildBloomFilters creates one bloom filter per feed, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(line string) {
			row, ok := parseRow(line)
			if !ok {
				return
			}
			filter.AddString(row.key())
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress",
					slog.Int("feed", idx+1),
					slog.Uint64("rows", count),
				)
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for feed %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("feed", idx+1),
			slog.Uint64("total_rows", count),
		)

		filters[idx] = filter
		return nil
	}
}

// findConfirmedRows re-streams each feed and checks rows against OTHER feeds'
// bloom filters. A row is confirmed when its key appears in 2 or more feeds.
func findConfirmedRows(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]feedRow, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(findCandidatesInFile(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge bitmasks from all feeds. The first feed to carry a row wins on
	// conflicting discount values.
	merged := make(map[string]uint)
	rows := make(map[string]feedRow)
	for _, r := range results {
		for key, mask := range r.masks {
			merged[key] |= mask
			if _, seen := rows[key]; !seen {
				rows[key] = r.rows[key]
			}
		}
	}

	var confirmed []feedRow
	for key, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			confirmed = append(confirmed, rows[key])
		}
	}

	return confirmed, nil
}

func findCandidatesInFile(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		candidateRows := make(map[string]feedRow)
		fileBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFile(ctx, path, func(line string) {
			row, ok := parseRow(line)
			if !ok {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("feed", idx+1),
					slog.Uint64("rows", count),
				)
			}

			// Check if this key appears in any OTHER feed's bloom filter.
			key := row.key()
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(key) {
					candidates[key] |= fileBit
					candidateRows[key] = row
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan feed %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("feed", idx+1),
			slog.Uint64("total_rows", count),
			slog.Int("candidates", len(candidates)),
		)

		results[idx] = fileResult{rows: candidateRows, masks: candidates}
		return nil
	}
}

// parseRow parses one feed line. Malformed lines are skipped.
func parseRow(line string) (feedRow, bool) {
	parts := strings.Split(line, "|")
	if len(parts) != 4 {
		return feedRow{}, false
	}
	if parts[0] == "" || parts[1] == "" {
		return feedRow{}, false
	}
	pct, err := decimal.NewFromString(strings.TrimSpace(parts[3]))
	if err != nil || pct.IsNegative() {
		return feedRow{}, false
	}
	return feedRow{
		productID:   parts[0],
		offerID:     parts[1],
		partner:     parts[2],
		discountPct: pct,
	}, true
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writeRows upserts all confirmed eligibility rows.
func writeRows(ctx context.Context, store *postgres.OfferStore, rows []feedRow) error {
	slog.Info("writing eligibility rows", slog.Int("count", len(rows)))

	for i, r := range rows {
		err := store.Upsert(ctx, postgres.OfferEligibility{
			ProductID:   r.productID,
			OfferID:     r.offerID,
			Partner:     r.partner,
			DiscountPct: r.discountPct,
		})
		if err != nil {
			return err
		}

		if (i+1)%100 == 0 || i+1 == len(rows) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(rows)))
		}
	}

	return nil
}
