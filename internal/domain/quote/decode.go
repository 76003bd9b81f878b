package quote

import (
	"math"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// DecodePurchasePayload decodes the loosely-typed response of the remote
// pricing service into a validated Quote. Unknown fields are skipped; a
// payload that cannot be decoded at all yields an error, which callers treat
// as "no quote available" rather than a failure.
//
// The wire shape follows the service contract:
//
//	{
//	  "original_data": {
//	    "original_price": 100.0,
//	    "discount_applied": true,
//	    "offer_details": {"offer_id": ..., "final_price": ...},
//	    "all_applicable_offers": [...]
//	  },
//	  "summary": "..."
//	}
func DecodePurchasePayload(data []byte) (Quote, error) {
	var q Quote
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "original_data":
			return decodeOriginalData(d, &q)
		case "summary":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "summary")
			}
			q.Summary = s
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return Quote{}, errors.Wrap(err, "decode purchase payload")
	}
	return q, nil
}

func decodeOriginalData(d *jx.Decoder, q *Quote) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "original_price":
			v, err := decodeDecimal(d)
			if err != nil {
				return errors.Wrap(err, "original_price")
			}
			q.OriginalPrice = v
			return nil
		case "discount_applied":
			applied, err := d.Bool()
			if err != nil {
				return errors.Wrap(err, "discount_applied")
			}
			q.DiscountApplied = applied
			return nil
		case "offer_details":
			if d.Next() == jx.Null {
				return d.Null()
			}
			offer, err := decodeOffer(d)
			if err != nil {
				return errors.Wrap(err, "offer_details")
			}
			q.Offer = &offer
			return nil
		case "all_applicable_offers":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Arr(func(d *jx.Decoder) error {
				offer, err := decodeOffer(d)
				if err != nil {
					return errors.Wrap(err, "all_applicable_offers")
				}
				q.AlternativeOffers = append(q.AlternativeOffers, offer)
				return nil
			})
		default:
			return d.Skip()
		}
	})
}

func decodeOffer(d *jx.Decoder) (Offer, error) {
	var o Offer
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "offer_id":
			return decodeString(d, &o.OfferID)
		case "offer_name":
			return decodeString(d, &o.OfferName)
		case "partner":
			return decodeString(d, &o.Partner)
		case "discount_type":
			return decodeString(d, &o.DiscountType)
		case "discount_percentage":
			f, err := d.Float64()
			if err != nil {
				return err
			}
			o.DiscountPercentage = int(math.Round(f))
			return nil
		case "discount_amount":
			v, err := decodeDecimal(d)
			if err != nil {
				return err
			}
			o.DiscountAmount = v
			return nil
		case "cashback_amount":
			v, err := decodeDecimal(d)
			if err != nil {
				return err
			}
			o.CashbackAmount = v
			return nil
		case "final_price":
			v, err := decodeDecimal(d)
			if err != nil {
				return err
			}
			o.FinalPrice = v
			return nil
		default:
			return d.Skip()
		}
	})
	return o, err
}

// decodeString tolerates offer ids sent as JSON numbers.
func decodeString(d *jx.Decoder, dst *string) error {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return err
		}
		*dst = n.String()
		return nil
	case jx.Null:
		return d.Null()
	default:
		s, err := d.Str()
		if err != nil {
			return err
		}
		*dst = s
		return nil
	}
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.Null {
		return decimal.Zero, d.Null()
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(n.String())
}
