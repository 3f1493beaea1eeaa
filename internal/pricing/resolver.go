// Package pricing decides which price a viewer sees for a product. Every
// surface that shows or charges a price goes through Service.
package pricing

import "github.com/bwmarrin/snowflake"

type Source string

const (
	SourceOverride  Source = "override"
	SourceDefault   Source = "default"
	SourceOnRequest Source = "on_request"
)

// Overrides holds the negotiated prices of exactly one client keyed by
// product id.
type Overrides map[snowflake.ID]int64

// Resolution is the effective price of one product. A nil PriceCents means
// the product is sold on request.
type Resolution struct {
	PriceCents *int64 `json:"price_cents"`
	Source     Source `json:"price_source"`
}

func (r Resolution) OnRequest() bool { return r.PriceCents == nil }

// Resolve applies override, then default price, then on-request.
func Resolve(productID snowflake.ID, defaultPrice *int64, overrides Overrides) Resolution {
	if price, ok := overrides[productID]; ok {
		return Resolution{PriceCents: &price, Source: SourceOverride}
	}
	if defaultPrice != nil {
		price := *defaultPrice
		return Resolution{PriceCents: &price, Source: SourceDefault}
	}
	return Resolution{Source: SourceOnRequest}
}

// Reprice applies overrides to products that were priced for an anonymous
// viewer. The input slice is left untouched.
func Reprice(items []PricedProduct, overrides Overrides) []PricedProduct {
	out := make([]PricedProduct, len(items))
	copy(out, items)
	if len(overrides) == 0 {
		return out
	}
	for i := range out {
		id, err := snowflake.ParseString(out[i].ID)
		if err != nil {
			continue
		}
		var defaultPrice *int64
		if out[i].Source == SourceDefault {
			defaultPrice = out[i].PriceCents
		}
		out[i].Resolution = Resolve(id, defaultPrice, overrides)
	}
	return out
}
