package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ResolveUnitPrice determines the unit price a buyer pays for a product at a
// given quantity. Wholesale pricing applies only when a retailer buys from a
// wholesaler:
//
//  1. Among tiers whose MinQuantity <= quantity, the one with the greatest
//     MinQuantity wins. Tiers sharing a threshold are ordered by lower unit
//     price, then by id, so the result is deterministic.
//  2. If no tier qualifies, the product's wholesale price applies when the
//     quantity meets its wholesale minimum.
//  3. Otherwise the retail price applies.
//
// Every other buyer/seller combination pays the retail price. The function is
// pure; callers pass the tier set alongside the product.
func ResolveUnitPrice(product *Product, tiers []PriceTier, quantity int, buyerRole Role) decimal.Decimal {
	if product.SellerRole != RoleWholesaler || buyerRole != RoleRetailer {
		return product.RetailPrice
	}

	if len(tiers) > 0 {
		sorted := make([]PriceTier, len(tiers))
		copy(sorted, tiers)
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].MinQuantity != sorted[j].MinQuantity {
				return sorted[i].MinQuantity > sorted[j].MinQuantity
			}
			if !sorted[i].UnitPrice.Equal(sorted[j].UnitPrice) {
				return sorted[i].UnitPrice.LessThan(sorted[j].UnitPrice)
			}
			return sorted[i].ID.String() < sorted[j].ID.String()
		})
		for _, tier := range sorted {
			if tier.MinQuantity <= quantity {
				return tier.UnitPrice
			}
		}
	}

	if product.WholesalePrice != nil && product.WholesaleMinQty != nil && quantity >= *product.WholesaleMinQty {
		return *product.WholesalePrice
	}

	return product.RetailPrice
}
