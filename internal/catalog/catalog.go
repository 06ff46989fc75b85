// Package catalog resolves menu items to their bill of materials and
// applies the size-based quantity scaling used by the consumption
// engine. All functions are pure; callers supply the menu data.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"momostation/backend/internal/domain"
)

// Momo items sell in fixed piece counts per size while their bulk
// material is tracked in pieces; the global recipe expresses one piece.
var piecesBySize = map[domain.Size]int64{
	domain.SizeSmall:  4,
	domain.SizeMedium: 6,
	domain.SizeLarge:  8,
}

// SizeFromName derives the size from the resolved display name. This
// exists only as a fallback for legacy order rows saved before Size
// became a first-class field; new orders carry Size explicitly.
func SizeFromName(name string) domain.Size {
	switch {
	case strings.Contains(name, "(Small)"):
		return domain.SizeSmall
	case strings.Contains(name, "(Large)"):
		return domain.SizeLarge
	default:
		return domain.SizeMedium
	}
}

// ItemSize returns the item's recorded size, falling back to name
// parsing for rows that predate the size field.
func ItemSize(item domain.OrderItem) domain.Size {
	if item.Size != "" {
		return item.Size
	}
	return SizeFromName(item.Name)
}

// ResolveRecipe returns the active recipe for the given size and
// whether the global recipe was used. A non-empty per-size recipe is
// authoritative and already expressed in true consumed units.
func ResolveRecipe(item domain.MenuItem, size domain.Size) ([]domain.RecipeRequirement, bool) {
	if override, ok := item.SizeRecipes[size]; ok && len(override) > 0 {
		return override, false
	}
	return item.Recipe, true
}

// SizeMultiplier returns the piece-count factor applied to global-recipe
// consumption of momo items: small=4, medium=6, large=8. Per-size
// recipes and non-momo categories always scale by 1.
func SizeMultiplier(category domain.Category, size domain.Size, usingGlobalRecipe bool) decimal.Decimal {
	if !usingGlobalRecipe || category != domain.CategoryMomo {
		return decimal.NewFromInt(1)
	}
	pieces, ok := piecesBySize[size]
	if !ok {
		pieces = piecesBySize[domain.SizeMedium]
	}
	return decimal.NewFromInt(pieces)
}

// Consumption computes the total quantity of one material consumed by
// an order line: requirement × size multiplier × units sold.
func Consumption(requirementQty decimal.Decimal, multiplier decimal.Decimal, orderQty int) decimal.Decimal {
	return requirementQty.Mul(multiplier).Mul(decimal.NewFromInt(int64(orderQty)))
}
