package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"momostation/backend/internal/domain"
)

func TestSizeFromName(t *testing.T) {
	cases := []struct {
		name string
		want domain.Size
	}{
		{"Chicken Momo (Small) - Steamed", domain.SizeSmall},
		{"Chicken Momo (Large) - Fried", domain.SizeLarge},
		{"Chicken Momo (Medium) - Steamed", domain.SizeMedium},
		{"Veg Momo", domain.SizeMedium},
	}
	for _, tc := range cases {
		if got := SizeFromName(tc.name); got != tc.want {
			t.Fatalf("SizeFromName(%q) = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestItemSizePrefersExplicitField(t *testing.T) {
	item := domain.OrderItem{Name: "Chicken Momo (Large)", Size: domain.SizeSmall}
	if got := ItemSize(item); got != domain.SizeSmall {
		t.Fatalf("expected explicit size to win, got %s", got)
	}

	legacy := domain.OrderItem{Name: "Chicken Momo (Large)"}
	if got := ItemSize(legacy); got != domain.SizeLarge {
		t.Fatalf("expected legacy name parsing, got %s", got)
	}
}

func TestResolveRecipeSizeOverrideIsAuthoritative(t *testing.T) {
	item := domain.MenuItem{
		ID:       "platter",
		Category: domain.CategoryCombo,
		Recipe:   []domain.RecipeRequirement{{MaterialID: "momo-veg", Quantity: decimal.NewFromInt(1)}},
		SizeRecipes: map[domain.Size][]domain.RecipeRequirement{
			domain.SizeLarge: {{MaterialID: "pkt-fries", Quantity: decimal.RequireFromString("0.5")}},
		},
	}

	recipe, usingGlobal := ResolveRecipe(item, domain.SizeLarge)
	if usingGlobal {
		t.Fatalf("expected size override, got global recipe")
	}
	if len(recipe) != 1 || recipe[0].MaterialID != "pkt-fries" {
		t.Fatalf("unexpected recipe: %+v", recipe)
	}

	recipe, usingGlobal = ResolveRecipe(item, domain.SizeMedium)
	if !usingGlobal {
		t.Fatalf("expected global recipe for medium")
	}
	if len(recipe) != 1 || recipe[0].MaterialID != "momo-veg" {
		t.Fatalf("unexpected global recipe: %+v", recipe)
	}
}

func TestResolveRecipeEmptyOverrideFallsBack(t *testing.T) {
	item := domain.MenuItem{
		Recipe: []domain.RecipeRequirement{{MaterialID: "momo-chicken", Quantity: decimal.NewFromInt(1)}},
		SizeRecipes: map[domain.Size][]domain.RecipeRequirement{
			domain.SizeSmall: {},
		},
	}
	_, usingGlobal := ResolveRecipe(item, domain.SizeSmall)
	if !usingGlobal {
		t.Fatalf("empty per-size recipe should fall back to global")
	}
}

func TestSizeMultiplierMomoGlobalRecipe(t *testing.T) {
	cases := []struct {
		size domain.Size
		want int64
	}{
		{domain.SizeSmall, 4},
		{domain.SizeMedium, 6},
		{domain.SizeLarge, 8},
	}
	for _, tc := range cases {
		got := SizeMultiplier(domain.CategoryMomo, tc.size, true)
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Fatalf("momo %s multiplier = %s, want %d", tc.size, got, tc.want)
		}
	}
}

func TestSizeMultiplierIsOneForOverridesAndOtherCategories(t *testing.T) {
	one := decimal.NewFromInt(1)
	if got := SizeMultiplier(domain.CategoryMomo, domain.SizeLarge, false); !got.Equal(one) {
		t.Fatalf("per-size recipe must not be scaled, got %s", got)
	}
	for _, cat := range []domain.Category{domain.CategoryCombo, domain.CategorySide, domain.CategoryDrink} {
		if got := SizeMultiplier(cat, domain.SizeLarge, true); !got.Equal(one) {
			t.Fatalf("category %s multiplier = %s, want 1", cat, got)
		}
	}
}

func TestConsumptionScenarios(t *testing.T) {
	// Chicken Momo, medium, global recipe qty 1, 2 units: 1 x 6 x 2 = 12.
	mult := SizeMultiplier(domain.CategoryMomo, domain.SizeMedium, true)
	got := Consumption(decimal.NewFromInt(1), mult, 2)
	if !got.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("momo medium consumption = %s, want 12", got)
	}

	// Combo large with sizeRecipes qty 0.5, 3 units: 0.5 x 1 x 3 = 1.5.
	mult = SizeMultiplier(domain.CategoryCombo, domain.SizeLarge, false)
	got = Consumption(decimal.RequireFromString("0.5"), mult, 3)
	if !got.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("combo large consumption = %s, want 1.5", got)
	}
}
