package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadFixedCostDefaults(t *testing.T) {
	t.Setenv("DAILY_SALARY_RATE", "")
	t.Setenv("DAILY_RENT_RATE", "")

	cfg := Load()
	if !cfg.DailySalaryRate.Equal(dec("1200")) {
		t.Fatalf("salary rate = %s, want 1200", cfg.DailySalaryRate)
	}
	if !cfg.DailyRentRate.Equal(dec("800")) {
		t.Fatalf("rent rate = %s, want 800", cfg.DailyRentRate)
	}
}

func TestLoadRejectsNegativeRates(t *testing.T) {
	t.Setenv("DAILY_SALARY_RATE", "-50")

	cfg := Load()
	if !cfg.DailySalaryRate.Equal(dec("1200")) {
		t.Fatalf("negative rate must fall back to default, got %s", cfg.DailySalaryRate)
	}
}
