package portfolio

import (
	"math"
	"testing"
	"time"
)

func TestCompoundValueAtPurchase(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := CompoundValue(1000, 12, t0, t0); got != 1000 {
		t.Errorf("value at purchase = %v, want 1000", got)
	}
}

func TestCompoundValueOneYear(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(365 * 24 * time.Hour)

	got := CompoundValue(1000, 12, t0, t1)
	if math.Abs(got-1120) > 0.01 {
		t.Errorf("value after one year = %v, want ≈1120", got)
	}
}

func TestCompoundValueTwoYears(t *testing.T) {
	t0 := time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC)
	t2 := t0.Add(2 * 365 * 24 * time.Hour)

	got := CompoundValue(5000, 10, t0, t2)
	if math.Abs(got-6050) > 0.01 {
		t.Errorf("value after two years = %v, want 6050", got)
	}
}

func TestCompoundValueBeforePurchase(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := t0.AddDate(0, -3, 0)

	if got := CompoundValue(1000, 12, t0, earlier); got != 1000 {
		t.Errorf("value before purchase = %v, want principal 1000", got)
	}
}

func TestCompoundValueZeroRate(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.AddDate(3, 0, 0)

	if got := CompoundValue(2500, 0, t0, t1); got != 2500 {
		t.Errorf("zero-rate value = %v, want 2500", got)
	}
}

func TestCompoundValueZeroPrincipal(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := CompoundValue(0, 12, t0, t0.AddDate(1, 0, 0)); got != 0 {
		t.Errorf("zero-principal value = %v, want 0", got)
	}
}
