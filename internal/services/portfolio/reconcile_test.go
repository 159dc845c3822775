package portfolio

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/dfarias/carteira/internal/models"
)

func dupHoldings() []models.Holding {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.Holding{
		{
			ID: "h1", Category: models.CategoryStocks, Ticker: "AAPL", Name: "Apple",
			Quantity: 5, AveragePrice: 100, CurrentPrice: 125,
			CreatedAt: base, UpdatedAt: base,
		},
		{
			ID: "h2", Category: models.CategoryStocks, Ticker: "AAPL", Name: "Apple Inc",
			Quantity: 3, AveragePrice: 120, CurrentPrice: 128,
			CreatedAt: base.AddDate(0, 1, 0), UpdatedAt: base.AddDate(0, 1, 0),
		},
		{
			ID: "h3", Category: models.CategoryStocks, Ticker: "AAPL", Name: "Apple",
			Quantity: 2, AveragePrice: 90, CurrentPrice: 130,
			CreatedAt: base.AddDate(0, 2, 0), UpdatedAt: base.AddDate(0, 2, 0),
		},
		{
			ID: "h4", Category: models.CategoryFII, Ticker: "HGLG11", Name: "HGLG",
			Quantity: 10, AveragePrice: 160, CurrentPrice: 170,
			CreatedAt: base, UpdatedAt: base,
		},
	}
}

func findMerged(t *testing.T, merged []models.Holding, key string) *models.Holding {
	t.Helper()
	for i := range merged {
		if HoldingKey(&merged[i]) == key {
			return &merged[i]
		}
	}
	t.Fatalf("no merged holding with key %q", key)
	return nil
}

func TestReconcileMergesDuplicateGroup(t *testing.T) {
	result := Reconcile(dupHoldings())

	if len(result.Merged) != 2 {
		t.Fatalf("merged count = %d, want 2", len(result.Merged))
	}
	if len(result.Plans) != 1 {
		t.Fatalf("plans = %d, want 1", len(result.Plans))
	}

	aapl := findMerged(t, result.Merged, "stocks|AAPL")

	if aapl.Quantity != 10 {
		t.Errorf("quantity = %v, want 10", aapl.Quantity)
	}
	// (5×100 + 3×120 + 2×90) / 10 = 104
	if math.Abs(aapl.AveragePrice-104) > 1e-9 {
		t.Errorf("averagePrice = %v, want 104", aapl.AveragePrice)
	}
	if math.Abs(aapl.InvestedAmount-1040) > 1e-9 {
		t.Errorf("investedAmount = %v, want 1040", aapl.InvestedAmount)
	}
	// Most recently updated record (h3, price 130) supplies the mark.
	if math.Abs(aapl.CurrentValue-1300) > 1e-9 {
		t.Errorf("currentValue = %v, want 1300", aapl.CurrentValue)
	}
	if math.Abs(aapl.ProfitLoss-260) > 1e-9 {
		t.Errorf("profitLoss = %v, want 260", aapl.ProfitLoss)
	}
	if aapl.ID != "h3" {
		t.Errorf("survivor = %s, want h3 (latest updatedAt)", aapl.ID)
	}
}

func TestReconcileSingletonsPassThrough(t *testing.T) {
	holdings := dupHoldings()[3:]

	result := Reconcile(holdings)

	if len(result.Merged) != 1 || len(result.Plans) != 0 {
		t.Fatalf("singleton changed: merged=%d plans=%d", len(result.Merged), len(result.Plans))
	}
	if result.Merged[0].Quantity != holdings[0].Quantity {
		t.Errorf("quantity mutated: %v", result.Merged[0].Quantity)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	first := Reconcile(dupHoldings())
	second := Reconcile(first.Merged)

	if len(second.Plans) != 0 {
		t.Fatalf("second pass produced %d merge plans, want 0", len(second.Plans))
	}
	if len(second.Merged) != len(first.Merged) {
		t.Fatalf("second pass changed count: %d vs %d", len(second.Merged), len(first.Merged))
	}
	for i := range first.Merged {
		a, b := first.Merged[i], second.Merged[i]
		if a.ID != b.ID || a.Quantity != b.Quantity || a.AveragePrice != b.AveragePrice {
			t.Errorf("holding %d changed on second pass: %+v vs %+v", i, a, b)
		}
	}
}

func TestReconcileOrderIndependent(t *testing.T) {
	holdings := dupHoldings()
	want := Reconcile(holdings)
	wantAAPL := findMerged(t, want.Merged, "stocks|AAPL")

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]models.Holding, len(holdings))
		copy(shuffled, holdings)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := Reconcile(shuffled)
		if len(got.Merged) != len(want.Merged) {
			t.Fatalf("trial %d: merged count %d, want %d", trial, len(got.Merged), len(want.Merged))
		}
		gotAAPL := findMerged(t, got.Merged, "stocks|AAPL")
		if gotAAPL.ID != wantAAPL.ID ||
			gotAAPL.Quantity != wantAAPL.Quantity ||
			math.Abs(gotAAPL.AveragePrice-wantAAPL.AveragePrice) > 1e-9 {
			t.Errorf("trial %d: merge depends on input order: %+v vs %+v", trial, gotAAPL, wantAAPL)
		}
	}
}

func TestReconcileSortsNewestFirst(t *testing.T) {
	result := Reconcile(dupHoldings())

	for i := 1; i < len(result.Merged); i++ {
		if result.Merged[i].CreatedAt.After(result.Merged[i-1].CreatedAt) {
			t.Errorf("merged not sorted createdAt descending at index %d", i)
		}
	}
}

func TestReconcilePlanListsAbsorbed(t *testing.T) {
	result := Reconcile(dupHoldings())

	plan := result.Plans[0]
	if plan.Survivor.ID != "h3" {
		t.Errorf("survivor = %s, want h3", plan.Survivor.ID)
	}
	if len(plan.Absorbed) != 2 {
		t.Fatalf("absorbed = %d, want 2", len(plan.Absorbed))
	}
	for _, a := range plan.Absorbed {
		if a.ID == plan.Survivor.ID {
			t.Errorf("survivor listed as absorbed: %s", a.ID)
		}
	}
}

func TestReconcileNameOnlyIdentity(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	holdings := []models.Holding{
		{ID: "c1", Category: models.CategoryCDB, Name: "CDB Banco Inter 110%", Quantity: 1, AveragePrice: 1000, CreatedAt: base, UpdatedAt: base},
		{ID: "c2", Category: models.CategoryCDB, Name: "cdb  banco inter 110%", Quantity: 1, AveragePrice: 2000, CreatedAt: base.AddDate(0, 0, 1), UpdatedAt: base.AddDate(0, 0, 1)},
	}

	result := Reconcile(holdings)

	if len(result.Merged) != 1 {
		t.Fatalf("merged = %d, want 1 (names should normalize equal)", len(result.Merged))
	}
	if result.Merged[0].Quantity != 2 {
		t.Errorf("quantity = %v, want 2", result.Merged[0].Quantity)
	}
}

func TestReconcileEmpty(t *testing.T) {
	result := Reconcile(nil)
	if len(result.Merged) != 0 || len(result.Plans) != 0 {
		t.Errorf("empty input produced output: %+v", result)
	}
}
