package portfolio

import (
	"sort"

	"github.com/dfarias/carteira/internal/models"
)

// MergePlan records the store side effects owed for one merged duplicate
// group: transactions referencing absorbed records must be repointed to the
// survivor, then the absorbed records deleted. Applying a plan twice is a
// no-op: repointing finds nothing left to repoint and deletes of absent
// records are not errors.
type MergePlan struct {
	Survivor models.Holding
	Absorbed []models.Holding
}

// ReconcileResult is the outcome of a reconciliation pass.
type ReconcileResult struct {
	// Merged is the sanitized collection, sorted CreatedAt descending.
	Merged []models.Holding
	// Groups holds the identity groups found; entries with more than one
	// holding were merged.
	Groups [][]models.Holding
	// Plans lists the store side effects for each merged group.
	Plans []MergePlan
}

// Reconcile groups a holdings collection by identity key and merges each
// duplicate group into a single record. The pass is pure and stateless, so it
// can run on every load, and it is both idempotent and order-independent:
// reconciling an already-reconciled collection changes nothing, and
// permuting the input yields the same merged set.
func Reconcile(holdings []models.Holding) ReconcileResult {
	byKey := make(map[string][]models.Holding)
	keyOrder := make([]string, 0, len(holdings))
	for _, h := range holdings {
		key := HoldingKey(&h)
		if _, seen := byKey[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		byKey[key] = append(byKey[key], h)
	}

	result := ReconcileResult{
		Merged: make([]models.Holding, 0, len(byKey)),
		Groups: make([][]models.Holding, 0, len(byKey)),
	}

	for _, key := range keyOrder {
		group := byKey[key]
		result.Groups = append(result.Groups, group)

		if len(group) == 1 {
			result.Merged = append(result.Merged, group[0])
			continue
		}

		merged, absorbed := mergeGroup(group)
		result.Merged = append(result.Merged, merged)
		result.Plans = append(result.Plans, MergePlan{
			Survivor: merged,
			Absorbed: absorbed,
		})
	}

	// Canonical load order: newest first.
	sort.SliceStable(result.Merged, func(i, j int) bool {
		return result.Merged[i].CreatedAt.After(result.Merged[j].CreatedAt)
	})

	return result
}

// mergeGroup folds a duplicate group into one record. The most recently
// updated holding supplies identity and non-numeric fields; numeric fields
// are the N-way generalization of the buy accumulator: quantity is the sum,
// average price the quantity-weighted mean.
func mergeGroup(group []models.Holding) (models.Holding, []models.Holding) {
	base := pickSurvivor(group)

	var totalQuantity, weightedCost float64
	for _, h := range group {
		totalQuantity += h.Quantity
		weightedCost += h.Quantity * h.AveragePrice
	}

	merged := base
	merged.Quantity = totalQuantity
	if totalQuantity > 0 {
		merged.AveragePrice = weightedCost / totalQuantity
	}
	merged.CurrentValue = merged.Quantity * base.CurrentPrice
	merged.RecomputeDerived()

	// Earliest creation wins so the merged record keeps its place in the
	// newest-first load order across repeated passes.
	for _, h := range group {
		if h.CreatedAt.Before(merged.CreatedAt) {
			merged.CreatedAt = h.CreatedAt
		}
	}

	absorbed := make([]models.Holding, 0, len(group)-1)
	for _, h := range group {
		if h.ID != merged.ID {
			absorbed = append(absorbed, h)
		}
	}

	return merged, absorbed
}

// pickSurvivor chooses the authoritative record of a duplicate group: the
// latest UpdatedAt, with CreatedAt and then ID breaking ties so the choice
// does not depend on input order.
func pickSurvivor(group []models.Holding) models.Holding {
	best := group[0]
	for _, h := range group[1:] {
		switch {
		case h.UpdatedAt.After(best.UpdatedAt):
			best = h
		case h.UpdatedAt.Equal(best.UpdatedAt):
			if h.CreatedAt.After(best.CreatedAt) ||
				(h.CreatedAt.Equal(best.CreatedAt) && h.ID > best.ID) {
				best = h
			}
		}
	}
	return best
}
