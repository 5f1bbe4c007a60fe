package allocator

import "github.com/patungan-app/patungan-backend/internal/models"

// TotalShares sums the quantities every participant claims on the given
// item. Dangling or zero entries contribute nothing.
func TotalShares(participants []models.Participant, itemID string) int {
	total := 0
	for _, p := range participants {
		if q := p.Assignments[itemID]; q > 0 {
			total += q
		}
	}
	return total
}

// SplitItem computes the cost of claiming q shares of an item whose full
// value is divided across totalShares claimed shares.
//
// The division is by the shares actually claimed, not the item's nominal
// quantity. When claims exceed the quantity on the bill, each share gets
// cheaper instead of the split failing; that dilution mirrors how the bill
// editor behaves when two people over-claim the same plate, and whether it
// should instead be rejected is a product decision, not an engine one.
// With totalShares == 0 the item costs nobody anything.
func SplitItem(item models.Item, totalShares, q int) float64 {
	if totalShares <= 0 || q <= 0 {
		return 0
	}
	costPerShare := item.Total() / float64(totalShares)
	return costPerShare * float64(q)
}
