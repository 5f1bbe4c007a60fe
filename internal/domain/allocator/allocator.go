// Package allocator computes each participant's exact share of an itemized
// bill. An item's value is divided across the shares claimed on it, a
// participant's subtotal is the sum of their claimed shares, and the
// bill-wide tax, service fee and discount are then distributed across
// participants proportionally to their subtotal:
//
//	proportion = personal_subtotal / grand_subtotal
//	total      = subtotal + tax*proportion + service*proportion - discount*proportion
//
// Allocation is a pure function of its inputs; nothing is cached or stored
// between calls.
package allocator

import "github.com/patungan-app/patungan-backend/internal/models"

// Terms carries the bill-wide charges to distribute. DiscountAmount is the
// already-resolved currency amount (see ResolveDiscount), computed once
// against the grand subtotal rather than per participant.
type Terms struct {
	TaxPercent     float64
	ServiceFee     float64
	DiscountAmount float64
}

// ItemShare is one participant's claimed slice of a single item.
type ItemShare struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Cost     float64 `json:"cost"`
}

// Result is the computed allocation for one participant.
type Result struct {
	ParticipantID string      `json:"participant_id"`
	Name          string      `json:"name"`
	Items         []ItemShare `json:"items"`
	Subtotal      float64     `json:"subtotal"`
	Tax           float64     `json:"tax"`
	Service       float64     `json:"service"`
	Discount      float64     `json:"discount"`
	Total         float64     `json:"total"`
}

// GrandSubtotal sums unit price times quantity over all items, claimed or
// not. Unclaimed items still count here, which is what keeps a lone
// claimant's proportion below 1 when part of the bill is unassigned.
func GrandSubtotal(items []models.Item) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Total()
	}
	return sum
}

// Allocate computes every participant's share of the bill.
//
// It returns one Result per participant in input order, including
// zero-valued entries for participants who claim nothing. When the grand
// subtotal is zero there is nothing to allocate and the result set is empty.
//
// Assignments referencing unknown item ids (an item deleted after it was
// claimed) are skipped, and items with no claims at all contribute to no
// one's subtotal, their value is absorbed by nobody, so the participants'
// totals sum to the claimed portion of the bill only.
func Allocate(participants []models.Participant, items []models.Item, terms Terms) []Result {
	grandSubtotal := GrandSubtotal(items)
	if grandSubtotal == 0 {
		return []Result{}
	}

	grandTax := grandSubtotal * (terms.TaxPercent / 100)
	grandService := terms.ServiceFee
	grandDiscount := terms.DiscountAmount

	// Shares are summed once per item, not once per claimant.
	shareCounts := make(map[string]int, len(items))
	for _, item := range items {
		shareCounts[item.ID] = TotalShares(participants, item.ID)
	}

	results := make([]Result, 0, len(participants))
	for _, p := range participants {
		var subtotal float64
		shares := []ItemShare{}

		// Walking the item list, not the assignment map, keeps the
		// per-participant item order stable across runs.
		for _, item := range items {
			q := p.Assignments[item.ID]
			if q <= 0 {
				continue
			}
			cost := SplitItem(item, shareCounts[item.ID], q)
			if cost == 0 {
				continue
			}
			subtotal += cost
			shares = append(shares, ItemShare{
				Name:     item.Name,
				Quantity: q,
				Cost:     cost,
			})
		}

		proportion := subtotal / grandSubtotal

		tax := grandTax * proportion
		service := grandService * proportion
		discount := grandDiscount * proportion

		results = append(results, Result{
			ParticipantID: p.ID,
			Name:          p.Name,
			Items:         shares,
			Subtotal:      subtotal,
			Tax:           tax,
			Service:       service,
			Discount:      discount,
			Total:         subtotal + tax + service - discount,
		})
	}

	return results
}
