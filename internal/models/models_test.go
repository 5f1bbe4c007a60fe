package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemTotal(t *testing.T) {
	item := Item{Name: "Nasi Goreng", UnitPrice: 50000, Quantity: 3}
	assert.InDelta(t, 150000, item.Total(), 0.001)
}

func TestAllPaid(t *testing.T) {
	assert.False(t, AllPaid(nil), "a bill with nobody on it is never settled")
	assert.False(t, AllPaid([]Participant{}))

	participants := []Participant{
		{Name: "A", Paid: true},
		{Name: "B", Paid: false},
	}
	assert.False(t, AllPaid(participants))

	participants[1].Paid = true
	assert.True(t, AllPaid(participants))
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, StatusUnpaid, DeriveStatus(nil))
	assert.Equal(t, StatusPaid, DeriveStatus([]Participant{{Paid: true}}))
	assert.Equal(t, StatusUnpaid, DeriveStatus([]Participant{{Paid: true}, {Paid: false}}))
}
