package model

// Availability maps each configured tier of an event to its raw remaining
// count: configured quantity minus booked quantity. Values may be negative
// if the stored data was oversold by some other writer.
type Availability map[Tier]int

// Remaining returns the raw remaining count for tier. A tier with no
// configured capacity has nothing to sell and reports zero.
func (a Availability) Remaining(tier Tier) int {
	return a[tier]
}

// Clamped returns the remaining count for tier floored at zero.
func (a Availability) Clamped(tier Tier) int {
	if r := a[tier]; r > 0 {
		return r
	}
	return 0
}

// TotalRemaining sums the clamped remaining counts over all tiers.
func (a Availability) TotalRemaining() int {
	total := 0
	for tier := range a {
		total += a.Clamped(tier)
	}
	return total
}

// SoldOut reports whether no tier has a seat left.
func (a Availability) SoldOut() bool {
	return a.TotalRemaining() == 0
}

// ComputeAvailability derives remaining seats from configured tiers and the
// per-tier booked totals. Booked totals for tiers without a configured row
// are ignored.
func ComputeAvailability(tiers []TicketTier, booked map[Tier]int) Availability {
	a := make(Availability, len(tiers))
	for _, t := range tiers {
		a[t.Tier] = t.Quantity - booked[t.Tier]
	}
	return a
}
