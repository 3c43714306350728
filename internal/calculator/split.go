// Package calculator contains the pure balance arithmetic for expense
// splitting. It operates on int64 minor currency units and never touches
// storage, so every function here is trivially testable.
package calculator

// Portion returns the equal share each non-payer owes for an expense split
// across numUsers group members. The divisor is the number of members other
// than the payer; a single-member group would make that zero, so the divisor
// is clamped to 1 as an explicit branch.
func Portion(amount int64, numUsers int) int64 {
	divisor := numUsers - 1
	if divisor < 1 {
		divisor = 1
	}
	return amount / int64(divisor)
}

// SplitDeltas computes the per-user balance deltas for an expense of amount
// paid by payerID, split equally among userIDs. Every non-payer is debited
// one portion and the payer is credited the sum of those debits, so the
// deltas always sum to exactly zero even when integer division leaves a
// remainder (the remainder simply stays unsplit).
//
// If payerID is not present in userIDs the result is nil; callers validate
// membership before splitting.
func SplitDeltas(amount int64, payerID string, userIDs []string) map[string]int64 {
	payerFound := false
	for _, id := range userIDs {
		if id == payerID {
			payerFound = true
			break
		}
	}
	if !payerFound {
		return nil
	}

	portion := Portion(amount, len(userIDs))
	deltas := make(map[string]int64, len(userIDs))
	var credited int64
	for _, id := range userIDs {
		if id == payerID {
			continue
		}
		deltas[id] = -portion
		credited += portion
	}
	deltas[payerID] = credited
	return deltas
}

// Sum adds up a delta set. The ledger uses this to verify conservation
// before committing a split.
func Sum(deltas map[string]int64) int64 {
	var total int64
	for _, d := range deltas {
		total += d
	}
	return total
}
