package models

// Expense statuses.
const (
	StatusPaid   = "paid"
	StatusUnpaid = "unpaid"
)

// Expense represents one shared ledger entry within a group.
//
// Expenses are created by client mutations and only change through
// edit/delete mutations; the server never rewrites them outside mutation
// replay. JSON field names match the client replica's wire format.
type Expense struct {
	// ID is the client-generated, globally unique identifier.
	ID string `json:"id"`

	// GroupID scopes the expense to one expense group.
	GroupID string `json:"groupId"`

	// Description is the human-readable label (e.g. "Groceries").
	Description string `json:"description"`

	// Amount is the expense total in minor currency units. Must be > 0.
	Amount int64 `json:"amount"`

	// PaidByUserID is the group member who fronted the money.
	PaidByUserID string `json:"paidBy"`

	// Status is "paid" once reimbursed, otherwise "unpaid".
	Status string `json:"status"`

	// PaidOn is the optional unix-milli timestamp the expense was settled.
	PaidOn *int64 `json:"paidOn,omitempty"`

	// CreatedAt is the unix-milli timestamp the expense was created.
	CreatedAt int64 `json:"createdAt"`

	// SplitID references the split policy dividing the amount.
	// Split policies beyond the default equal split are not applied yet.
	SplitID string `json:"splitId"`
}
