package models

// User is a group member together with their balance row.
//
// One row exists per (group, user). Owed is derived ledger state, recomputed
// incrementally by the ledger mutators on every expense mutation: positive
// means the group owes this user money, negative means this user owes the
// group. Membership in a group is defined by the existence of this row.
type User struct {
	// ID is the user's opaque identifier.
	ID string `json:"id"`

	// GroupID scopes the row to one expense group. It is not part of the
	// wire value; the patch key carries the group.
	GroupID string `json:"-"`

	// Name is the display name replicated to clients.
	Name string `json:"name"`

	// Owed is the running balance in minor currency units.
	Owed int64 `json:"owed"`
}

// Owed is the read-side projection of "who owes whom" from the perspective
// of one user.
type Owed struct {
	// Total is the viewing user's own balance.
	Total int64 `json:"total"`

	// PerUser maps every other member's id to their balance.
	PerUser map[string]int64 `json:"perUser"`
}
