package models

import "fmt"

// Patch operation kinds, mirroring the client replica's patch format.
const (
	OpPut   = "put"
	OpDel   = "del"
	OpClear = "clear"
)

// PatchOperation is one instruction for the client's local replica.
type PatchOperation struct {
	Op    string `json:"op"`
	Key   string `json:"key,omitempty"`
	Value any    `json:"value,omitempty"`
}

// NewPutOp returns a patch operation that writes value under key.
func NewPutOp(key Key, value any) PatchOperation {
	return PatchOperation{Op: OpPut, Key: key.String(), Value: value}
}

// NewDelOp returns a patch operation that removes key.
func NewDelOp(key Key) PatchOperation {
	return PatchOperation{Op: OpDel, Key: key.String()}
}

// NewClearOp returns a patch operation that wipes the replica before a
// full-state resync.
func NewClearOp() PatchOperation {
	return PatchOperation{Op: OpClear}
}

// EntityKind names one kind of replicated entity within a group.
type EntityKind string

const (
	KindUser    EntityKind = "user"
	KindExpense EntityKind = "expense"
)

// Key is the structured composite key of one replicated entity: group id,
// entity kind, entity id. Keys are built through the typed constructors
// below rather than string templating so entity ids can never collide with
// the key prefix of a sibling kind.
type Key struct {
	GroupID  string
	Kind     EntityKind
	EntityID string
}

// String renders the key in the client replica's wire format.
func (k Key) String() string {
	return fmt.Sprintf("group-%s/%s/%s", k.GroupID, k.Kind, k.EntityID)
}

// UserKey returns the replica key of a group member's balance row.
func UserKey(groupID, userID string) Key {
	return Key{GroupID: groupID, Kind: KindUser, EntityID: userID}
}

// ExpenseKey returns the replica key of an expense.
func ExpenseKey(groupID, expenseID string) Key {
	return Key{GroupID: groupID, Kind: KindExpense, EntityID: expenseID}
}
