package models

import "encoding/json"

// Mutation names understood by the server.
const (
	MutationAddExpense    = "addExpense"
	MutationDeleteExpense = "deleteExpense"
	MutationAddUser       = "addUser"
)

// Mutation result statuses reported per mutation in the push response.
const (
	ResultApplied  = "applied"  // replayed and durably committed
	ResultSkipped  = "skipped"  // already seen, idempotent no-op
	ResultRejected = "rejected" // invalid, dropped permanently, do not retry
	ResultRetry    = "retry"    // not committed, resend on next push
)

// Mutation is one client-originated state change. Args is kept raw so a
// single malformed mutation does not fail the whole batch; each handler
// decodes its own argument type.
type Mutation struct {
	ID        int64           `json:"id"`
	ClientID  string          `json:"clientID"`
	Name      string          `json:"name"`
	Args      json.RawMessage `json:"args"`
	Timestamp int64           `json:"timestamp"`
}

// DeleteExpenseArgs are the arguments of a deleteExpense mutation.
type DeleteExpenseArgs struct {
	GroupID string `json:"groupId"`
	ID      string `json:"id"`
}

// AddUserArgs are the arguments of an addUser mutation.
type AddUserArgs struct {
	GroupID string `json:"groupId"`
	ID      string `json:"id"`
	Name    string `json:"name"`
}

// PushRequest is the client-to-server half of the sync protocol: a batch of
// locally-applied mutations tagged with per-client incrementing ids.
type PushRequest struct {
	PushVersion   int        `json:"pushVersion"`
	ClientGroupID string     `json:"clientGroupID"`
	ProfileID     string     `json:"profileID,omitempty"`
	SchemaVersion string     `json:"schemaVersion"`
	Mutations     []Mutation `json:"mutations"`
}

// MutationResult reports the outcome of one mutation in a push batch.
type MutationResult struct {
	ID       int64  `json:"id"`
	ClientID string `json:"clientID"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// PushResponse summarizes a replayed batch. Mutation effects are observed
// via a subsequent pull; the results only tell the client what to retry.
type PushResponse struct {
	Applied int              `json:"applied"`
	Results []MutationResult `json:"results"`
}

// PullRequest asks for the authoritative state the client has not seen yet.
// Cookie is the version the client last reconciled against.
type PullRequest struct {
	PullVersion   int    `json:"pullVersion"`
	ClientGroupID string `json:"clientGroupID"`
	Cookie        int64  `json:"cookie"`
	ProfileID     string `json:"profileID,omitempty"`
	SchemaVersion string `json:"schemaVersion"`
}

// PullResponse carries the new cookie, the per-client sync cursors, and a
// patch the client applies to its local replica.
type PullResponse struct {
	Cookie                int64            `json:"cookie"`
	LastMutationIDChanges map[string]int64 `json:"lastMutationIDChanges"`
	Patch                 []PatchOperation `json:"patch"`
}
