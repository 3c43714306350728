package models

// Client is the durable per-device sync cursor.
//
// LastMutationID is the highest mutation id from this client that the server
// has durably applied. It is monotonically non-decreasing: replays and
// reordered batches never move it backwards. ExpireAt is a sliding TTL
// refreshed on successful mutations so abandoned device records can be
// garbage-collected.
type Client struct {
	GroupID        string
	ID             string
	LastMutationID int64
	ExpireAt       int64
}
