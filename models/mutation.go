package models

// MutationStatus tracks one write against the store.
// The local flag it guards only flips once the write is confirmed.
type MutationStatus string

const (
	MutationNone      MutationStatus = ""
	MutationPending   MutationStatus = "pending"
	MutationConfirmed MutationStatus = "confirmed"
	MutationFailed    MutationStatus = "failed"
)
