package accounts

import "time"

// Platform identifies which ad network an account was connected from.
type Platform string

const (
	PlatformMeta   Platform = "meta"
	PlatformGoogle Platform = "google"
)

func (p Platform) IsValid() bool {
	return p == PlatformMeta || p == PlatformGoogle
}

// Account is a connected ad account. The sync orchestrator treats entries as
// opaque identifiers; this registry owns them.
type Account struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Platform    Platform  `json:"platform"`
	ExternalID  string    `json:"external_id"`
	ConnectedAt time.Time `json:"connected_at"`
}
