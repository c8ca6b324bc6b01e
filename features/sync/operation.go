package sync

import "fmt"

// Operation selects which streamed bulk flow runs. Redownload and purge are
// served by analogous endpoints with the same event vocabulary, so session,
// tracker and controller are operation-agnostic.
type Operation string

const (
	OpSync       Operation = "sync"
	OpRedownload Operation = "redownload"
	OpPurge      Operation = "purge"
)

func (o Operation) IsValid() bool {
	switch o {
	case OpSync, OpRedownload, OpPurge:
		return true
	}
	return false
}

// TokenPath is the account-scoped endpoint issuing one-time, short-lived
// stream tokens for this operation.
func (o Operation) TokenPath(accountID string) string {
	return fmt.Sprintf("/api/accounts/%s/%s-token", accountID, o)
}

// StreamPath is the SSE endpoint; the token travels as a query parameter
// since tokens are single-use and time-boxed.
func (o Operation) StreamPath(accountID string) string {
	return fmt.Sprintf("/api/accounts/%s/%s/stream", accountID, o)
}

// StepNames is the preset phase list shown before the server announces its
// own steps. The server may rename or extend these mid-flight.
func (o Operation) StepNames() []string {
	switch o {
	case OpRedownload:
		return []string{"Creative Images"}
	case OpPurge:
		return []string{"Creatives", "Ad Sets", "Campaigns"}
	default:
		return []string{"Campaigns", "Ad Sets", "Creatives"}
	}
}
