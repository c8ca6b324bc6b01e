package sync

import (
	"adaudit/internal/config"
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/r3labs/sse/v2"
	"github.com/rs/zerolog/log"
	backoff "gopkg.in/cenkalti/backoff.v1"
)

// EventSource is one open server-push stream. Events carries decoded events
// in arrival order; Disconnected closes when the transport drops. Both may
// fire around the same instant, which is exactly the race the session's
// grace window exists for.
type EventSource interface {
	Events() <-chan StreamEvent
	Disconnected() <-chan struct{}
	Close()
}

// StreamOpener opens an event stream for one account's operation.
type StreamOpener interface {
	Open(ctx context.Context, op Operation, accountID, token string) (EventSource, error)
}

// SSEOpener connects to the sync service's SSE endpoints. Reconnecting is
// deliberately disabled: one attempt per invocation, retry is caller policy.
type SSEOpener struct {
	baseURL string
	http    *http.Client
}

func NewSSEOpener(cfg *config.SyncServiceConfig) *SSEOpener {
	return &SSEOpener{
		baseURL: cfg.BaseURL,
		// No overall timeout on the client: streams are long-lived and are
		// torn down via context instead. Connection setup is still bounded.
		http: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: cfg.ConnectTimeout,
			},
		},
	}
}

func (o *SSEOpener) Open(ctx context.Context, op Operation, accountID, token string) (EventSource, error) {
	streamURL := o.baseURL + op.StreamPath(accountID) + "?token=" + url.QueryEscape(token)

	ctx, cancel := context.WithCancel(ctx)
	src := &sseSource{
		events:       make(chan StreamEvent, 32),
		disconnected: make(chan struct{}),
		cancel:       cancel,
	}

	client := sse.NewClient(streamURL)
	client.Connection = o.http
	client.ReconnectStrategy = &backoff.StopBackOff{}
	client.OnDisconnect(func(*sse.Client) {
		src.signalDisconnect()
	})

	go func() {
		err := client.SubscribeRawWithContext(ctx, func(msg *sse.Event) {
			if len(msg.Event) == 0 && len(msg.Data) == 0 {
				return
			}
			ev := StreamEvent{
				Type: string(msg.Event),
				Data: append([]byte(nil), msg.Data...),
			}
			select {
			case src.events <- ev:
			case <-ctx.Done():
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Debug().Err(err).
				Str("account_id", accountID).
				Str("operation", string(op)).
				Msg("sync stream subscription ended")
			src.signalDisconnect()
		}
		close(src.events)
	}()

	return src, nil
}

type sseSource struct {
	events       chan StreamEvent
	disconnected chan struct{}
	cancel       context.CancelFunc
	once         sync.Once
}

func (s *sseSource) Events() <-chan StreamEvent    { return s.events }
func (s *sseSource) Disconnected() <-chan struct{} { return s.disconnected }

func (s *sseSource) signalDisconnect() {
	s.once.Do(func() { close(s.disconnected) })
}

// Close releases the connection. Safe to call from any goroutine and on
// every exit path; the cancellation bridge uses it to force-close mid-flight.
func (s *sseSource) Close() {
	s.cancel()
}
