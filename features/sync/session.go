package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrCancelled is the sentinel a session rejects with when it was torn down
// by an explicit cancel rather than a genuine failure. The bulk controller
// uses it to classify accounts as cancelled instead of errored.
var ErrCancelled = errors.New("sync cancelled")

const connectionLostMessage = "connection to sync service lost"

const defaultGraceWindow = 500 * time.Millisecond

// Outcome is what a session resolves with on a complete event.
type Outcome struct {
	Counts Counts
	Raw    json.RawMessage
}

type tokenRequester interface {
	Request(ctx context.Context, op Operation, accountID string) (string, error)
}

// Session drives one account's streamed operation: request a token, open the
// stream, fold events into the tracker, resolve on complete or reject on
// error, transport drop or cancellation. One attempt per call, no retries.
type Session struct {
	tokens  tokenRequester
	streams StreamOpener
	bridge  *CancelBridge
	grace   time.Duration
}

type SessionOption func(*Session)

// WithGraceWindow overrides how long the session waits for a late terminal
// event after the transport drops.
func WithGraceWindow(d time.Duration) SessionOption {
	return func(s *Session) {
		s.grace = d
	}
}

func NewSession(tokens tokenRequester, streams StreamOpener, bridge *CancelBridge, opts ...SessionOption) *Session {
	s := &Session{
		tokens:  tokens,
		streams: streams,
		bridge:  bridge,
		grace:   defaultGraceWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the session for one account, mutating tracker as events
// arrive. The stream is closed on every exit path.
func (s *Session) Run(ctx context.Context, op Operation, accountID string, tracker *StepTracker) (Outcome, error) {
	tracer := otel.Tracer("adaudit/sync")
	ctx, span := tracer.Start(ctx, "sync.session",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.String("sync.operation", string(op)),
		))
	defer span.End()

	outcome, err := s.run(ctx, op, accountID, tracker)
	if err != nil && !errors.Is(err, ErrCancelled) {
		span.RecordError(err)
	}
	return outcome, err
}

func (s *Session) run(ctx context.Context, op Operation, accountID string, tracker *StepTracker) (Outcome, error) {
	token, err := s.tokens.Request(ctx, op, accountID)
	if err != nil {
		return Outcome{}, fmt.Errorf("requesting stream token: %w", err)
	}

	src, err := s.streams.Open(ctx, op, accountID, token)
	if err != nil {
		return Outcome{}, fmt.Errorf("opening event stream: %w", err)
	}
	defer src.Close()

	if s.bridge != nil {
		s.bridge.BindActiveStream(src.Close)
		defer s.bridge.ReleaseActiveStream()
	}

	events := src.Events()
	disconnected := src.Disconnected()
	var grace <-chan time.Time

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Stream drained without a terminal event. Give any late
				// disconnect bookkeeping the same grace treatment.
				events = nil
				if grace == nil {
					grace = time.After(s.grace)
				}
				continue
			}
			outcome, terminal, err := s.handleEvent(ev, accountID, tracker)
			if terminal {
				return outcome, err
			}

		case <-disconnected:
			// Transport dropped. A complete event may still be sitting in
			// the events channel, so keep draining for the grace window
			// before declaring the connection lost.
			disconnected = nil
			if grace == nil {
				grace = time.After(s.grace)
			}

		case <-grace:
			if s.bridge != nil && s.bridge.IsCancelled() {
				// The abrupt close was our own doing. Cancellation takes
				// priority over the transport error it causes.
				return Outcome{}, ErrCancelled
			}
			tracker.FailCurrent(connectionLostMessage)
			return Outcome{}, errors.New(connectionLostMessage)

		case <-ctx.Done():
			if s.bridge != nil && s.bridge.IsCancelled() {
				return Outcome{}, ErrCancelled
			}
			return Outcome{}, ctx.Err()
		}
	}
}

// handleEvent folds one event into the tracker. Undecodable or unknown
// events are logged and skipped; nothing is rejected as out of order.
func (s *Session) handleEvent(ev StreamEvent, accountID string, tracker *StepTracker) (Outcome, bool, error) {
	switch ev.Type {
	case EventStart:
		message, note, err := decodeStart(ev.Data)
		if err != nil {
			log.Warn().Err(err).Str("account_id", accountID).Msg("ignoring malformed start event")
			return Outcome{}, false, nil
		}
		entry := log.Info().Str("account_id", accountID).Str("message", message)
		if note != "" {
			entry = entry.Str("note", note)
		}
		entry.Msg("sync session started")

	case EventStep:
		index, name, total, err := decodeStep(ev.Data)
		if err != nil {
			log.Warn().Err(err).Str("account_id", accountID).Msg("ignoring malformed step event")
			return Outcome{}, false, nil
		}
		tracker.Begin(index, name, total)

	case EventProgress:
		index, current, total, err := decodeProgress(ev.Data)
		if err != nil {
			log.Warn().Err(err).Str("account_id", accountID).Msg("ignoring malformed progress event")
			return Outcome{}, false, nil
		}
		tracker.Progress(index, current, total)

	case EventStepComplete:
		index, name, count, err := decodeStepComplete(ev.Data)
		if err != nil {
			log.Warn().Err(err).Str("account_id", accountID).Msg("ignoring malformed step-complete event")
			return Outcome{}, false, nil
		}
		tracker.Complete(index, name, count)

	case EventComplete:
		var counts Counts
		if err := json.Unmarshal(ev.Data, &counts); err != nil {
			log.Warn().Err(err).Str("account_id", accountID).Msg("complete payload did not carry counts")
		}
		return Outcome{Counts: counts, Raw: append(json.RawMessage(nil), ev.Data...)}, true, nil

	case EventError:
		message := decodeError(ev.Data)
		tracker.FailCurrent(message)
		return Outcome{}, true, errors.New(message)

	default:
		log.Debug().Str("event", ev.Type).Str("account_id", accountID).Msg("ignoring unknown stream event")
	}

	return Outcome{}, false, nil
}
