package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	token    string
	err      error
	requests int
}

func (f *fakeTokens) Request(ctx context.Context, op Operation, accountID string) (string, error) {
	f.requests++
	return f.token, f.err
}

// fakeSource scripts a stream: tests push events into the channels directly.
// Close signals a disconnect, mirroring what a force-closed connection does.
type fakeSource struct {
	events       chan StreamEvent
	disconnected chan struct{}
	once         sync.Once
	closed       bool
	mu           sync.Mutex
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		events:       make(chan StreamEvent, 32),
		disconnected: make(chan struct{}),
	}
}

func (f *fakeSource) Events() <-chan StreamEvent    { return f.events }
func (f *fakeSource) Disconnected() <-chan struct{} { return f.disconnected }

func (f *fakeSource) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.once.Do(func() { close(f.disconnected) })
}

func (f *fakeSource) wasClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeOpener struct {
	src   EventSource
	err   error
	opens int
	token string
}

func (f *fakeOpener) Open(ctx context.Context, op Operation, accountID, token string) (EventSource, error) {
	f.opens++
	f.token = token
	if f.err != nil {
		return nil, f.err
	}
	return f.src, nil
}

func TestSession_CompleteEventResolvesWithCounts(t *testing.T) {
	src := newFakeSource()
	opener := &fakeOpener{src: src}
	session := NewSession(&fakeTokens{token: "tok-1"}, opener, NewCancelBridge())
	tracker := NewStepTracker(OpSync.StepNames()...)

	src.events <- StreamEvent{Type: EventStart, Data: []byte(`{"message":"starting"}`)}
	src.events <- StreamEvent{Type: EventStep, Data: []byte(`{"step":1,"name":"Campaigns","total":2}`)}
	src.events <- StreamEvent{Type: EventProgress, Data: []byte(`{"step":1,"current":1,"total":2}`)}
	src.events <- StreamEvent{Type: EventStepComplete, Data: []byte(`{"step":1,"name":"Campaigns","count":2}`)}
	src.events <- StreamEvent{Type: EventComplete, Data: []byte(`{"campaigns":2,"adSets":5,"creatives":9}`)}

	outcome, err := session.Run(context.Background(), OpSync, "acc-1", tracker)
	require.NoError(t, err)

	assert.Equal(t, Counts{Campaigns: 2, AdSets: 5, Creatives: 9}, outcome.Counts)
	assert.Equal(t, "tok-1", opener.token)
	assert.True(t, src.wasClosed(), "stream should be closed on resolve")

	steps := tracker.Steps()
	assert.Equal(t, StepSuccess, steps[0].Status)
	assert.Equal(t, 2, steps[0].Count)
}

func TestSession_ErrorEventRejectsAndFailsCurrentStep(t *testing.T) {
	src := newFakeSource()
	session := NewSession(&fakeTokens{token: "tok"}, &fakeOpener{src: src}, NewCancelBridge())
	tracker := NewStepTracker(OpSync.StepNames()...)

	src.events <- StreamEvent{Type: EventStep, Data: []byte(`{"step":2,"name":"Ad Sets"}`)}
	src.events <- StreamEvent{Type: EventError, Data: []byte(`{"message":"meta API rate limited"}`)}

	_, err := session.Run(context.Background(), OpSync, "acc-1", tracker)
	require.EqualError(t, err, "meta API rate limited")

	steps := tracker.Steps()
	assert.Equal(t, StepError, steps[1].Status)
	assert.Equal(t, "meta API rate limited", steps[1].Error)
	assert.True(t, src.wasClosed())
}

func TestSession_TokenFailureIsFatalBeforeStreamOpens(t *testing.T) {
	opener := &fakeOpener{src: newFakeSource()}
	session := NewSession(&fakeTokens{err: ErrNoToken}, opener, NewCancelBridge())

	_, err := session.Run(context.Background(), OpSync, "acc-1", NewStepTracker())
	require.ErrorIs(t, err, ErrNoToken)
	assert.Zero(t, opener.opens, "no stream should be opened without a token")
}

func TestSession_StreamOpenFailure(t *testing.T) {
	opener := &fakeOpener{err: errors.New("dial refused")}
	session := NewSession(&fakeTokens{token: "tok"}, opener, NewCancelBridge())

	_, err := session.Run(context.Background(), OpSync, "acc-1", NewStepTracker())
	require.ErrorContains(t, err, "dial refused")
}

func TestSession_MalformedEventsAreSkipped(t *testing.T) {
	src := newFakeSource()
	session := NewSession(&fakeTokens{token: "tok"}, &fakeOpener{src: src}, NewCancelBridge())
	tracker := NewStepTracker(OpSync.StepNames()...)

	src.events <- StreamEvent{Type: EventStep, Data: []byte(`{"step":0}`)}
	src.events <- StreamEvent{Type: "heartbeat", Data: []byte(`{}`)}
	src.events <- StreamEvent{Type: EventComplete, Data: []byte(`{"campaigns":1,"adSets":1,"creatives":1}`)}

	outcome, err := session.Run(context.Background(), OpSync, "acc-1", tracker)
	require.NoError(t, err)
	assert.Equal(t, Counts{Campaigns: 1, AdSets: 1, Creatives: 1}, outcome.Counts)

	for _, step := range tracker.Steps() {
		assert.Equal(t, StepPending, step.Status)
	}
}

func TestSession_LateCompleteWithinGraceWindowWins(t *testing.T) {
	src := newFakeSource()
	session := NewSession(&fakeTokens{token: "tok"}, &fakeOpener{src: src}, NewCancelBridge(),
		WithGraceWindow(200*time.Millisecond))
	tracker := NewStepTracker(OpSync.StepNames()...)

	// The transport drops first; the terminal event is still in flight.
	src.once.Do(func() { close(src.disconnected) })
	go func() {
		time.Sleep(30 * time.Millisecond)
		src.events <- StreamEvent{Type: EventComplete, Data: []byte(`{"campaigns":4,"adSets":8,"creatives":16}`)}
	}()

	outcome, err := session.Run(context.Background(), OpSync, "acc-1", tracker)
	require.NoError(t, err)
	assert.Equal(t, Counts{Campaigns: 4, AdSets: 8, Creatives: 16}, outcome.Counts)
}

func TestSession_TransportDropWithoutCompleteFailsAfterGrace(t *testing.T) {
	src := newFakeSource()
	session := NewSession(&fakeTokens{token: "tok"}, &fakeOpener{src: src}, NewCancelBridge(),
		WithGraceWindow(30*time.Millisecond))
	tracker := NewStepTracker(OpSync.StepNames()...)

	src.events <- StreamEvent{Type: EventStep, Data: []byte(`{"step":1,"name":"Campaigns"}`)}
	go func() {
		time.Sleep(10 * time.Millisecond)
		src.once.Do(func() { close(src.disconnected) })
	}()

	_, err := session.Run(context.Background(), OpSync, "acc-1", tracker)
	require.EqualError(t, err, "connection to sync service lost")

	steps := tracker.Steps()
	assert.Equal(t, StepError, steps[0].Status)
	assert.Equal(t, "connection to sync service lost", steps[0].Error)
}

func TestSession_DrainedStreamWithoutTerminalFailsAfterGrace(t *testing.T) {
	src := newFakeSource()
	session := NewSession(&fakeTokens{token: "tok"}, &fakeOpener{src: src}, NewCancelBridge(),
		WithGraceWindow(30*time.Millisecond))

	close(src.events)

	_, err := session.Run(context.Background(), OpSync, "acc-1", NewStepTracker(OpSync.StepNames()...))
	require.EqualError(t, err, "connection to sync service lost")
}

func TestSession_CancellationTakesPriorityOverTransportError(t *testing.T) {
	src := newFakeSource()
	bridge := NewCancelBridge()
	session := NewSession(&fakeTokens{token: "tok"}, &fakeOpener{src: src}, bridge,
		WithGraceWindow(30*time.Millisecond))

	// RequestCancel force-closes the bound stream, which manifests to the
	// session as a transport drop. The session must report cancellation,
	// not a connection error.
	go func() {
		time.Sleep(10 * time.Millisecond)
		bridge.RequestCancel()
	}()

	_, err := session.Run(context.Background(), OpSync, "acc-1", NewStepTracker(OpSync.StepNames()...))
	require.ErrorIs(t, err, ErrCancelled)
	assert.True(t, src.wasClosed())
}

func TestSession_CancelledBeforeStreamBindsClosesImmediately(t *testing.T) {
	src := newFakeSource()
	bridge := NewCancelBridge()
	bridge.RequestCancel()

	session := NewSession(&fakeTokens{token: "tok"}, &fakeOpener{src: src}, bridge,
		WithGraceWindow(30*time.Millisecond))

	_, err := session.Run(context.Background(), OpSync, "acc-1", NewStepTracker(OpSync.StepNames()...))
	require.ErrorIs(t, err, ErrCancelled)
	assert.True(t, src.wasClosed())
}

func TestSession_ContextCancellation(t *testing.T) {
	src := newFakeSource()
	session := NewSession(&fakeTokens{token: "tok"}, &fakeOpener{src: src}, NewCancelBridge())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := session.Run(ctx, OpSync, "acc-1", NewStepTracker(OpSync.StepNames()...))
	require.ErrorIs(t, err, context.Canceled)
}
