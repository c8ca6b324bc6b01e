package sync

import "sync"

type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepLoading StepStatus = "loading"
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
)

// Step is one named phase of a session (e.g. "Campaigns"). Total stays 0
// until the server reports one; a completed step freezes Total = Count.
type Step struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Count  int        `json:"count"`
	Total  int        `json:"total"`
	Error  string     `json:"error,omitempty"`
}

// Aggregate is the cross-step item summary, recomputed from the entire step
// list on every mutation. Incremental updates would double count when a
// step-complete retroactively rewrites a step's total.
type Aggregate struct {
	TotalItems  int `json:"total_items"`
	SyncedItems int `json:"synced_items"`
}

// StepTracker holds the ordered step list for one session. Writes come from
// the session goroutine, reads from status handlers, hence the lock.
type StepTracker struct {
	mu      sync.RWMutex
	steps   []Step
	agg     Aggregate
	current int
}

func NewStepTracker(names ...string) *StepTracker {
	t := &StepTracker{steps: make([]Step, 0, len(names))}
	for _, name := range names {
		t.steps = append(t.steps, Step{Name: name, Status: StepPending})
	}
	return t
}

// Begin marks step index as loading and flags it current for error
// attribution. The server may rename a step mid-flight.
func (t *StepTracker) Begin(index int, name string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ensure(index)
	step := &t.steps[index]
	step.Status = StepLoading
	if name != "" {
		step.Name = name
	}
	if total > 0 {
		step.Total = total
	}
	t.current = index
	t.recompute()
}

// Progress applies a partial count. A progress event for a step never marked
// loading still applies; events race and none are rejected as out of order.
func (t *StepTracker) Progress(index, current, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ensure(index)
	step := &t.steps[index]
	if step.Status == StepPending {
		step.Status = StepLoading
	}
	step.Count = current
	if total > 0 {
		step.Total = total
	}
	t.recompute()
}

// Complete marks step index success and freezes its total at the final count.
func (t *StepTracker) Complete(index int, name string, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ensure(index)
	step := &t.steps[index]
	step.Status = StepSuccess
	if name != "" {
		step.Name = name
	}
	step.Count = count
	step.Total = count
	t.recompute()
}

// FailCurrent marks the current step (the last one begun) as errored.
func (t *StepTracker) FailCurrent(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ensure(t.current)
	step := &t.steps[t.current]
	step.Status = StepError
	step.Error = message
	t.recompute()
}

// Steps returns a copy of the step list.
func (t *StepTracker) Steps() []Step {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

func (t *StepTracker) Aggregate() Aggregate {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.agg
}

// ensure grows the step list so index is addressable. The server decides how
// many phases exist; an index past the preset list is not an error.
func (t *StepTracker) ensure(index int) {
	for len(t.steps) <= index {
		t.steps = append(t.steps, Step{Status: StepPending})
	}
}

// recompute derives the aggregate from the whole list. Callers hold the lock.
func (t *StepTracker) recompute() {
	agg := Aggregate{}
	for _, step := range t.steps {
		if step.Total > 0 {
			agg.TotalItems += step.Total
		} else {
			agg.TotalItems += step.Count
		}
		if step.Status == StepLoading || step.Status == StepSuccess {
			agg.SyncedItems += step.Count
		}
	}
	t.agg = agg
}
