package sync

import (
	"encoding/json"
	"fmt"
)

// Event names emitted by the sync service stream.
const (
	EventStart        = "start"
	EventStep         = "step"
	EventProgress     = "progress"
	EventStepComplete = "step-complete"
	EventComplete     = "complete"
	EventError        = "error"
)

// StreamEvent is one decoded server-push event. Arrival order is
// authoritative; the wire carries no sequence numbers.
type StreamEvent struct {
	Type string
	Data []byte
}

// Counts is the result payload of a successful sync session.
type Counts struct {
	Campaigns int `json:"campaigns"`
	AdSets    int `json:"adSets"`
	Creatives int `json:"creatives"`
}

type startPayload struct {
	Message string `json:"message"`
	Note    string `json:"note,omitempty"`
}

// The wire uses 1-based step numbers. Conversion to 0-based indices happens
// here and nowhere else; tracker and session only ever see indices.
type stepPayload struct {
	Step  int    `json:"step"`
	Name  string `json:"name"`
	Total int    `json:"total,omitempty"`
}

type progressPayload struct {
	Step    int `json:"step"`
	Current int `json:"current"`
	Total   int `json:"total"`
}

type stepCompletePayload struct {
	Step  int    `json:"step"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func decodeStart(data []byte) (message, note string, err error) {
	var p startPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", "", fmt.Errorf("decoding start event: %w", err)
	}
	return p.Message, p.Note, nil
}

func decodeStep(data []byte) (index int, name string, total int, err error) {
	var p stepPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, "", 0, fmt.Errorf("decoding step event: %w", err)
	}
	if p.Step < 1 {
		return 0, "", 0, fmt.Errorf("step event carries invalid step number %d", p.Step)
	}
	return p.Step - 1, p.Name, p.Total, nil
}

func decodeProgress(data []byte) (index, current, total int, err error) {
	var p progressPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, 0, 0, fmt.Errorf("decoding progress event: %w", err)
	}
	if p.Step < 1 {
		return 0, 0, 0, fmt.Errorf("progress event carries invalid step number %d", p.Step)
	}
	return p.Step - 1, p.Current, p.Total, nil
}

func decodeStepComplete(data []byte) (index int, name string, count int, err error) {
	var p stepCompletePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, "", 0, fmt.Errorf("decoding step-complete event: %w", err)
	}
	if p.Step < 1 {
		return 0, "", 0, fmt.Errorf("step-complete event carries invalid step number %d", p.Step)
	}
	return p.Step - 1, p.Name, p.Count, nil
}

func decodeError(data []byte) string {
	var p errorPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Message == "" {
		return "sync service reported an error"
	}
	return p.Message
}
