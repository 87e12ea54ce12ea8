package main

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/myrjola/dietplan/internal/program"
)

// requestState is the lifecycle of program generation for one patient and program kind:
// idle, then requesting, then succeeded or failed. A new request may start from any state except requesting.
type requestState int

const (
	stateIdle requestState = iota
	stateRequesting
	stateSucceeded
	stateFailed
)

func (s requestState) String() string {
	switch s {
	case stateRequesting:
		return "requesting"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	case stateIdle:
	}
	return "idle"
}

func (s requestState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *requestState) UnmarshalText(text []byte) error {
	for _, candidate := range []requestState{stateIdle, stateRequesting, stateSucceeded, stateFailed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown request state %q", text)
}

type requestKey struct {
	patientID string
	kind      program.ProgramKind
}

// maxFinishedStates bounds how many succeeded or failed outcomes are remembered. Older keys read as idle.
const maxFinishedStates = 4096

// requestTracker owns the request states so that the program service stays stateless. In-flight keys live in a
// map that shrinks as requests finish. Outcomes live in an LRU cache.
type requestTracker struct {
	mu       sync.Mutex
	inFlight map[requestKey]struct{}
	finished *lru.Cache[requestKey, requestState]
}

func newRequestTracker() *requestTracker {
	finished, err := lru.New[requestKey, requestState](maxFinishedStates)
	if err != nil {
		panic(err) // only fails for a non-positive size.
	}
	return &requestTracker{
		mu:       sync.Mutex{},
		inFlight: make(map[requestKey]struct{}),
		finished: finished,
	}
}

// begin moves the key to requesting. It returns false if a request for the same key is already in flight.
func (t *requestTracker) begin(patientID string, kind program.ProgramKind) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := requestKey{patientID: patientID, kind: kind}
	if _, ok := t.inFlight[key]; ok {
		return false
	}
	t.inFlight[key] = struct{}{}
	t.finished.Remove(key)
	return true
}

func (t *requestTracker) finish(patientID string, kind program.ProgramKind, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := requestKey{patientID: patientID, kind: kind}
	delete(t.inFlight, key)
	state := stateSucceeded
	if err != nil {
		state = stateFailed
	}
	t.finished.Add(key, state)
}

func (t *requestTracker) state(patientID string, kind program.ProgramKind) requestState {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := requestKey{patientID: patientID, kind: kind}
	if _, ok := t.inFlight[key]; ok {
		return stateRequesting
	}
	if state, ok := t.finished.Get(key); ok {
		return state
	}
	return stateIdle
}
