package merge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/javanhut/mygit/internal/cas"
	"github.com/javanhut/mygit/internal/store"
)

const stateKey = "state"

// State describes a conflicted merge waiting to be committed or aborted.
type State struct {
	ID          string    `json:"id"`
	Into        string    `json:"into"`
	Branch      string    `json:"branch"`
	IncomingTip string    `json:"incoming_tip"`
	Base        string    `json:"base"`
	Strategy    Strategy  `json:"strategy"`
	Conflicts   []string  `json:"conflicts"`
	StartedAt   time.Time `json:"started_at"`
}

// Incoming returns the incoming tip as a fingerprint.
func (s *State) Incoming() (cas.Hash, error) {
	return cas.ParseHash(s.IncomingTip)
}

func newState(into, branch string, incoming, base cas.Hash, strategy Strategy, conflicts []string, now time.Time) *State {
	return &State{
		ID:          uuid.NewString(),
		Into:        into,
		Branch:      branch,
		IncomingTip: incoming.String(),
		Base:        base.String(),
		Strategy:    strategy,
		Conflicts:   conflicts,
		StartedAt:   now.UTC(),
	}
}

func saveState(db *store.DB, s *State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode merge state: %w", err)
	}
	return db.Put(store.BucketMerge, stateKey, string(data))
}

func loadState(db *store.DB) (*State, bool, error) {
	raw, ok, err := db.Get(store.BucketMerge, stateKey)
	if err != nil || !ok {
		return nil, false, err
	}
	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, false, fmt.Errorf("decode merge state: %w", err)
	}
	return &s, true, nil
}

func clearState(db *store.DB) error {
	return db.Delete(store.BucketMerge, stateKey)
}
