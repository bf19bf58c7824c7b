package governor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/MaxProspero/permanence-os-sub000/core"
)

// EpisodicStore persists one JSON document per task attempt, keyed by
// task_id. The design assumes at most one writer per task_id; concurrent
// attempts on the same id are prevented by generating a fresh id per
// attempt.
type EpisodicStore struct {
	dir string
}

// NewEpisodicStore creates a store rooted at dir.
func NewEpisodicStore(dir string) *EpisodicStore {
	return &EpisodicStore{dir: dir}
}

func (s *EpisodicStore) path(taskID string) string {
	return filepath.Join(s.dir, taskID+".json")
}

// Save serializes the full SystemState, enums rendered as their string
// values.
func (s *EpisodicStore) Save(state *core.SystemState) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create episodic dir: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state %s: %w", state.TaskID, err)
	}
	if err := os.WriteFile(s.path(state.TaskID), data, 0o644); err != nil {
		return fmt.Errorf("write state %s: %w", state.TaskID, err)
	}
	return nil
}

// Load reads a previously persisted state snapshot.
func (s *EpisodicStore) Load(taskID string) (*core.SystemState, error) {
	data, err := os.ReadFile(s.path(taskID))
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", taskID, err)
	}
	var state core.SystemState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state %s: %w", taskID, err)
	}
	return &state, nil
}

// List returns the task ids with persisted snapshots, newest file first.
func (s *EpisodicStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		ids = append(ids, e.Name()[:len(e.Name())-len(".json")])
	}
	// Task ids sort chronologically; ReadDir is ascending.
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}
