// Package results persists final game summaries as JSON files, one file per
// finished game. Live game state is never written anywhere.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"quizroom/internal/game"
)

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save writes the summary to <dir>/<pin>-<endedAt>.json. The timestamp in
// the name keeps rematches on the same PIN from clobbering each other.
func (st *Store) Save(s game.Summary) error {
	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	endedAt := s.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now().UTC()
	}
	name := fmt.Sprintf("%s-%s.json", s.Pin, endedAt.Format("20060102T150405"))
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(st.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// Load reads one saved summary back; used by tooling and tests.
func (st *Store) Load(name string) (game.Summary, error) {
	var s game.Summary
	data, err := os.ReadFile(filepath.Join(st.dir, name))
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to decode summary: %w", err)
	}
	return s, nil
}

// List returns the file names of all saved summaries, newest last.
func (st *Store) List() ([]string, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
