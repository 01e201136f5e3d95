package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"GridOptimizer/internal/model"
)

// SymbolState is what the optimizer remembers for one symbol between runs.
type SymbolState struct {
	Baseline       *model.PhaseBaseline `json:"baseline,omitempty"`
	Recommendation *model.SavedConfig   `json:"recommendation,omitempty"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// State is the on-disk session file.
type State struct {
	Symbols   map[string]*SymbolState `json:"symbols"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// LoadState reads the state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Symbols: map[string]*SymbolState{}}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Symbols == nil {
		state.Symbols = map[string]*SymbolState{}
	}
	return &state, nil
}

// SaveState writes the state through a temp file and rename so a crash never leaves a
// truncated file behind.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filePath)
}
