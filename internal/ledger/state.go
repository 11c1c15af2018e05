package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"CandleView/internal/model"
)

// LoadState reads the ledger from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*model.LedgerState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.LedgerState{}, nil
		}
		return nil, err
	}
	var state model.LedgerState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the ledger to a JSON file, creating its directory.
func SaveState(filePath string, state *model.LedgerState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0644)
}
