package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tkellan/vcgame/internal/fileutil"
)

const resultFileVersion = 1

// Result is the terminal artefact of a Run: the cover it settled on plus
// enough metadata to judge, without re-running anything, whether it
// converged and under which algorithm.
type Result struct {
	Version     int       `json:"version"`
	Algorithm   string    `json:"algorithm"`
	N           int       `json:"n"`
	Iterations  int       `json:"iterations"`
	Converged   bool      `json:"converged"`
	Cover       []int     `json:"cover"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewResult builds a Result from a settled GameState. iteration is the
// value Run returned: -1 means the iteration budget was exhausted without
// reaching StreakThreshold, anything else is the converging iteration.
func NewResult(gs *GameState, algorithm Algorithm, iteration int, generatedAt time.Time) *Result {
	return &Result{
		Version:     resultFileVersion,
		Algorithm:   algorithm.String(),
		N:           gs.graph.N(),
		Iterations:  iteration,
		Converged:   iteration >= 0,
		Cover:       gs.Cover(),
		GeneratedAt: generatedAt,
	}
}

// Save writes the result to disk atomically.
func (r *Result) Save(path string) error {
	if r == nil {
		return errors.New("engine: nil result")
	}
	if path == "" {
		return errors.New("engine: destination path is required")
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("engine: encode result: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// LoadResult reads a result previously written by Save.
func LoadResult(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("engine: decode result: %w", err)
	}
	if r.Version != resultFileVersion {
		return nil, errors.New("engine: unsupported result version")
	}
	return &r, nil
}
