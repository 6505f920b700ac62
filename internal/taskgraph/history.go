// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

// historyVersion is bumped whenever the fingerprint scheme changes. A file
// with another version is discarded.
const historyVersion = 1

var (
	// encMode uses Core Deterministic Encoding so an unchanged history
	// serializes to identical bytes.
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("taskgraph: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("taskgraph: CBOR decoder initialization failed: " + err.Error())
	}
}

type (
	// Record is what the engine remembers about a step's last execution.
	Record struct {
		Inputs  Fingerprint `cbor:"1,keyasint"`
		Outputs Fingerprint `cbor:"2,keyasint"`
	}

	// History maps step names to their last execution record.
	History struct {
		Version int               `cbor:"1,keyasint"`
		Steps   map[string]Record `cbor:"2,keyasint"`
	}
)

func newHistory() *History {
	return &History{Version: historyVersion, Steps: make(map[string]Record)}
}

// LoadHistory reads the history file at path. A missing, unreadable or
// outdated file yields an empty history; only I/O errors other than
// "not found" are returned.
func LoadHistory(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return newHistory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read step history: %w", err)
	}
	var h History
	if err := decMode.Unmarshal(data, &h); err != nil || h.Version != historyVersion || h.Steps == nil {
		return newHistory(), nil
	}
	return &h, nil
}

// Save writes the history to path, creating parent directories.
func (h *History) Save(path string) error {
	data, err := encMode.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode step history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create step history directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
