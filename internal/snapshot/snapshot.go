// Package snapshot persists a single gob file holding the WAL sequence
// marker and restores it on startup; scanning leftover WAL segments is done
// by the caller. Generalises controller/keeper.go's storage.gob half: since the
// real payload bytes live in badger (crash-safe on its own), what gets
// snapshotted here is the last-applied WAL sequence id, not engine pages.
package snapshot

import (
	"encoding/gob"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/karashiiro/wedis/internal/log"
)

const fileName = "storage.gob"

// State is the single fact a snapshot needs to capture: how far into the
// WAL stream badger's data already reflects.
type State struct {
	LastID int64
}

// Load reads the snapshot file in dataDir, returning a zero State (LastID
// 0) if none exists yet.
func Load(dataDir string) (State, error) {
	path := filepath.Join(dataDir, fileName)
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer file.Close()

	log.Infof("loading snapshot from %s", path)

	var s State
	if err := gob.NewDecoder(file).Decode(&s); err != nil {
		return State{}, fmt.Errorf("snapshot: decode %s: %w", path, err)
	}
	return s, nil
}

// Save writes s to dataDir atomically (write to a temp file, then rename).
func Save(dataDir string, s State) error {
	path := filepath.Join(dataDir, fileName)

	file, err := ioutil.TempFile(dataDir, fileName)
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(s); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}

	if err := os.Rename(file.Name(), path); err != nil {
		return fmt.Errorf("snapshot: rename into place: %w", err)
	}

	return nil
}
