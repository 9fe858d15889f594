// Package wal is a write-ahead log of committed mutating commands: segment
// files of gob-encoded records, buffered and flushed under a configurable
// sync policy, kept alongside badger's own crash safety as a parity and
// audit trail rather than the primary recovery path.
package wal

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SyncPolicy controls how aggressively the WAL file is flushed to disk.
type SyncPolicy int

const (
	// SyncNever never calls File.Sync explicitly.
	SyncNever SyncPolicy = iota
	// SyncSometimes calls File.Sync at most once per second.
	SyncSometimes
	// SyncAlways calls File.Sync after every write.
	SyncAlways
)

const (
	walFilePattern = "wal_%d.dat"
	walBufferSize  = 4096
)

// record is the unit gob encodes into the WAL; a plain command argument
// vector plus its monotonic sequence id.
type record struct {
	ID   int64
	Args [][]byte
}

// Log appends committed command argument vectors to a buffered, gob-encoded
// file, following controller/keeper.go's Keeper.WriteToWal/writeToWalWorker.
type Log struct {
	dataDir string
	policy  SyncPolicy

	mu       sync.Mutex
	lastID   int64
	file     *os.File
	buffer   *bufio.Writer
	encoder  *gob.Encoder
	lastSync time.Time
}

// Open starts a fresh WAL segment in dataDir, numbered one past startID
// (the highest id already reflected in the loaded snapshot).
func Open(dataDir string, policy SyncPolicy, startID int64) (*Log, error) {
	l := &Log{dataDir: dataDir, policy: policy, lastID: startID}
	if err := l.rotate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Write appends args to the log under a fresh sequence id.
func (l *Log) Write(args [][]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastID++
	if err := l.encoder.Encode(record{ID: l.lastID, Args: args}); err != nil {
		return fmt.Errorf("wal: encode: %w", err)
	}

	if l.policy == SyncAlways || time.Since(l.lastSync) > time.Second {
		if err := l.buffer.Flush(); err != nil {
			return fmt.Errorf("wal: flush: %w", err)
		}
		if l.policy == SyncAlways || l.policy == SyncSometimes {
			if err := l.file.Sync(); err != nil {
				return fmt.Errorf("wal: sync: %w", err)
			}
		}
		l.lastSync = time.Now()
	}

	return nil
}

// Rotate flushes and closes the current segment and opens a new one, naming
// it after the next sequence id; it returns the path of the segment just
// closed so the snapshot merger can process and remove it.
func (l *Log) Rotate() (closedPath string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	closedPath = l.file.Name()
	if err := l.rotate(); err != nil {
		return "", err
	}
	return closedPath, nil
}

func (l *Log) rotate() error {
	l.lastID++
	filename := l.segmentPath(l.lastID)
	if _, err := os.Stat(filename); !os.IsNotExist(err) {
		return fmt.Errorf("wal: segment already exists: %s", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("wal: create segment: %w", err)
	}

	if l.file != nil {
		l.buffer.Flush()
		l.file.Close()
	}

	l.file = file
	l.buffer = bufio.NewWriterSize(file, walBufferSize)
	l.encoder = gob.NewEncoder(l.buffer)
	return nil
}

// Close flushes and closes the current segment, then removes it: every
// record in it was already committed to the engine, so the segment has no
// further use once the server stops.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := l.file.Name()
	l.buffer.Flush()
	l.file.Close()
	return os.Remove(name)
}

func (l *Log) segmentPath(id int64) string {
	return filepath.Join(l.dataDir, fmt.Sprintf(walFilePattern, id))
}

// LastID returns the most recently issued sequence id. Records and segment
// names draw from the same counter, so after Open or Rotate this is the id
// of the current segment rather than of a written record.
func (l *Log) LastID() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastID
}

// CurrentPath returns the path of the segment currently being written.
func (l *Log) CurrentPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Name()
}

// Segments returns every WAL segment file currently in dataDir.
func Segments(dataDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dataDir, "wal_*.dat"))
	if err != nil {
		return nil, fmt.Errorf("wal: glob segments: %w", err)
	}
	return matches, nil
}

// ScanMaxID decodes every record in path and returns the highest sequence
// id found, without applying anything. Badger already committed every
// record here before it was ever appended to the WAL, so replaying these
// commands again at startup would double-apply non-idempotent ones like
// INCR. The WAL is kept for parity and audit, not as the path back to a
// consistent state; this scan exists only so a restarted server resumes the
// id sequence correctly.
func ScanMaxID(path string) (lastID int64, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("wal: open segment %s: %w", path, err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	for {
		var rec record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return lastID, fmt.Errorf("wal: decode segment %s: %w", path, err)
		}
		if rec.ID > lastID {
			lastID = rec.ID
		}
	}

	return lastID, nil
}
