package wal

import (
	"os"
	"testing"

	"github.com/go-test/deep"
)

func tempDataDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "wedis-wal-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestWriteThenCloseRemovesSegment(t *testing.T) {
	dir := tempDataDir(t)

	l, err := Open(dir, SyncAlways, 0)
	if err != nil {
		t.Fatal(err)
	}

	if err := l.Write([][]byte{[]byte("SET"), []byte("a"), []byte("1")}); err != nil {
		t.Fatal(err)
	}
	if err := l.Write([][]byte{[]byte("SET"), []byte("b"), []byte("2")}); err != nil {
		t.Fatal(err)
	}

	path := l.CurrentPath()
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("Close should remove its own segment, got stat err %v", err)
	}
}

func TestRotateKeepsSequence(t *testing.T) {
	dir := tempDataDir(t)

	l, err := Open(dir, SyncNever, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	if err := l.Write([][]byte{[]byte("SET"), []byte("a"), []byte("1")}); err != nil {
		t.Fatal(err)
	}
	firstPath := l.CurrentPath()

	closedPath, err := l.Rotate()
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(closedPath, firstPath); diff != nil {
		t.Fatal(diff)
	}

	maxID, err := ScanMaxID(closedPath)
	if err != nil {
		t.Fatal(err)
	}
	// Open took id 1 for the first segment's name, so the first record is 2.
	if maxID != 2 {
		t.Fatalf("expected max id 2, got %d", maxID)
	}

	if err := l.Write([][]byte{[]byte("SET"), []byte("b"), []byte("2")}); err != nil {
		t.Fatal(err)
	}

	segments, err := Segments(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d: %v", len(segments), segments)
	}
}
