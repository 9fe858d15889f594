package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/go-test/deep"
)

func TestMemoryEngineGetPutDelete(t *testing.T) {
	ctx := context.Background()
	e := NewMemoryEngine()

	if _, err := e.Get(ctx, []byte("k")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty engine = %v, want ErrNotFound", err)
	}

	if err := e.Put(ctx, []byte("k"), []byte("v1")); err != nil {
		t.Fatalf("Put: %s", err)
	}

	got, err := e.Get(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	if diff := deep.Equal(got, []byte("v1")); diff != nil {
		t.Error(diff)
	}

	if err := e.Delete(ctx, []byte("k")); err != nil {
		t.Fatalf("Delete: %s", err)
	}
	if _, err := e.Get(ctx, []byte("k")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryEngineMultiGet(t *testing.T) {
	ctx := context.Background()
	e := NewMemoryEngine()

	if err := e.Put(ctx, []byte("a"), []byte("1")); err != nil {
		t.Fatalf("Put: %s", err)
	}
	if err := e.Put(ctx, []byte("c"), []byte("3")); err != nil {
		t.Fatalf("Put: %s", err)
	}

	got, err := e.MultiGet(ctx, [][]byte{[]byte("a"), []byte("b"), []byte("c")})
	if err != nil {
		t.Fatalf("MultiGet: %s", err)
	}

	want := [][]byte{[]byte("1"), nil, []byte("3")}
	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}

func TestMemoryEngineUpdateCommitsWrites(t *testing.T) {
	ctx := context.Background()
	e := NewMemoryEngine()

	err := e.Update(ctx, func(txn Txn) error {
		if _, err := txn.GetForUpdate([]byte("k")); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetForUpdate on fresh key = %v, want ErrNotFound", err)
		}
		return txn.Put([]byte("k"), []byte("v"))
	})
	if err != nil {
		t.Fatalf("Update: %s", err)
	}

	got, err := e.Get(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	if diff := deep.Equal(got, []byte("v")); diff != nil {
		t.Error(diff)
	}
}

func TestMemoryEngineUpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	e := NewMemoryEngine()
	sentinel := errors.New("handler failed")

	err := e.Update(ctx, func(txn Txn) error {
		if err := txn.Put([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Update error = %v, want %v", err, sentinel)
	}

	if _, err := e.Get(ctx, []byte("k")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after rolled-back Update = %v, want ErrNotFound", err)
	}
}
