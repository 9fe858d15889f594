package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-test/deep"

	"github.com/karashiiro/wedis/internal/engine"
)

func newTestStorage() *Storage {
	return New(engine.NewMemoryEngine())
}

func TestPutGetStringRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage()

	if err := s.PutString(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("PutString: %s", err)
	}

	value, found, err := s.GetString(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("GetString: %s", err)
	}
	if !found {
		t.Fatal("GetString: not found")
	}
	if diff := deep.Equal(value, []byte("v")); diff != nil {
		t.Error(diff)
	}

	if _, found, err := s.GetHashField(ctx, []byte("k"), []byte("f")); err == nil {
		t.Fatal("GetHashField on a string key should be WrongType")
	} else {
		var wte *WrongTypeError
		if !errors.As(err, &wte) {
			t.Errorf("GetHashField error = %v, want *WrongTypeError", err)
		}
		_ = found
	}
}

func TestGetStringMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage()

	value, found, err := s.GetString(ctx, []byte("nope"))
	if err != nil {
		t.Fatalf("GetString: %s", err)
	}
	if found || value != nil {
		t.Errorf("GetString(missing) = (%v, %v), want (nil, false)", value, found)
	}
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage()

	n, err := s.Append(ctx, []byte("k"), []byte("foo"))
	if err != nil {
		t.Fatalf("Append: %s", err)
	}
	if n != 3 {
		t.Errorf("Append on absent key = %d, want 3", n)
	}

	n, err = s.Append(ctx, []byte("k"), []byte("bar"))
	if err != nil {
		t.Fatalf("Append: %s", err)
	}
	if n != 6 {
		t.Errorf("Append = %d, want 6", n)
	}

	value, _, err := s.GetString(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("GetString: %s", err)
	}
	if diff := deep.Equal(value, []byte("foobar")); diff != nil {
		t.Error(diff)
	}
}

func TestIncrementByInt(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage()

	if err := s.PutString(ctx, []byte("counter"), []byte("10")); err != nil {
		t.Fatalf("PutString: %s", err)
	}

	got, err := s.IncrementByInt(ctx, []byte("counter"), 3)
	if err != nil {
		t.Fatalf("IncrementByInt: %s", err)
	}
	if got != 13 {
		t.Errorf("IncrementByInt(+3) = %d, want 13", got)
	}

	got, err = s.IncrementByInt(ctx, []byte("counter"), -1)
	if err != nil {
		t.Fatalf("IncrementByInt: %s", err)
	}
	if got != 12 {
		t.Errorf("IncrementByInt(-1) = %d, want 12", got)
	}
}

func TestIncrementByIntOverflow(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage()

	if err := s.PutString(ctx, []byte("k"), []byte("9223372036854775807")); err != nil {
		t.Fatalf("PutString: %s", err)
	}

	if _, err := s.IncrementByInt(ctx, []byte("k"), 1); !errors.Is(err, ErrIntegerOverflow) {
		t.Errorf("IncrementByInt overflow = %v, want ErrIntegerOverflow", err)
	}
}

func TestIncrementByIntWrongFormat(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage()

	if err := s.PutString(ctx, []byte("k"), []byte("not-a-number")); err != nil {
		t.Fatalf("PutString: %s", err)
	}

	if _, err := s.IncrementByInt(ctx, []byte("k"), 1); !errors.Is(err, ErrWrongFormat) {
		t.Errorf("IncrementByInt = %v, want ErrWrongFormat", err)
	}
}

func TestIncrementByFloat(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage()

	if err := s.PutString(ctx, []byte("k"), []byte("10.5")); err != nil {
		t.Fatalf("PutString: %s", err)
	}

	got, err := s.IncrementByFloat(ctx, []byte("k"), 0.1)
	if err != nil {
		t.Fatalf("IncrementByFloat: %s", err)
	}
	if got != 10.6 {
		t.Errorf("IncrementByFloat = %v, want 10.6", got)
	}
}

func TestPutHashFieldsCountsNewFieldsOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage()

	n, err := s.PutHashFields(ctx, []byte("h"), [][2][]byte{
		{[]byte("f1"), []byte("v1")},
		{[]byte("f2"), []byte("v2")},
	})
	if err != nil {
		t.Fatalf("PutHashFields: %s", err)
	}
	if n != 2 {
		t.Errorf("PutHashFields(new hash) = %d, want 2", n)
	}

	n, err = s.PutHashFields(ctx, []byte("h"), [][2][]byte{
		{[]byte("f1"), []byte("updated")},
		{[]byte("f3"), []byte("v3")},
	})
	if err != nil {
		t.Fatalf("PutHashFields: %s", err)
	}
	if n != 1 {
		t.Errorf("PutHashFields(overwrite+new) = %d, want 1", n)
	}

	value, found, err := s.GetHashField(ctx, []byte("h"), []byte("f2"))
	if err != nil {
		t.Fatalf("GetHashField: %s", err)
	}
	if !found {
		t.Fatal("GetHashField(f2) not found")
	}
	if diff := deep.Equal(value, []byte("v2")); diff != nil {
		t.Error(diff)
	}
}

func TestPutHashFieldsThenPutStringIsWrongType(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage()

	if _, err := s.PutHashFields(ctx, []byte("h"), [][2][]byte{{[]byte("f1"), []byte("v1")}}); err != nil {
		t.Fatalf("PutHashFields: %s", err)
	}
	if err := s.PutString(ctx, []byte("h"), []byte("plain")); err != nil {
		t.Fatalf("PutString: %s", err)
	}

	if _, _, err := s.GetHashField(ctx, []byte("h"), []byte("f1")); err == nil {
		t.Fatal("GetHashField after overwrite-with-string should be WrongType")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage()

	if err := s.PutString(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("PutString: %s", err)
	}

	removed, err := s.Delete(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("Delete: %s", err)
	}
	if removed != 1 {
		t.Errorf("first Delete = %d, want 1", removed)
	}

	removed, err = s.Delete(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("Delete: %s", err)
	}
	if removed != 0 {
		t.Errorf("second Delete = %d, want 0", removed)
	}
}

func TestExpiryLazyExpiration(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage()

	if err := s.PutString(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("PutString: %s", err)
	}
	if _, err := s.PutExpiryConditional(ctx, []byte("k"), -time.Second, ExpireNone); err != nil {
		t.Fatalf("PutExpiryConditional: %s", err)
	}

	if found, err := s.Exists(ctx, []byte("k")); err != nil || found != 0 {
		t.Errorf("Exists(expired) = (%d, %v), want (0, nil)", found, err)
	}

	if value, found, err := s.GetString(ctx, []byte("k")); err != nil || found || value != nil {
		t.Errorf("GetString(expired) = (%v, %v, %v), want (nil, false, nil)", value, found, err)
	}
}

func TestExpiryConditions(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage()

	if err := s.PutString(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("PutString: %s", err)
	}

	written, err := s.PutExpiryConditional(ctx, []byte("k"), 100*time.Second, ExpireXX)
	if err != nil {
		t.Fatalf("PutExpiryConditional(XX, no ttl yet): %s", err)
	}
	if written {
		t.Error("XX should not write when no TTL is set yet")
	}

	written, err = s.PutExpiryConditional(ctx, []byte("k"), 100*time.Second, ExpireNone)
	if err != nil {
		t.Fatalf("PutExpiryConditional: %s", err)
	}
	if !written {
		t.Error("unconditional expiry write should succeed")
	}

	written, err = s.PutExpiryConditional(ctx, []byte("k"), 50*time.Second, ExpireGT)
	if err != nil {
		t.Fatalf("PutExpiryConditional(GT, smaller): %s", err)
	}
	if written {
		t.Error("GT should not write a smaller TTL")
	}

	written, err = s.PutExpiryConditional(ctx, []byte("k"), 200*time.Second, ExpireGT)
	if err != nil {
		t.Fatalf("PutExpiryConditional(GT, larger): %s", err)
	}
	if !written {
		t.Error("GT should write a larger TTL")
	}

	remaining, hasTTL, err := s.GetExpiry(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("GetExpiry: %s", err)
	}
	if !hasTTL {
		t.Fatal("GetExpiry: expected a TTL to be set")
	}
	if remaining <= 190*time.Second {
		t.Errorf("GetExpiry remaining = %s, want close to 200s", remaining)
	}

	removed, err := s.DeleteExpiry(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("DeleteExpiry: %s", err)
	}
	if removed != 1 {
		t.Errorf("DeleteExpiry = %d, want 1", removed)
	}

	_, hasTTL, err = s.GetExpiry(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("GetExpiry: %s", err)
	}
	if hasTTL {
		t.Error("GetExpiry after DeleteExpiry should report no TTL")
	}
}
