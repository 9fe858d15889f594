// Package storage implements the typed, expiring, transactional data layer:
// the heart of the server. One logical key is projected onto three physical
// records (type tag, payload, absolute expiry) in an ordered transactional
// engine, and every read-modify-write operation below follows the same
// discipline: begin a transaction, get-for-update the triple, evaluate TTL,
// validate the type tag, compute the new payload, and commit.
package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mshaverdo/assert"

	"github.com/karashiiro/wedis/internal/clock"
	"github.com/karashiiro/wedis/internal/engine"
)

// Storage is the typed KV layer over an engine.Engine. It never holds state
// of its own beyond the engine handle; all durability and locking is
// delegated to the engine.
type Storage struct {
	engine engine.Engine
}

// New wraps an engine.Engine in the typed storage layer.
func New(e engine.Engine) *Storage {
	return &Storage{engine: e}
}

// triple is the decoded view of one logical key's three physical records,
// after lazy-expiry evaluation.
type triple struct {
	tag     byte
	hasTag  bool
	data    []byte
	hasData bool
	ttl     []byte
	hasTTL  bool
}

// readTriple reads all three physical records for k inside txn and applies
// lazy expiry: a key whose T:K has passed is reported as absent regardless
// of what t:K/d:K still hold.
func readTriple(txn engine.Txn, k []byte) (triple, error) {
	var t triple

	if tag, err := txn.GetForUpdate(typeKey(k)); err == nil {
		t.hasTag = true
		if len(tag) > 0 {
			t.tag = tag[0]
		}
	} else if err != engine.ErrNotFound {
		return triple{}, storeError(err)
	}

	if data, err := txn.GetForUpdate(dataKey(k)); err == nil {
		t.hasData = true
		t.data = data
	} else if err != engine.ErrNotFound {
		return triple{}, storeError(err)
	}

	if ttlRaw, err := txn.GetForUpdate(ttlKey(k)); err == nil {
		t.hasTTL = true
		t.ttl = ttlRaw
	} else if err != engine.ErrNotFound {
		return triple{}, storeError(err)
	}

	if t.hasTTL {
		absolute, err := clock.DecodeAbsoluteMs(t.ttl)
		if err != nil {
			return triple{}, storeError(err)
		}
		expired, err := clock.IsExpired(absolute)
		if err != nil {
			return triple{}, storeError(err)
		}
		if expired {
			t.hasTag, t.hasData, t.hasTTL = false, false, false
			t.data, t.ttl = nil, nil
		}
	}

	return t, nil
}

// clearTTL deletes T:K; mutating writes clear any existing TTL unless the
// write is itself a TTL write (this mirrors how SET without an expiry
// option resets a key's TTL in real Redis).
func clearTTL(txn engine.Txn, k []byte) error {
	if err := txn.Delete(ttlKey(k)); err != nil {
		return storeError(err)
	}
	return nil
}

func writeString(txn engine.Txn, k, v []byte) error {
	if err := txn.Put(typeKey(k), []byte{TagString}); err != nil {
		return storeError(err)
	}
	if err := txn.Put(dataKey(k), v); err != nil {
		return storeError(err)
	}
	return clearTTL(txn, k)
}

// GetString reads the current value of K as a raw byte string. found is
// false both when K is absent and when it has expired.
func (s *Storage) GetString(ctx context.Context, k []byte) (value []byte, found bool, err error) {
	err = s.engine.Update(ctx, func(txn engine.Txn) error {
		t, terr := readTriple(txn, k)
		if terr != nil {
			return terr
		}
		if !t.hasTag {
			return nil
		}
		if t.tag != TagString {
			return wrongType(TagString)
		}
		value, found = t.data, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// PutString sets K to V unconditionally, overwriting any prior type or TTL.
func (s *Storage) PutString(ctx context.Context, k, v []byte) error {
	return s.engine.Update(ctx, func(txn engine.Txn) error {
		return writeString(txn, k, v)
	})
}

// Append appends v to K's current string value (treating an absent key as
// empty) and returns the new total length. A non-string existing value is
// WrongType.
func (s *Storage) Append(ctx context.Context, k, v []byte) (newLength int, err error) {
	err = s.engine.Update(ctx, func(txn engine.Txn) error {
		t, terr := readTriple(txn, k)
		if terr != nil {
			return terr
		}
		if t.hasTag && t.tag != TagString {
			return wrongType(TagString)
		}

		combined := append(append([]byte{}, t.data...), v...)
		if werr := writeString(txn, k, combined); werr != nil {
			return werr
		}
		newLength = len(combined)
		return nil
	})
	return newLength, err
}

// IncrementByInt parses K's current value (defaulting to "0" when absent)
// as a signed 64-bit decimal integer, adds delta with overflow checking,
// and writes the result back as ASCII decimal, clearing any TTL.
func (s *Storage) IncrementByInt(ctx context.Context, k []byte, delta int64) (result int64, err error) {
	err = s.engine.Update(ctx, func(txn engine.Txn) error {
		t, terr := readTriple(txn, k)
		if terr != nil {
			return terr
		}
		if t.hasTag && t.tag != TagString {
			return wrongType(TagString)
		}

		current := int64(0)
		if t.hasData {
			parsed, perr := strconv.ParseInt(string(t.data), 10, 64)
			if perr != nil {
				return ErrWrongFormat
			}
			current = parsed
		}

		sum := current + delta
		if (delta > 0 && sum < current) || (delta < 0 && sum > current) {
			return ErrIntegerOverflow
		}

		if werr := writeString(txn, k, []byte(strconv.FormatInt(sum, 10))); werr != nil {
			return werr
		}
		result = sum
		return nil
	})
	return result, err
}

// IncrementByFloat is IncrementByInt's floating-point counterpart.
func (s *Storage) IncrementByFloat(ctx context.Context, k []byte, delta float64) (result float64, err error) {
	err = s.engine.Update(ctx, func(txn engine.Txn) error {
		t, terr := readTriple(txn, k)
		if terr != nil {
			return terr
		}
		if t.hasTag && t.tag != TagString {
			return wrongType(TagString)
		}

		current := float64(0)
		if t.hasData {
			parsed, perr := strconv.ParseFloat(string(t.data), 64)
			if perr != nil {
				return ErrWrongFormat
			}
			current = parsed
		}

		sum := current + delta
		formatted := strconv.FormatFloat(sum, 'f', -1, 64)
		if werr := writeString(txn, k, []byte(formatted)); werr != nil {
			return werr
		}
		result, err = strconv.ParseFloat(formatted, 64)
		return err
	})
	return result, err
}

// PutHashFields merges pairs into K's hash, creating it if absent, and
// returns the count of fields that were newly created (matching real
// Redis's HSET return value). A non-hash existing value is WrongType.
func (s *Storage) PutHashFields(ctx context.Context, k []byte, pairs [][2][]byte) (newFields int, err error) {
	err = s.engine.Update(ctx, func(txn engine.Txn) error {
		t, terr := readTriple(txn, k)
		if terr != nil {
			return terr
		}
		if t.hasTag && t.tag != TagHash {
			return wrongType(TagHash)
		}

		fields := map[string][]byte{}
		if t.hasData {
			decoded, derr := decodeHash(t.data)
			if derr != nil {
				return storeError(derr)
			}
			fields = decoded
		}

		for _, pair := range pairs {
			field, value := string(pair[0]), pair[1]
			if _, exists := fields[field]; !exists {
				newFields++
			}
			fields[field] = value
		}

		if err := txn.Put(typeKey(k), []byte{TagHash}); err != nil {
			return storeError(err)
		}
		if err := txn.Put(dataKey(k), encodeHash(fields)); err != nil {
			return storeError(err)
		}
		return clearTTL(txn, k)
	})
	return newFields, err
}

// GetHashField projects a single field out of K's hash. found is false if K
// is absent, expired, or lacks the field; a non-hash K is WrongType.
func (s *Storage) GetHashField(ctx context.Context, k, field []byte) (value []byte, found bool, err error) {
	err = s.engine.Update(ctx, func(txn engine.Txn) error {
		t, terr := readTriple(txn, k)
		if terr != nil {
			return terr
		}
		if !t.hasTag {
			return nil
		}
		if t.tag != TagHash {
			return wrongType(TagHash)
		}

		fields, derr := decodeHash(t.data)
		if derr != nil {
			return storeError(derr)
		}
		value, found = fields[string(field)]
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Delete removes K's triple entirely and reports 1 if it existed
// (honouring TTL), 0 otherwise.
func (s *Storage) Delete(ctx context.Context, k []byte) (removed int64, err error) {
	err = s.engine.Update(ctx, func(txn engine.Txn) error {
		t, terr := readTriple(txn, k)
		if terr != nil {
			return terr
		}
		if !t.hasTag {
			return nil
		}

		for _, pk := range [][]byte{typeKey(k), dataKey(k), ttlKey(k)} {
			if err := txn.Delete(pk); err != nil {
				return storeError(err)
			}
		}
		removed = 1
		return nil
	})
	return removed, err
}

// Exists reports 1 if K is present and unexpired, 0 otherwise.
func (s *Storage) Exists(ctx context.Context, k []byte) (found int64, err error) {
	err = s.engine.Update(ctx, func(txn engine.Txn) error {
		t, terr := readTriple(txn, k)
		if terr != nil {
			return terr
		}
		if t.hasTag {
			found = 1
		}
		return nil
	})
	return found, err
}

// GetExpiry returns the remaining TTL (saturating at zero), and whether
// T:K is present at all. It deliberately does NOT treat an expired key as
// absent: the command layer composes GetExpiry with Exists to build the
// Redis -1/-2 TTL return convention.
func (s *Storage) GetExpiry(ctx context.Context, k []byte) (remaining time.Duration, hasTTL bool, err error) {
	err = s.engine.Update(ctx, func(txn engine.Txn) error {
		ttlRaw, terr := txn.GetForUpdate(ttlKey(k))
		if terr == engine.ErrNotFound {
			return nil
		}
		if terr != nil {
			return storeError(terr)
		}

		absolute, derr := clock.DecodeAbsoluteMs(ttlRaw)
		if derr != nil {
			return storeError(derr)
		}
		left, rerr := clock.RemainingSince(absolute)
		if rerr != nil {
			return storeError(rerr)
		}

		hasTTL = true
		remaining = left
		return nil
	})
	return remaining, hasTTL, err
}

// ExpireCondition is the EXPIRE-family's optional modifier, evaluated
// against the key's current TTL inside the same transaction as the
// prospective write. An absent TTL is treated as +Inf for both GT and LT,
// so GT always suppresses on a key with no TTL and LT always succeeds.
type ExpireCondition int

const (
	ExpireNone ExpireCondition = iota
	ExpireNX
	ExpireXX
	ExpireGT
	ExpireLT
)

// PutExpiryConditional fences against concurrent overwrites of K's payload
// (which must clear a stale TTL) via get-for-update(d:K), evaluates cond
// against the current T:K, and writes the new absolute TTL if the
// condition passes. written reports whether the write happened; this layer
// permits setting a TTL on an absent key, so callers that want EXPIRE on a
// missing key to be a no-op must check Exists first.
func (s *Storage) PutExpiryConditional(ctx context.Context, k []byte, relative time.Duration, cond ExpireCondition) (written bool, err error) {
	err = s.engine.Update(ctx, func(txn engine.Txn) error {
		if _, derr := txn.GetForUpdate(dataKey(k)); derr != nil && derr != engine.ErrNotFound {
			return storeError(derr)
		}

		var existing time.Duration
		hasExisting := false
		if ttlRaw, terr := txn.GetForUpdate(ttlKey(k)); terr == nil {
			absolute, derr := clock.DecodeAbsoluteMs(ttlRaw)
			if derr != nil {
				return storeError(derr)
			}
			existing = absolute
			hasExisting = true
		} else if terr != engine.ErrNotFound {
			return storeError(terr)
		}

		proposed, perr := clock.Now()
		if perr != nil {
			return storeError(perr)
		}
		proposed += relative

		switch cond {
		case ExpireNX:
			if hasExisting {
				return nil
			}
		case ExpireXX:
			if !hasExisting {
				return nil
			}
		case ExpireGT:
			if !hasExisting || proposed <= existing {
				return nil
			}
		case ExpireLT:
			if hasExisting && proposed >= existing {
				return nil
			}
		case ExpireNone:
			// always write
		default:
			assert.True(false, fmt.Sprintf("unknown ExpireCondition %d", cond))
		}

		encoded, eerr := clock.EncodeAbsoluteMs(relative)
		if eerr != nil {
			return storeError(eerr)
		}
		if werr := txn.Put(ttlKey(k), encoded); werr != nil {
			return storeError(werr)
		}
		written = true
		return nil
	})
	return written, err
}

// DeleteExpiry removes K's TTL and reports 1 if one was present, 0
// otherwise, fencing on d:K the same way PutExpiryConditional does.
func (s *Storage) DeleteExpiry(ctx context.Context, k []byte) (removed int64, err error) {
	err = s.engine.Update(ctx, func(txn engine.Txn) error {
		if _, derr := txn.GetForUpdate(dataKey(k)); derr != nil && derr != engine.ErrNotFound {
			return storeError(derr)
		}

		if _, terr := txn.GetForUpdate(ttlKey(k)); terr == engine.ErrNotFound {
			return nil
		} else if terr != nil {
			return storeError(terr)
		}

		if err := txn.Delete(ttlKey(k)); err != nil {
			return storeError(err)
		}
		removed = 1
		return nil
	})
	return removed, err
}
