package command

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/karashiiro/wedis/internal/conn"
	"github.com/karashiiro/wedis/internal/indexing"
	"github.com/karashiiro/wedis/internal/storage"
)

func (d *Dispatcher) registerStringCommands() {
	d.register("SET", 3, 3, handleSet)
	d.register("SETEX", 4, 4, handleSetex)
	d.register("SETNX", 3, 3, handleSetnx)
	d.register("SETRANGE", 4, 4, handleSetrange)
	d.register("GET", 2, 2, handleGet)
	d.register("MGET", 2, -1, handleMget)
	d.register("APPEND", 3, 3, handleAppend)
	d.register("GETRANGE", 4, 4, handleGetrange)
	d.register("SUBSTR", 4, 4, handleGetrange)
	d.register("GETDEL", 2, 2, handleGetdel)
	d.register("GETSET", 3, 3, handleGetset)
	d.register("STRLEN", 2, 2, handleStrlen)
	d.register("INCR", 2, 2, handleIncr)
	d.register("DECR", 2, 2, handleDecr)
	d.register("INCRBY", 3, 3, handleIncrby)
	d.register("DECRBY", 3, 3, handleDecrby)
	d.register("INCRBYFLOAT", 3, 3, handleIncrbyfloat)
}

func handleSet(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	value, _ := argBytes(args, 2)
	if err := s.PutString(ctx, key, value); err != nil {
		return classifyStorageError("SET", err)
	}
	return ReplyOK()
}

func handleSetex(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	secs, err := argInt(args, 2)
	if err != nil || secs <= 0 {
		return ReplyError(errNotInteger)
	}
	value, _ := argBytes(args, 3)
	if err := s.PutString(ctx, key, value); err != nil {
		return classifyStorageError("SETEX", err)
	}
	if _, err := s.PutExpiryConditional(ctx, key, time.Duration(secs)*time.Second, storage.ExpireNone); err != nil {
		return classifyStorageError("SETEX", err)
	}
	return ReplyOK()
}

func handleSetnx(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	value, _ := argBytes(args, 2)
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return classifyStorageError("SETNX", err)
	}
	if exists != 0 {
		return ReplyInt(0)
	}
	if err := s.PutString(ctx, key, value); err != nil {
		return classifyStorageError("SETNX", err)
	}
	return ReplyInt(1)
}

// handleSetrange composes GetString and PutString at the command layer
// rather than adding a dedicated byte-range write to the storage API. The
// read-then-write isn't a single storage transaction, which is fine since
// nothing else in this catalogue depends on SETRANGE's atomicity against
// concurrent writers.
func handleSetrange(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	offset, err := argInt(args, 2)
	if err != nil || offset < 0 {
		return ReplyError(errNotInteger)
	}
	patch, _ := argBytes(args, 3)

	current, _, err := s.GetString(ctx, key)
	if err != nil {
		return classifyStorageError("SETRANGE", err)
	}

	end := int(offset) + len(patch)
	if end < len(current) {
		end = len(current)
	}
	grown := make([]byte, end)
	copy(grown, current)
	copy(grown[offset:], patch)

	if err := s.PutString(ctx, key, grown); err != nil {
		return classifyStorageError("SETRANGE", err)
	}
	return ReplyInt(int64(len(grown)))
}

func handleGet(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	value, found, err := s.GetString(ctx, key)
	if err != nil {
		return classifyStorageError("GET", err)
	}
	if !found {
		return ReplyNullBulk()
	}
	return ReplyBulk(value)
}

func handleMget(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	items := make([][]byte, 0, len(args)-1)
	for i := 1; i < len(args); i++ {
		value, found, err := s.GetString(ctx, args[i])
		if err != nil {
			// A wrong-type member is reported as a null entry, matching
			// Redis's own MGET behaviour, rather than failing the whole
			// command.
			var wte *storage.WrongTypeError
			if errors.As(err, &wte) {
				items = append(items, nil)
				continue
			}
			return classifyStorageError("MGET", err)
		}
		if !found {
			items = append(items, nil)
			continue
		}
		items = append(items, value)
	}
	return ReplyArray(items)
}

func handleAppend(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	value, _ := argBytes(args, 2)
	n, err := s.Append(ctx, key, value)
	if err != nil {
		return classifyStorageError("APPEND", err)
	}
	return ReplyInt(int64(n))
}

func handleGetrange(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	start, serr := argInt(args, 2)
	end, eerr := argInt(args, 3)
	if serr != nil || eerr != nil {
		return ReplyError(errNotInteger)
	}

	value, found, err := s.GetString(ctx, key)
	if err != nil {
		return classifyStorageError("GETRANGE", err)
	}
	if !found || len(value) == 0 {
		return ReplyBulk([]byte{})
	}

	lo, hi := indexing.Normalise(len(value)-1, start, end)
	if lo < 0 {
		lo = 0
	}
	if hi > len(value)-1 {
		hi = len(value) - 1
	}
	if lo > hi {
		return ReplyBulk([]byte{})
	}
	return ReplyBulk(value[lo : hi+1])
}

func handleGetdel(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	value, found, err := s.GetString(ctx, key)
	if err != nil {
		return classifyStorageError("GETDEL", err)
	}
	if !found {
		return ReplyNullBulk()
	}
	if _, err := s.Delete(ctx, key); err != nil {
		return classifyStorageError("GETDEL", err)
	}
	return ReplyBulk(value)
}

func handleGetset(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	value, _ := argBytes(args, 2)
	old, found, err := s.GetString(ctx, key)
	if err != nil {
		return classifyStorageError("GETSET", err)
	}
	if err := s.PutString(ctx, key, value); err != nil {
		return classifyStorageError("GETSET", err)
	}
	if !found {
		return ReplyNullBulk()
	}
	return ReplyBulk(old)
}

func handleStrlen(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	value, found, err := s.GetString(ctx, key)
	if err != nil {
		return classifyStorageError("STRLEN", err)
	}
	if !found {
		return ReplyInt(0)
	}
	return ReplyInt(int64(len(value)))
}

func handleIncr(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	result, err := s.IncrementByInt(ctx, key, 1)
	if err != nil {
		return classifyStorageError("INCR", err)
	}
	return ReplyInt(result)
}

func handleDecr(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	result, err := s.IncrementByInt(ctx, key, -1)
	if err != nil {
		return classifyStorageError("DECR", err)
	}
	return ReplyInt(result)
}

func handleIncrby(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	delta, err := argInt(args, 2)
	if err != nil {
		return ReplyError(errNotInteger)
	}
	result, err := s.IncrementByInt(ctx, key, delta)
	if err != nil {
		return classifyStorageError("INCRBY", err)
	}
	return ReplyInt(result)
}

func handleDecrby(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	delta, err := argInt(args, 2)
	if err != nil {
		return ReplyError(errNotInteger)
	}
	result, err := s.IncrementByInt(ctx, key, -delta)
	if err != nil {
		return classifyStorageError("DECRBY", err)
	}
	return ReplyInt(result)
}

// handleIncrbyfloat classifies storage.ErrWrongFormat as errNotFloat itself,
// ahead of classifyStorageError's generic mapping to errNotInteger, since
// the shared classifier can't tell an int-context caller from a
// float-context one.
func handleIncrbyfloat(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	raw, err := argString(args, 2)
	if err != nil {
		return ReplyError(errArgCount)
	}
	delta, perr := strconv.ParseFloat(raw, 64)
	if perr != nil {
		return ReplyError(errNotFloat)
	}

	result, err := s.IncrementByFloat(ctx, key, delta)
	if err != nil {
		if errors.Is(err, storage.ErrWrongFormat) {
			return ReplyError(errNotFloat)
		}
		return classifyStorageError("INCRBYFLOAT", err)
	}
	return ReplyBulk([]byte(strconv.FormatFloat(result, 'f', -1, 64)))
}
