package command

import (
	"context"
	"time"

	"github.com/karashiiro/wedis/internal/clock"
	"github.com/karashiiro/wedis/internal/conn"
	"github.com/karashiiro/wedis/internal/log"
	"github.com/karashiiro/wedis/internal/storage"
)

func (d *Dispatcher) registerGenericCommands() {
	d.register("DEL", 2, -1, handleDel)
	d.register("UNLINK", 2, -1, handleDel)
	d.register("EXISTS", 2, -1, handleExists)
	d.register("EXPIRE", 3, -1, handleExpire(time.Second, false))
	d.register("PEXPIRE", 3, -1, handleExpire(time.Millisecond, false))
	d.register("EXPIREAT", 3, -1, handleExpire(time.Second, true))
	d.register("PEXPIREAT", 3, -1, handleExpire(time.Millisecond, true))
	d.register("PERSIST", 2, 2, handlePersist)
	d.register("TTL", 2, 2, handleTTLKind(ttlSeconds))
	d.register("PTTL", 2, 2, handleTTLKind(ttlMillis))
	d.register("EXPIRETIME", 2, 2, handleTTLKind(expireAtSeconds))
	d.register("PEXPIRETIME", 2, 2, handleTTLKind(expireAtMillis))
}

func handleDel(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	var total int64
	for i := 1; i < len(args); i++ {
		n, err := s.Delete(ctx, args[i])
		if err != nil {
			return classifyStorageError("DEL", err)
		}
		total += n
	}
	return ReplyInt(total)
}

func handleExists(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	var total int64
	for i := 1; i < len(args); i++ {
		n, err := s.Exists(ctx, args[i])
		if err != nil {
			return classifyStorageError("EXISTS", err)
		}
		total += n
	}
	return ReplyInt(total)
}

// handleExpire builds the EXPIRE/PEXPIRE/EXPIREAT/PEXPIREAT handler: unit
// scales the numeric argument, absolute marks whether that argument is
// already a UNIX timestamp (EXPIREAT family) rather than a relative offset.
// The grammar allows at most one trailing NX|XX|GT|LT token; more than one
// is always a conflict, since this catalogue doesn't support combining XX
// with GT/LT the way real Redis does.
func handleExpire(unit time.Duration, absolute bool) handlerFunc {
	return func(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
		key, _ := argBytes(args, 1)
		n, err := argInt(args, 2)
		if err != nil {
			return ReplyError(errNotInteger)
		}

		cond := storage.ExpireNone
		if len(args) > 3 {
			if len(args) > 4 {
				return ReplyError(errExpireOptionConflict)
			}
			token, terr := argUpper(args, 3)
			if terr != nil {
				return ReplyError(errArgCount)
			}
			switch token {
			case "NX":
				cond = storage.ExpireNX
			case "XX":
				cond = storage.ExpireXX
			case "GT":
				cond = storage.ExpireGT
			case "LT":
				cond = storage.ExpireLT
			default:
				return ReplyError(errUnknownAttribute)
			}
		}

		exists, err := s.Exists(ctx, key)
		if err != nil {
			return classifyStorageError("EXPIRE", err)
		}
		if exists == 0 {
			return ReplyInt(0)
		}

		var relative time.Duration
		if absolute {
			now, nerr := clock.Now()
			if nerr != nil {
				log.Errorf("command EXPIRE: clock error: %s", nerr)
				return ReplyError(errInternal)
			}
			relative = time.Duration(n)*unit - now
		} else {
			relative = time.Duration(n) * unit
		}

		written, err := s.PutExpiryConditional(ctx, key, relative, cond)
		if err != nil {
			return classifyStorageError("EXPIRE", err)
		}
		if written {
			return ReplyInt(1)
		}
		return ReplyInt(0)
	}
}

func handlePersist(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	removed, err := s.DeleteExpiry(ctx, key)
	if err != nil {
		return classifyStorageError("PERSIST", err)
	}
	return ReplyInt(removed)
}

type ttlKind int

const (
	ttlSeconds ttlKind = iota
	ttlMillis
	expireAtSeconds
	expireAtMillis
)

// handleTTLKind composes Exists and GetExpiry into the Redis -2/-1/value
// convention shared by TTL, PTTL, EXPIRETIME and PEXPIRETIME.
func handleTTLKind(kind ttlKind) handlerFunc {
	return func(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
		key, _ := argBytes(args, 1)

		exists, err := s.Exists(ctx, key)
		if err != nil {
			return classifyStorageError("TTL", err)
		}
		if exists == 0 {
			return ReplyInt(-2)
		}

		remaining, hasTTL, err := s.GetExpiry(ctx, key)
		if err != nil {
			return classifyStorageError("TTL", err)
		}
		if !hasTTL {
			return ReplyInt(-1)
		}

		switch kind {
		case ttlSeconds:
			return ReplyInt(int64((remaining + time.Second/2) / time.Second))
		case ttlMillis:
			return ReplyInt(remaining.Milliseconds())
		case expireAtSeconds, expireAtMillis:
			now, nerr := clock.Now()
			if nerr != nil {
				log.Errorf("command TTL: clock error: %s", nerr)
				return ReplyError(errInternal)
			}
			absolute := now + remaining
			if kind == expireAtSeconds {
				return ReplyInt(int64(absolute / time.Second))
			}
			return ReplyInt(absolute.Milliseconds())
		}
		return ReplyError(errInternal)
	}
}
