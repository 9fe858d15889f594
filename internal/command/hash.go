package command

import (
	"context"

	"github.com/karashiiro/wedis/internal/conn"
	"github.com/karashiiro/wedis/internal/storage"
)

func (d *Dispatcher) registerHashCommands() {
	d.register("HSET", 4, -1, handleHset)
	d.register("HGET", 3, 3, handleHget)
	d.register("HSTRLEN", 3, 3, handleHstrlen)
}

func handleHset(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	rest := args[2:]
	if len(rest)%2 != 0 {
		return ReplyError(errArgCount)
	}

	pairs := make([][2][]byte, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		pairs = append(pairs, [2][]byte{rest[i], rest[i+1]})
	}

	n, err := s.PutHashFields(ctx, key, pairs)
	if err != nil {
		return classifyStorageError("HSET", err)
	}
	return ReplyInt(int64(n))
}

func handleHget(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	field, _ := argBytes(args, 2)
	value, found, err := s.GetHashField(ctx, key, field)
	if err != nil {
		return classifyStorageError("HGET", err)
	}
	if !found {
		return ReplyNullBulk()
	}
	return ReplyBulk(value)
}

func handleHstrlen(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	field, _ := argBytes(args, 2)
	value, found, err := s.GetHashField(ctx, key, field)
	if err != nil {
		return classifyStorageError("HSTRLEN", err)
	}
	if !found {
		return ReplyInt(0)
	}
	return ReplyInt(int64(len(value)))
}
