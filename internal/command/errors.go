package command

import (
	"errors"

	"github.com/karashiiro/wedis/internal/log"
	"github.com/karashiiro/wedis/internal/storage"
)

// Fixed error reply strings.
const (
	errArgCount             = "ERR wrong number of arguments for command"
	errUnknownCommand       = "ERR unknown command"
	errUnknownAttribute     = "ERR unknown attribute"
	errNoContext            = "ERR no context"
	errExpireOptionConflict = "ERR NX and XX, GT or LT options at the same time are not compatible"
	errWrongType            = "WRONGTYPE Operation against a key holding the wrong kind of value"
	errNotInteger           = "ERR value is not an integer or out of range"
	errNotFloat             = "ERR value is not a valid float"
	errBitOffset            = "ERR bit offset is not an integer or out of range"
	errInternal             = "ERR internal error"
)

// classifyStorageError turns a typed storage error into the matching RESP
// error reply, logging anything that isn't a normal control-flow signal
// rather than leaking it to the client.
func classifyStorageError(cmd string, err error) Reply {
	var wte *storage.WrongTypeError
	switch {
	case errors.As(err, &wte):
		return ReplyError(errWrongType)
	case errors.Is(err, storage.ErrWrongFormat):
		return ReplyError(errNotInteger)
	case errors.Is(err, storage.ErrIntegerOverflow):
		return ReplyError(errNotInteger)
	case errors.Is(err, storage.ErrInvalidTime):
		return ReplyError(errNotInteger)
	default:
		log.Errorf("command %s: internal error: %s", cmd, err)
		return ReplyError(errInternal)
	}
}
