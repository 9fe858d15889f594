// Package command implements the dispatch table and handler catalogue:
// argument parsing, option grammars, per-command error classification, and
// translation to/from the storage layer.
package command

import (
	"context"

	"github.com/karashiiro/wedis/internal/conn"
	"github.com/karashiiro/wedis/internal/storage"
)

type handlerFunc func(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply

// commandSpec is a single registration: the arity bounds (counting args[0],
// the command name itself) and the handler. maxArgs of -1 means unbounded.
type commandSpec struct {
	minArgs int
	maxArgs int
	handler handlerFunc
}

// Dispatcher is a registration map keyed by uppercased command name, with
// one small handler function per command rather than one large switch,
// since this catalogue has a lot of commands and each one is easier to
// reason about, register, and test on its own.
type Dispatcher struct {
	storage  *storage.Storage
	commands map[string]commandSpec
}

// NewDispatcher builds the full command table over s.
func NewDispatcher(s *storage.Storage) *Dispatcher {
	d := &Dispatcher{storage: s, commands: make(map[string]commandSpec)}
	d.registerConnectionCommands()
	d.registerStringCommands()
	d.registerGenericCommands()
	d.registerHashCommands()
	d.registerBitmapCommands()
	d.registerServerCommands()
	return d
}

func (d *Dispatcher) register(name string, minArgs, maxArgs int, handler handlerFunc) {
	d.commands[name] = commandSpec{minArgs: minArgs, maxArgs: maxArgs, handler: handler}
}

// Dispatch looks up args[0] (case-insensitively) and runs its handler.
// Unknown commands and arity mismatches are classified here, before the
// handler ever sees the storage layer.
func (d *Dispatcher) Dispatch(ctx context.Context, cc *conn.Context, args [][]byte) Reply {
	if len(args) == 0 {
		return ReplyError(errUnknownCommand)
	}

	name := upperASCII(string(args[0]))
	spec, ok := d.commands[name]
	if !ok {
		return ReplyError(errUnknownCommand)
	}

	if len(args) < spec.minArgs || (spec.maxArgs >= 0 && len(args) > spec.maxArgs) {
		return ReplyError(errArgCount)
	}

	return spec.handler(ctx, cc, d.storage, args)
}

// IsQuit reports whether name (as dispatched) should cause the connection
// to close after its reply is flushed; respserver checks this since
// closing a socket isn't something a Reply value can express.
func IsQuit(name string) bool {
	return upperASCII(name) == "QUIT"
}
