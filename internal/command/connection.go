package command

import (
	"context"
	"strconv"

	"github.com/karashiiro/wedis/internal/conn"
	"github.com/karashiiro/wedis/internal/storage"
)

const serverVersion = "7.0.0-wedis"

func (d *Dispatcher) registerConnectionCommands() {
	d.register("QUIT", 1, 1, handleQuit)
	d.register("PING", 1, 2, handlePing)
	d.register("ECHO", 2, 2, handleEcho)
	d.register("HELLO", 1, 2, handleHello)
	d.register("CLIENT", 2, 4, handleClient)
}

func handleQuit(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	return ReplyOK()
}

func handlePing(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	if len(args) == 1 {
		return ReplyStatus("PONG")
	}
	msg, err := argBytes(args, 1)
	if err != nil {
		return ReplyError(errArgCount)
	}
	return ReplyBulk(msg)
}

func handleEcho(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	msg, err := argBytes(args, 1)
	if err != nil {
		return ReplyError(errArgCount)
	}
	return ReplyBulk(msg)
}

// handleHello replies with the fixed handshake map HELLO's RESP2 form uses:
// server name, version, protocol, this connection's id, topology and role,
// and an empty modules list. Every value is rendered as a bulk string
// rather than redcon's native map/int types, since Reply carries only bulk
// members in its Array.
func handleHello(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	items := [][]byte{
		[]byte("server"), []byte("wedis"),
		[]byte("version"), []byte(serverVersion),
		[]byte("proto"), []byte("2"),
		[]byte("id"), []byte(strconv.FormatInt(cc.ID, 10)),
		[]byte("mode"), []byte("standalone"),
		[]byte("role"), []byte("master"),
		[]byte("modules"), []byte(""),
	}
	return ReplyArray(items)
}

func handleClient(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	sub, err := argUpper(args, 1)
	if err != nil {
		return ReplyError(errArgCount)
	}

	switch sub {
	case "SETINFO":
		attr, aerr := argUpper(args, 2)
		value, verr := argString(args, 3)
		if aerr != nil || verr != nil {
			return ReplyError(errArgCount)
		}
		switch attr {
		case "LIB-NAME":
			cc.LibName = value
		case "LIB-VER":
			cc.LibVersion = value
		default:
			return ReplyError(errUnknownAttribute)
		}
		return ReplyOK()
	case "SETNAME":
		name, nerr := argString(args, 2)
		if nerr != nil {
			return ReplyError(errArgCount)
		}
		cc.ConnectionName = name
		return ReplyOK()
	case "GETNAME":
		return ReplyBulk([]byte(cc.ConnectionName))
	case "ID":
		return ReplyInt(cc.ID)
	default:
		return ReplyError(errUnknownCommand)
	}
}
