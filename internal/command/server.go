package command

import (
	"context"
	"strconv"

	"github.com/karashiiro/wedis/internal/clock"
	"github.com/karashiiro/wedis/internal/conn"
	"github.com/karashiiro/wedis/internal/log"
	"github.com/karashiiro/wedis/internal/storage"
)

const infoFixture = "# Server\r\n" +
	"redis_version:" + serverVersion + "\r\n" +
	"redis_mode:standalone\r\n" +
	"role:master\r\n" +
	"# Keyspace\r\n"

func (d *Dispatcher) registerServerCommands() {
	d.register("INFO", 1, 2, handleInfo)
	d.register("TIME", 1, 1, handleTime)
	d.register("SELECT", 2, 2, handleSelect)
}

func handleInfo(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	return ReplyBulk([]byte(infoFixture))
}

func handleTime(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	now, err := clock.Now()
	if err != nil {
		log.Errorf("command TIME: clock error: %s", err)
		return ReplyError(errInternal)
	}
	seconds := now.Milliseconds() / 1000
	micros := (now.Microseconds()) % 1000000
	return ReplyArray([][]byte{
		[]byte(strconv.FormatInt(seconds, 10)),
		[]byte(strconv.FormatInt(micros, 10)),
	})
}

// handleSelect always succeeds: wedis exposes a single logical keyspace, so
// there's nothing to switch to, only a legacy client expectation to honour.
func handleSelect(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	return ReplyOK()
}
