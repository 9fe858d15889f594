// Package respserver accepts RESP2 connections and drives them through the
// command dispatcher; it is the only package that knows about redcon's wire
// types, following controller/respserver/resp.go almost unchanged in shape.
package respserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/redcon"

	"github.com/karashiiro/wedis/internal/command"
	"github.com/karashiiro/wedis/internal/conn"
	"github.com/karashiiro/wedis/internal/log"
)

// WalWriter is the subset of internal/wal's API respserver needs: every
// committed mutating command is appended to the write-ahead log before its
// reply is sent to the client.
type WalWriter interface {
	Write(args [][]byte) error
}

type Server struct {
	host       string
	port       int
	dispatcher *command.Dispatcher
	wal        WalWriter
	server     *redcon.Server
	stopChan   chan struct{}
}

func New(host string, port int, dispatcher *command.Dispatcher, wal WalWriter) *Server {
	return &Server{
		host:       host,
		port:       port,
		dispatcher: dispatcher,
		wal:        wal,
		stopChan:   make(chan struct{}),
	}
}

// ListenAndServe starts accepting connections and blocks until Shutdown.
func (s *Server) ListenAndServe() error {
	s.server = redcon.NewServerNetwork(
		"tcp",
		fmt.Sprintf("%s:%d", s.host, s.port),
		s.handle,
		s.accept,
		s.closed,
	)

	err := s.server.ListenAndServe()
	if err != nil {
		return err
	}

	<-s.stopChan
	return nil
}

// Stop stops accepting new connections but doesn't wait for in-flight ones.
func (s *Server) Stop() error {
	return s.server.Close()
}

// Shutdown gracefully stops the server and unblocks ListenAndServe.
func (s *Server) Shutdown() error {
	defer close(s.stopChan)
	return s.Stop()
}

func (s *Server) accept(rc redcon.Conn) bool {
	rc.SetContext(conn.New())
	return true
}

func (s *Server) closed(rc redcon.Conn, err error) {
	if err != nil {
		log.Debugf("connection closed: %s", err)
	}
}

// mutatingCommands lists the commands that, when they succeed, are appended
// to the WAL before their reply reaches the client. The WAL is an audit
// trail and is not replayed at startup (see wal.ScanMaxID).
var mutatingCommands = map[string]bool{
	"SET": true, "SETEX": true, "SETNX": true, "SETRANGE": true,
	"APPEND": true, "GETDEL": true, "GETSET": true,
	"INCR": true, "DECR": true, "INCRBY": true, "DECRBY": true, "INCRBYFLOAT": true,
	"DEL": true, "UNLINK": true,
	"EXPIRE": true, "PEXPIRE": true, "EXPIREAT": true, "PEXPIREAT": true, "PERSIST": true,
	"HSET": true,
	"SETBIT": true,
}

func (s *Server) handle(rc redcon.Conn, rcmd redcon.Command) {
	if len(rcmd.Args) == 0 {
		return
	}

	name := strings.ToUpper(string(rcmd.Args[0]))
	cc, _ := rc.Context().(*conn.Context)

	reply := s.dispatcher.Dispatch(context.Background(), cc, rcmd.Args)

	if reply.Kind != command.KindError && s.wal != nil && mutatingCommands[name] {
		if err := s.wal.Write(rcmd.Args); err != nil {
			log.Errorf("WAL write failed for %s: %s", name, err)
		}
	}

	writeReply(rc, reply)

	if command.IsQuit(name) {
		rc.Close()
	}
}

func writeReply(rc redcon.Conn, reply command.Reply) {
	switch reply.Kind {
	case command.KindStatus:
		rc.WriteString(reply.Str)
	case command.KindError:
		rc.WriteError(reply.Str)
	case command.KindInt:
		rc.WriteInt64(reply.Int)
	case command.KindBulk:
		rc.WriteBulk(reply.Bulk)
	case command.KindNullBulk:
		rc.WriteNull()
	case command.KindArray:
		rc.WriteArray(len(reply.Array))
		for _, item := range reply.Array {
			if item == nil {
				rc.WriteNull()
			} else {
				rc.WriteBulk(item)
			}
		}
	case command.KindNullArray:
		rc.WriteArray(-1)
	default:
		log.Errorf("unknown reply kind: %d", reply.Kind)
		rc.WriteError("ERR internal error")
	}
}
