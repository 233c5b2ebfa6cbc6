// Package kvserver is a small Redis compatible server holding its data in
// process memory. It speaks enough of the protocol for the stores in this
// module: PING, ECHO, QUIT, SELECT, GET, SET, DEL, EXISTS, KEYS, DBSIZE,
// FLUSHDB and FLUSHALL.
package kvserver

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/match"
	"github.com/tidwall/redcon"
	"github.com/tidwall/rhh"

	"github.com/moontrade/hgncd/logger"
)

// DefaultDatabases matches the Redis default.
const DefaultDatabases = 16

var (
	errWrongNumArgs = errors.New("wrong number of arguments")
	errInvalidDB    = errors.New("invalid DB index")
	errNotInteger   = errors.New("value is not an integer or out of range")
)

// Server is safe for use by any number of connections. Commands are applied
// one at a time.
type Server struct {
	mu  sync.Mutex
	dbs []*rhh.Map

	lnMu sync.Mutex
	srv  *redcon.Server
	addr string
	done chan struct{}
}

type client struct {
	db int
}

// New returns a server with n logical databases. n <= 0 is DefaultDatabases.
func New(n int) *Server {
	if n <= 0 {
		n = DefaultDatabases
	}
	s := &Server{dbs: make([]*rhh.Map, n)}
	for i := range s.dbs {
		s.dbs[i] = rhh.New(0)
	}
	return s
}

// Start listens on addr and serves in the background. It returns once the
// listener is bound. Use Addr to learn the bound address when addr has
// port 0.
func (s *Server) Start(addr string) error {
	s.lnMu.Lock()
	defer s.lnMu.Unlock()
	if s.srv != nil {
		return errors.New("kv server already started")
	}
	srv := redcon.NewServerNetwork("tcp", addr,
		func(conn redcon.Conn, cmd redcon.Command) {
			s.exec(conn, conn.Context().(*client), cmd.Args)
		},
		func(conn redcon.Conn) bool {
			conn.SetContext(new(client))
			logger.Trace("addr", conn.RemoteAddr(), "kv conn opened")
			return true
		},
		func(conn redcon.Conn, err error) {
			logger.Trace("addr", conn.RemoteAddr(), "kv conn closed")
		},
	)
	srv.AcceptError = func(err error) {
		logger.WarnErr(err, "kv accept failed")
	}

	signal := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		// serve only returns after Close; listen errors arrive on signal
		_ = srv.ListenServeAndSignal(signal)
	}()
	if err := <-signal; err != nil {
		<-done
		return err
	}
	s.srv = srv
	s.addr = srv.Addr().String()
	s.done = done
	logger.Info("addr", s.addr, "kv server listening")
	return nil
}

// Addr returns the listener address, or "" before Start.
func (s *Server) Addr() string {
	s.lnMu.Lock()
	defer s.lnMu.Unlock()
	return s.addr
}

// Close stops the listener, closes open connections and waits for the
// accept loop to exit. It is a no-op when the server is not running.
func (s *Server) Close() error {
	s.lnMu.Lock()
	srv, done := s.srv, s.done
	s.srv, s.addr, s.done = nil, "", nil
	s.lnMu.Unlock()
	if srv == nil {
		return nil
	}
	err := srv.Close()
	<-done
	if err != nil && isClosed(err) {
		err = nil
	}
	return err
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		strings.Contains(err.Error(), "use of closed network connection")
}

func writeErr(conn redcon.Conn, err error, name string) {
	switch err {
	case errWrongNumArgs:
		conn.WriteError("ERR wrong number of arguments for '" + name + "' command")
	default:
		conn.WriteError("ERR " + err.Error())
	}
}

func (s *Server) exec(conn redcon.Conn, c *client, args [][]byte) {
	name := strings.ToLower(string(args[0]))
	switch name {
	case "ping":
		switch len(args) {
		case 1:
			conn.WriteString("PONG")
		case 2:
			conn.WriteBulk(args[1])
		default:
			writeErr(conn, errWrongNumArgs, name)
		}
		return
	case "echo":
		if len(args) != 2 {
			writeErr(conn, errWrongNumArgs, name)
			return
		}
		conn.WriteBulk(args[1])
		return
	case "quit":
		conn.WriteString("OK")
		conn.Close()
		return
	case "select":
		if len(args) != 2 {
			writeErr(conn, errWrongNumArgs, name)
			return
		}
		n, err := strconv.Atoi(string(args[1]))
		if err != nil {
			writeErr(conn, errNotInteger, name)
			return
		}
		if n < 0 || n >= len(s.dbs) {
			writeErr(conn, errInvalidDB, name)
			return
		}
		c.db = n
		conn.WriteString("OK")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.dbs[c.db]
	switch name {
	case "get":
		if len(args) != 2 {
			writeErr(conn, errWrongNumArgs, name)
			return
		}
		v, ok := db.Get(string(args[1]))
		if !ok {
			conn.WriteNull()
			return
		}
		conn.WriteBulk(v.([]byte))
	case "set":
		if len(args) != 3 {
			writeErr(conn, errWrongNumArgs, name)
			return
		}
		// redcon reuses argument buffers between commands
		value := make([]byte, len(args[2]))
		copy(value, args[2])
		db.Set(string(args[1]), value)
		conn.WriteString("OK")
	case "del", "exists":
		if len(args) < 2 {
			writeErr(conn, errWrongNumArgs, name)
			return
		}
		var n int
		for _, key := range args[1:] {
			if name == "del" {
				if _, ok := db.Delete(string(key)); ok {
					n++
				}
			} else if _, ok := db.Get(string(key)); ok {
				n++
			}
		}
		conn.WriteInt(n)
	case "keys":
		if len(args) != 2 {
			writeErr(conn, errWrongNumArgs, name)
			return
		}
		pattern := string(args[1])
		var keys []string
		db.Range(func(key string, _ interface{}) bool {
			if match.Match(key, pattern) {
				keys = append(keys, key)
			}
			return true
		})
		conn.WriteArray(len(keys))
		for _, key := range keys {
			conn.WriteBulkString(key)
		}
	case "dbsize":
		if len(args) != 1 {
			writeErr(conn, errWrongNumArgs, name)
			return
		}
		conn.WriteInt(db.Len())
	case "flushdb":
		s.dbs[c.db] = rhh.New(0)
		conn.WriteString("OK")
	case "flushall":
		for i := range s.dbs {
			s.dbs[i] = rhh.New(0)
		}
		conn.WriteString("OK")
	default:
		conn.WriteError("ERR unknown command '" + string(args[0]) + "'")
	}
}
