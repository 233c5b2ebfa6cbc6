package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/moontrade/hgncd/logger"
)

type server struct {
	http *http.Server
	ln   net.Listener
}

func serverInit(conf Config, h http.Handler) (*server, error) {
	ln, err := net.Listen("tcp", conf.Addr)
	if err != nil {
		return nil, err
	}
	return &server{
		ln: ln,
		http: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       conf.ReadTimeout,
			WriteTimeout:      conf.WriteTimeout,
			ErrorLog:          serverErrorLog(),
		},
	}, nil
}

func (s *server) addr() string {
	return s.ln.Addr().String()
}

// serve blocks until ctx is done, then shuts down within timeout.
func (s *server) serve(ctx context.Context, timeout time.Duration) error {
	errC := make(chan error, 1)
	go func() {
		errC <- s.http.Serve(s.ln)
	}()
	logger.Info("addr", s.addr(), "http server listening")

	select {
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.http.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errC; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
