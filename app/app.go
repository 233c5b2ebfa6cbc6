package app

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/moontrade/hgncd/ingest"
	"github.com/moontrade/hgncd/kvserver"
	"github.com/moontrade/hgncd/logger"
	"github.com/moontrade/hgncd/store"
)

// Main entrypoint for the service. It returns when the process receives
// SIGINT or SIGTERM, or when startup fails.
func Main(conf Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, conf, nil)
}

// Run is Main with an explicit context. ready, when not nil, receives the
// bound HTTP address once the server is listening.
func Run(ctx context.Context, conf Config, ready func(addr string)) error {
	if err := confInit(&conf, os.Getenv); err != nil {
		if errors.Is(err, flag.ErrHelp) || errors.Is(err, errVersion) {
			return nil
		}
		if errors.Is(err, ErrNoRedisAddr) {
			logger.Fatal(err, "a key-value service address is required")
		}
		return err
	}
	if err := logInit(conf); err != nil {
		return err
	}

	if conf.EmbeddedKV != "" {
		embedded := kvserver.New(0)
		if err := embedded.Start(conf.EmbeddedKV); err != nil {
			return err
		}
		defer embedded.Close()
		conf.RedisAddr = embedded.Addr()
	}

	kv := store.NewRedis(store.RedisConfig{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		Codec:    conf.Codec,
	})
	defer kv.Close()
	if err := kv.Ping(ctx); err != nil {
		logger.WarnErr(err, "addr", conf.RedisAddr, "key-value service not reachable yet")
	}

	loader, err := ingest.NewClient(conf.UpstreamURL, ingest.WithTimeout(conf.UpstreamTimeout))
	if err != nil {
		return err
	}

	svc := NewService(kv.Records(), kv.Images(), loader)
	h := NewHandler(svc, NewMetrics("hgncd"))
	h.Health = kv

	svr, err := serverInit(conf, h)
	if err != nil {
		return err
	}
	if ready != nil {
		ready(svr.addr())
	}
	return svr.serve(ctx, conf.ShutdownTimeout)
}
