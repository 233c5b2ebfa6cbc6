package app

import (
	"log"

	"github.com/hashicorp/go-hclog"
	"github.com/rs/zerolog"

	"github.com/moontrade/hgncd/logger"
)

func logInit(conf Config) error {
	if conf.LogJSON {
		logger.SetJsonWriter(conf.LogOutput)
	} else {
		logger.SetConsoleOutput(conf.LogOutput, false)
	}
	level := zerolog.InfoLevel
	if conf.Debug {
		level = zerolog.DebugLevel
	}
	if conf.LogLevel != "" {
		var err error
		level, err = logger.ParseLevel(conf.LogLevel)
		if err != nil {
			return err
		}
	}
	logger.SetLevel(level)
	logger.Warn("starting %s", versline(conf))
	return nil
}

// serverErrorLog routes net/http's internal errors through hclog into the
// package logger.
func serverErrorLog() *log.Logger {
	hl := hclog.New(&hclog.LoggerOptions{
		Name:   "http",
		Level:  hclog.Trace,
		Output: logger.HCLogWriter,
	})
	return hl.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true})
}
