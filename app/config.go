package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moontrade/hgncd/codec"
	"github.com/moontrade/hgncd/ingest"
)

func versline(conf Config) string {
	sha := ""
	if conf.GitSHA != "" {
		sha = " (" + conf.GitSHA + ")"
	}
	return fmt.Sprintf("%s version %s%s", conf.Name, conf.Version, sha)
}

const usage = `{{NAME}} version: {{VERSION}} ({{GITSHA}})

Usage: {{NAME}} [-a addr] [-c path] [options]

Basic options:
  -v                     : display version
  -h                     : display help, this screen
  -a addr                : bind to address  (default: 0.0.0.0:5000)
  -c path                : config file  (default: config.yaml)
  -l level               : log level, overrides the config file debug option
                           [debug,verb,info,warn,silent]
  --log-json             : log JSON lines instead of console output

Key-value service:
  The address is read from REDIS_IP and REDIS_PORT (default 6379). REDIS_IP
  is required unless --embedded-kv is used.
  --redis-password pass  : AUTH password
  --embedded-kv addr     : serve an in-process key-value service on addr and
                           use it instead of REDIS_IP
  --codec name           : compression for stored plots  (default: none)
                           [none,snappy,lz4,zstd]

Upstream options:
  --upstream url         : dataset URL  (default: the HGNC complete set at EBI)
  --upstream-timeout dur : bound on a whole fetch  (default: 60s)
`

// Config is the configuration for managing the behavior of the application.
// Fill it out and pass it to Main.
type Config struct {
	// Name gives the server application a name. Default "hgncd"
	Name string

	// Version of the application. Default "0.0.0"
	Version string

	// GitSHA of the application.
	GitSHA string

	// Flag is used to manage the application startup flags.
	Flag struct {
		// Custom tells Main to not automatically parse the application startup
		// flags.
		Custom bool
		// Args replaces os.Args[1:] when set.
		Args []string
	}

	// Debug comes from the config file. When LogLevel is empty it selects
	// "debug" over "info".
	Debug bool

	Addr            string        // default "0.0.0.0:5000"
	ConfigPath      string        // default "config.yaml"
	LogLevel        string        // default "" (from Debug)
	LogJSON         bool          // default false
	LogOutput       io.Writer     // default os.Stderr
	RedisAddr       string        // from REDIS_IP and REDIS_PORT
	RedisPassword   string        // default ""
	EmbeddedKV      string        // default "" (disabled)
	Codec           codec.Kind    // default codec.None
	UpstreamURL     string        // default ingest.DefaultURL
	UpstreamTimeout time.Duration // default 60s
	ReadTimeout     time.Duration // default 30s
	WriteTimeout    time.Duration // default 5m
	ShutdownTimeout time.Duration // default 10s
}

// ErrNoRedisAddr is returned when neither REDIS_IP nor --embedded-kv is set.
var ErrNoRedisAddr = errors.New("REDIS_IP is not set")

// DefaultConfigPath is read when -c is not given.
const DefaultConfigPath = "config.yaml"

func (conf *Config) def() {
	if conf.Name == "" {
		conf.Name = "hgncd"
	}
	if conf.Version == "" {
		conf.Version = "0.0.0"
	}
	if conf.Addr == "" {
		conf.Addr = "0.0.0.0:5000"
	}
	if conf.ConfigPath == "" {
		conf.ConfigPath = DefaultConfigPath
	}
	if conf.LogOutput == nil {
		conf.LogOutput = os.Stderr
	}
	if conf.UpstreamURL == "" {
		conf.UpstreamURL = ingest.DefaultURL
	}
	if conf.UpstreamTimeout == 0 {
		conf.UpstreamTimeout = ingest.DefaultTimeout
	}
	if conf.ReadTimeout == 0 {
		conf.ReadTimeout = 30 * time.Second
	}
	if conf.WriteTimeout == 0 {
		conf.WriteTimeout = 5 * time.Minute
	}
	if conf.ShutdownTimeout == 0 {
		conf.ShutdownTimeout = 10 * time.Second
	}
}

// fileConfig is the startup file. debug is the only recognized option.
type fileConfig struct {
	Debug *bool `yaml:"debug"`
}

// readFileConfig returns the debug option from path. A missing, unreadable or
// malformed file is the default, debug true.
func readFileConfig(path string) (debug bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return true, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return true, fmt.Errorf("%s: %w", path, err)
	}
	if fc.Debug == nil {
		return true, nil
	}
	return *fc.Debug, nil
}

// redisAddrFromEnv joins REDIS_IP and REDIS_PORT.
func redisAddrFromEnv(getenv func(string) string) (string, error) {
	host := strings.TrimSpace(getenv("REDIS_IP"))
	if host == "" {
		return "", ErrNoRedisAddr
	}
	port := strings.TrimSpace(getenv("REDIS_PORT"))
	if port == "" {
		port = "6379"
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", fmt.Errorf("REDIS_PORT %q is not a port number", port)
	}
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return host + ":" + port, nil
}

// parseFlags fills conf from args. It returns flag.ErrHelp for -h and
// errVersion for -v.
func parseFlags(conf *Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(conf.Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	var vers bool
	var codecName string
	fs.BoolVar(&vers, "v", false, "")
	fs.StringVar(&conf.Addr, "a", conf.Addr, "")
	fs.StringVar(&conf.ConfigPath, "c", conf.ConfigPath, "")
	fs.StringVar(&conf.LogLevel, "l", conf.LogLevel, "")
	fs.BoolVar(&conf.LogJSON, "log-json", conf.LogJSON, "")
	fs.StringVar(&conf.RedisPassword, "redis-password", conf.RedisPassword, "")
	fs.StringVar(&conf.EmbeddedKV, "embedded-kv", conf.EmbeddedKV, "")
	fs.StringVar(&codecName, "codec", conf.Codec.String(), "")
	fs.StringVar(&conf.UpstreamURL, "upstream", conf.UpstreamURL, "")
	fs.DurationVar(&conf.UpstreamTimeout, "upstream-timeout", conf.UpstreamTimeout, "")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			fmt.Fprint(stdout, usageText(*conf))
		}
		return err
	}
	if vers {
		fmt.Fprintf(stdout, "%s\n", versline(*conf))
		return errVersion
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	kind, err := codec.Parse(codecName)
	if err != nil {
		return fmt.Errorf("invalid --codec: %w", err)
	}
	conf.Codec = kind
	if conf.UpstreamTimeout <= 0 {
		return errors.New("--upstream-timeout must be positive")
	}
	return nil
}

var errVersion = errors.New("version requested")

func usageText(conf Config) string {
	s := usage
	s = strings.Replace(s, "{{VERSION}}", conf.Version, -1)
	if conf.GitSHA == "" {
		s = strings.Replace(s, " ({{GITSHA}})", "", -1)
	} else {
		s = strings.Replace(s, "{{GITSHA}}", conf.GitSHA, -1)
	}
	return strings.Replace(s, "{{NAME}}", conf.Name, -1)
}

// confInit applies defaults, flags, the config file and the environment, in
// that order. Errors are fatal to startup.
func confInit(conf *Config, getenv func(string) string) error {
	conf.def()
	if !conf.Flag.Custom {
		args := conf.Flag.Args
		if args == nil {
			args = os.Args[1:]
		}
		if err := parseFlags(conf, args, os.Stdout); err != nil {
			return err
		}
	}

	debug, err := readFileConfig(conf.ConfigPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "config file ignored: %v\n", err)
	}
	conf.Debug = debug

	if conf.EmbeddedKV == "" && conf.RedisAddr == "" {
		addr, err := redisAddrFromEnv(getenv)
		if err != nil {
			return err
		}
		conf.RedisAddr = addr
	}
	return nil
}
