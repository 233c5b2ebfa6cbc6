package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/moontrade/hgncd/codec"
)

// RedisConfig describes how to reach the key-value service.
type RedisConfig struct {
	Addr     string // host:port
	Password string // default ""

	RecordDB int // default 0
	ImageDB  int // default 1

	MaxIdle      int           // default 8
	IdleTimeout  time.Duration // default 4m
	DialTimeout  time.Duration // default 5s
	ReadTimeout  time.Duration // default 30s
	WriteTimeout time.Duration // default 30s

	// Codec compresses plot blobs. Default codec.None.
	Codec codec.Kind

	// PipelineSize bounds the number of commands PutMany sends before
	// reading replies. Default 512.
	PipelineSize int
}

func (conf *RedisConfig) def() {
	if conf.ImageDB == 0 && conf.RecordDB == 0 {
		conf.ImageDB = 1
	}
	if conf.MaxIdle == 0 {
		conf.MaxIdle = 8
	}
	if conf.IdleTimeout == 0 {
		conf.IdleTimeout = 4 * time.Minute
	}
	if conf.DialTimeout == 0 {
		conf.DialTimeout = 5 * time.Second
	}
	if conf.ReadTimeout == 0 {
		conf.ReadTimeout = 30 * time.Second
	}
	if conf.WriteTimeout == 0 {
		conf.WriteTimeout = 30 * time.Second
	}
	if conf.PipelineSize <= 0 {
		conf.PipelineSize = 512
	}
}

func newPool(conf RedisConfig, db int) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     conf.MaxIdle,
		IdleTimeout: conf.IdleTimeout,
		Dial: func() (redis.Conn, error) {
			opts := []redis.DialOption{
				redis.DialDatabase(db),
				redis.DialConnectTimeout(conf.DialTimeout),
				redis.DialReadTimeout(conf.ReadTimeout),
				redis.DialWriteTimeout(conf.WriteTimeout),
			}
			if conf.Password != "" {
				opts = append(opts, redis.DialPassword(conf.Password))
			}
			return redis.Dial("tcp", conf.Addr, opts...)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// Redis owns one connection pool per logical database.
type Redis struct {
	conf    RedisConfig
	records *redis.Pool
	images  *redis.Pool
}

// NewRedis creates the pools. Connections are dialed lazily.
func NewRedis(conf RedisConfig) *Redis {
	conf.def()
	return &Redis{
		conf:    conf,
		records: newPool(conf, conf.RecordDB),
		images:  newPool(conf, conf.ImageDB),
	}
}

// Records returns the record store on the record database.
func (r *Redis) Records() *RedisRecords {
	return &RedisRecords{pool: r.records, pipeline: r.conf.PipelineSize}
}

// Images returns the image store on the image database.
func (r *Redis) Images() *RedisImages {
	return &RedisImages{pool: r.images, kind: r.conf.Codec}
}

// Ping checks that the service answers on both databases.
func (r *Redis) Ping(ctx context.Context) error {
	for _, p := range []*redis.Pool{r.records, r.images} {
		if err := do(ctx, p, func(c redis.Conn) error {
			s, err := redis.String(c.Do("PING"))
			if err != nil {
				return err
			}
			if s != "PONG" {
				return fmt.Errorf("'PONG', got '%s'", s)
			}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// Close releases both pools.
func (r *Redis) Close() error {
	err := r.records.Close()
	if err2 := r.images.Close(); err == nil {
		err = err2
	}
	return err
}

func do(ctx context.Context, p *redis.Pool, fn func(c redis.Conn) error) error {
	c, err := p.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer c.Close()
	if err := fn(c); err != nil {
		return err
	}
	return ctx.Err()
}

// RedisRecords is a RecordStore. Documents are plain string values.
type RedisRecords struct {
	pool     *redis.Pool
	pipeline int
}

var _ RecordStore = (*RedisRecords)(nil)

func (s *RedisRecords) Keys(ctx context.Context) (keys []string, err error) {
	err = do(ctx, s.pool, func(c redis.Conn) error {
		keys, err = redis.Strings(c.Do("KEYS", "*"))
		return err
	})
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisRecords) Get(ctx context.Context, id string) (doc []byte, err error) {
	err = do(ctx, s.pool, func(c redis.Conn) error {
		doc, err = redis.Bytes(c.Do("GET", id))
		if errors.Is(err, redis.ErrNil) {
			return ErrNotFound
		}
		return err
	})
	return doc, err
}

func (s *RedisRecords) Put(ctx context.Context, id string, doc []byte) error {
	return do(ctx, s.pool, func(c redis.Conn) error {
		_, err := c.Do("SET", id, doc)
		return err
	})
}

// PutMany pipelines SET commands in batches of the configured size.
func (s *RedisRecords) PutMany(ctx context.Context, docs []Document) error {
	return do(ctx, s.pool, func(c redis.Conn) error {
		for len(docs) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			n := len(docs)
			if n > s.pipeline {
				n = s.pipeline
			}
			for _, d := range docs[:n] {
				if err := c.Send("SET", d.ID, d.Raw); err != nil {
					return err
				}
			}
			if err := c.Flush(); err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				if _, err := c.Receive(); err != nil {
					return err
				}
			}
			docs = docs[n:]
		}
		return nil
	})
}

func (s *RedisRecords) Len(ctx context.Context) (n int, err error) {
	err = do(ctx, s.pool, func(c redis.Conn) error {
		n, err = redis.Int(c.Do("DBSIZE"))
		return err
	})
	return n, err
}

func (s *RedisRecords) Clear(ctx context.Context) error {
	return do(ctx, s.pool, func(c redis.Conn) error {
		_, err := c.Do("FLUSHDB")
		return err
	})
}

// RedisImages is an ImageStore. The plot is stored as raw PNG bytes unless a
// compressing codec is configured.
type RedisImages struct {
	pool *redis.Pool
	kind codec.Kind
}

var _ ImageStore = (*RedisImages)(nil)

func (s *RedisImages) GetPlot(ctx context.Context) ([]byte, error) {
	var frame []byte
	err := do(ctx, s.pool, func(c redis.Conn) (err error) {
		frame, err = redis.Bytes(c.Do("GET", PlotKey))
		if errors.Is(err, redis.ErrNil) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return codec.Decode(frame)
}

func (s *RedisImages) PutPlot(ctx context.Context, png []byte) error {
	frame, err := codec.Encode(s.kind, png)
	if err != nil {
		return err
	}
	return do(ctx, s.pool, func(c redis.Conn) error {
		_, err := c.Do("SET", PlotKey, frame)
		return err
	})
}

func (s *RedisImages) DeletePlot(ctx context.Context) (deleted bool, err error) {
	err = do(ctx, s.pool, func(c redis.Conn) error {
		var n int
		n, err = redis.Int(c.Do("DEL", PlotKey))
		deleted = n > 0
		return err
	})
	return deleted, err
}
