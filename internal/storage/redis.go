package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultRedisPrefix = "coffer"

// Redis stores each collection under <prefix>:<principal>:<module> and keeps
// the module names of a principal in the set <prefix>:<principal>:_modules.
// Record modules never start with an underscore.
type Redis struct {
	client *redis.Client
	prefix string
	retry  RetryPolicy
	log    *zap.Logger
}

// NewRedis connects to the server in opts and checks it answers PING.
func NewRedis(ctx context.Context, opts RedisOptions, retry RetryPolicy, log *zap.Logger) (*Redis, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis backend: address must be set")
	}
	if log == nil {
		log = zap.NewNop()
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	r := &Redis{client: client, prefix: prefix, retry: retry, log: log}
	err := r.retry.do(ctx, log, "ping", isRedisTransient, func() error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("redis backend: connecting to %s: %w", opts.Addr, err)
	}
	return r, nil
}

func (r *Redis) key(principalID, module string) string {
	return r.prefix + ":" + principalID + ":" + module
}

func (r *Redis) index(principalID string) string {
	return r.prefix + ":" + principalID + ":_modules"
}

// isRedisTransient reports connection-level failures only. Server replies
// such as NOAUTH or WRONGTYPE fail the same way on every attempt.
func isRedisTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, redis.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func (r *Redis) Read(ctx context.Context, principalID, module string) ([]byte, bool, error) {
	if err := validateKey(principalID, module); err != nil {
		return nil, false, err
	}

	var data []byte
	found := true
	err := r.retry.do(ctx, r.log, "get", isRedisTransient, func() error {
		v, err := r.client.Get(ctx, r.key(principalID, module)).Bytes()
		if errors.Is(err, redis.Nil) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		data = v
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("reading %s/%s: %w", principalID, module, err)
	}
	if !found {
		return nil, false, nil
	}
	return data, true, nil
}

func (r *Redis) Write(ctx context.Context, principalID, module string, data []byte) error {
	if err := validateKey(principalID, module); err != nil {
		return err
	}

	err := r.retry.do(ctx, r.log, "set", isRedisTransient, func() error {
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key(principalID, module), data, 0)
			pipe.SAdd(ctx, r.index(principalID), module)
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", principalID, module, err)
	}

	r.log.Debug("collection written", zap.String("module", module), zap.Int("bytes", len(data)))
	return nil
}

func (r *Redis) DeleteAll(ctx context.Context, principalID string) error {
	if err := validatePart("principal id", principalID); err != nil {
		return err
	}

	err := r.retry.do(ctx, r.log, "delete", isRedisTransient, func() error {
		modules, err := r.client.SMembers(ctx, r.index(principalID)).Result()
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(modules)+1)
		for _, m := range modules {
			keys = append(keys, r.key(principalID, m))
		}
		keys = append(keys, r.index(principalID))
		return r.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return fmt.Errorf("removing data for %s: %w", principalID, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
