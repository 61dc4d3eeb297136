package redisstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	apperrors "github.com/jrsteele09/book-library-client/internal/errors"
	"github.com/jrsteele09/book-library-client/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultTimeout      = 3 * time.Second
	defaultConnectTries = 3
	scanBatch           = 100
)

var _ storage.ExpiringStore = (*RedisStore)(nil)

// Options configures the Redis connection and key namespace
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string           // Every key is stored as Prefix+key
	Timeout  time.Duration    // Per command timeout, defaults to 3s
	NowFunc  func() time.Time // Clock used to turn expiry instants into TTLs

	ConnectTries   uint                   // PING attempts made by New, defaults to 3
	ConnectBackOff func() backoff.BackOff // Delay between PING attempts, exponential by default
}

// RedisStore is a region kept in Redis. Used for the profile region it survives restarts,
// used for the session region SetWithExpiry lets Redis expire the credential itself.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	nowFunc func() time.Time
}

// New connects to Redis and verifies the connection with a PING, retrying while Redis comes up
func New(opts Options) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	s := NewWithClient(client, opts)

	if err := s.ping(opts); err != nil {
		_ = client.Close()
		return nil, apperrors.Wrapf(err, "redis connection failed at %s", opts.Addr)
	}
	return s, nil
}

func (s *RedisStore) ping(opts Options) error {
	tries := opts.ConnectTries
	if tries == 0 {
		tries = defaultConnectTries
	}
	newBackOff := opts.ConnectBackOff
	if newBackOff == nil {
		newBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			return b
		}
	}

	_, err := backoff.Retry(context.Background(), func() (struct{}, error) {
		ctx, cancel := s.context()
		defer cancel()
		return struct{}{}, s.client.Ping(ctx).Err()
	},
		backoff.WithBackOff(newBackOff()),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Debug().Err(err).Str("addr", opts.Addr).Dur("retry_in", next).Msg("redis not reachable")
		}),
	)
	return err
}

// NewWithClient wraps an existing client. Connection fields of opts are ignored.
func NewWithClient(client *redis.Client, opts Options) *RedisStore {
	s := &RedisStore{
		client:  client,
		prefix:  opts.Prefix,
		timeout: opts.Timeout,
		nowFunc: opts.NowFunc,
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.nowFunc == nil {
		s.nowFunc = time.Now
	}
	return s
}

func (s *RedisStore) Get(key string) (string, error) {
	ctx, cancel := s.context()
	defer cancel()

	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", apperrors.Wrapf(err, "redis get %q", key)
	}
	return v, nil
}

func (s *RedisStore) Set(key, value string) error {
	ctx, cancel := s.context()
	defer cancel()

	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return apperrors.Wrapf(err, "redis set %q", key)
	}
	return nil
}

func (s *RedisStore) SetWithExpiry(key, value string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.nowFunc())
	if ttl <= 0 {
		return s.Remove(key)
	}
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}

	ctx, cancel := s.context()
	defer cancel()

	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return apperrors.Wrapf(err, "redis set %q with expiry", key)
	}
	return nil
}

func (s *RedisStore) Remove(key string) error {
	ctx, cancel := s.context()
	defer cancel()

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return apperrors.Wrapf(err, "redis del %q", key)
	}
	return nil
}

// Clear removes every key of this store's namespace and nothing else
func (s *RedisStore) Clear() error {
	ctx, cancel := s.context()
	defer cancel()

	iter := s.client.Scan(ctx, 0, escapeGlob(s.prefix)+"*", scanBatch).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return apperrors.Wrapf(err, "redis scan")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return apperrors.Wrapf(err, "redis clear")
	}
	return nil
}

// escapeGlob makes every character of prefix match literally in a SCAN pattern
func escapeGlob(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
