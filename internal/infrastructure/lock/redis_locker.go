// Package lock serializa la reconciliación de pagos por referencia entre réplicas del API.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// ErrBusy otro proceso tiene el lock y no se liberó dentro del tiempo de espera.
var ErrBusy = errors.New("lock ocupado")

// RedisLocker lock distribuido con redislock.
type RedisLocker struct {
	client *redislock.Client
	log    *logger.Logger
	retry  time.Duration
	tries  int
}

// NewRedisClient cliente go-redis a partir de la configuración.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisLocker(rdb redis.UniversalClient, log *logger.Logger) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		log:    log,
		retry:  100 * time.Millisecond,
		tries:  50,
	}
}

// WithRetry cambia la espera: intervalo fijo entre intentos y número máximo de intentos.
func (l *RedisLocker) WithRetry(interval time.Duration, tries int) *RedisLocker {
	l.retry = interval
	l.tries = tries
	return l
}

// Obtain espera el lock con reintentos lineales. La función release nunca falla:
// si Redis no responde el lock expira solo al cumplirse ttl.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lk, err := l.client.Obtain(ctx, "lock:"+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.retry), l.tries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrBusy, key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis lock %s: %w", key, err)
	}
	return func() {
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lk.Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el lock")
		}
	}, nil
}

// NoopLocker se usa cuando no hay Redis configurado (una sola réplica):
// la deduplicación en payment_events sigue garantizando idempotencia.
type NoopLocker struct{}

func (NoopLocker) Obtain(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
