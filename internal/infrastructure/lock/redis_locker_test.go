package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/Tienda-api/internal/infrastructure/lock"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Contenedor Redis
// ──────────────────────────────────────────────────────────────────────────────

func setupRedis(t *testing.T) *lock.RedisLocker {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con Redis omitida en modo -short")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	rdb := lock.NewRedisClient(addr, "", 0)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	return lock.NewRedisLocker(rdb, logger.Nop()).WithRetry(10*time.Millisecond, 3)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestRedisLocker_ExclusionYLiberacion(t *testing.T) {
	locker := setupRedis(t)
	ctx := context.Background()

	release, err := locker.Obtain(ctx, "pago:ORD-1", 5*time.Second)
	require.NoError(t, err)

	_, err = locker.Obtain(ctx, "pago:ORD-1", 5*time.Second)
	require.ErrorIs(t, err, lock.ErrBusy)

	other, err := locker.Obtain(ctx, "pago:ORD-2", 5*time.Second)
	require.NoError(t, err, "otra referencia no espera")
	other()

	release()
	again, err := locker.Obtain(ctx, "pago:ORD-1", 5*time.Second)
	require.NoError(t, err)
	again()
}

func TestRedisLocker_LiberarLockExpiradoNoSueltaElAjeno(t *testing.T) {
	locker := setupRedis(t)
	ctx := context.Background()

	stale, err := locker.Obtain(ctx, "pago:ORD-3", 100*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(300 * time.Millisecond)

	current, err := locker.Obtain(ctx, "pago:ORD-3", 5*time.Second)
	require.NoError(t, err, "el lock vencido se puede tomar")
	defer current()

	assert.NotPanics(t, stale)
	_, err = locker.Obtain(ctx, "pago:ORD-3", 5*time.Second)
	assert.ErrorIs(t, err, lock.ErrBusy, "liberar el lock vencido no afecta al nuevo dueño")
}

func TestNoopLocker(t *testing.T) {
	release, err := lock.NoopLocker{}.Obtain(context.Background(), "pago:ORD-4", time.Second)
	require.NoError(t, err)
	require.NotNil(t, release)
	assert.NotPanics(t, release)
}
