package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "tienda-api", cfg.App.Name)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "10000", cfg.Store.ShippingFee.String())
	assert.Equal(t, "0.19", cfg.Store.TaxRate.String())
	assert.True(t, cfg.Store.FreeShippingThreshold.IsZero())
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("DB_MAX_CONNS", "40")
	t.Setenv("STORE_SHIPPING_FEE", "7500")
	t.Setenv("STORE_TAX_RATE", "0.08")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("WOMPI_EVENTS_SECRET", "secreto")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.EqualValues(t, 40, cfg.DB.MaxConns)
	assert.Equal(t, "7500", cfg.Store.ShippingFee.String())
	assert.Equal(t, "0.08", cfg.Store.TaxRate.String())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "secreto", cfg.Payments.WompiEventsSecret)
}

func TestLoad_Rechazos(t *testing.T) {
	t.Run("driver desconocido", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "mysql")
		_, err := config.Load()
		require.Error(t, err)
	})
	t.Run("tasa de impuesto fuera de rango", func(t *testing.T) {
		t.Setenv("STORE_TAX_RATE", "1.5")
		_, err := config.Load()
		require.Error(t, err)
	})
	t.Run("decimal inválido", func(t *testing.T) {
		t.Setenv("STORE_SHIPPING_FEE", "diez mil")
		_, err := config.Load()
		require.Error(t, err)
	})
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "tienda", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/tienda?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro@host/db"
	assert.Equal(t, "postgres://otro@host/db", c.ConnectionString())
}
