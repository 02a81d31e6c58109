package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/pkg/logger"
)

func TestNew_JSONConServicioYComponente(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "debug", Service: "tienda-api", Output: &buf})

	log.Named("orders").Info().Str("order_number", "ORD-1").Msg("pedido creado")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tienda-api", entry["service"])
	assert.Equal(t, "orders", entry["component"])
	assert.Equal(t, "ORD-1", entry["order_number"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_NivelInvalidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "ruido", Output: &buf})

	log.Debug().Msg("no debe salir")
	assert.Empty(t, buf.String())

	log.Info().Msg("sí sale")
	assert.Contains(t, buf.String(), "sí sale")
}
