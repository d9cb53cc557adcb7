package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 12, cfg.CarritoTTLHoras)
	assert.Equal(t, 5, cfg.PrecioCacheMinutos)
	assert.Equal(t, "ventarapida.eventos", cfg.OutboxExchange)
}

func TestLoad_EnvSobrescribe(t *testing.T) {
	t.Setenv("JWT_SECRET", "super-secreto")
	t.Setenv("PORT", "9090")
	t.Setenv("ALERTA_EMAILS", "a@x.com, b@x.com ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "super-secreto", cfg.JWTSecret)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, cfg.Destinatarios())
}
