package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// El retraso dobla por intento partiendo de la base y se satura en una hora.
func TestBackoffDelay_DoblePorIntento(t *testing.T) {
	base := 30 * time.Second

	assert.Equal(t, 30*time.Second, entity.BackoffDelay(base, 1))
	assert.Equal(t, time.Minute, entity.BackoffDelay(base, 2))
	assert.Equal(t, 2*time.Minute, entity.BackoffDelay(base, 3))
	assert.Equal(t, 4*time.Minute, entity.BackoffDelay(base, 4))
}

func TestBackoffDelay_TopeDeUnaHora(t *testing.T) {
	base := 30 * time.Second

	assert.Equal(t, time.Hour, entity.BackoffDelay(base, 10))
	assert.Equal(t, time.Hour, entity.BackoffDelay(base, 100),
		"intentos muy altos no desbordan")
	assert.Equal(t, time.Hour, entity.BackoffDelay(2*time.Hour, 1),
		"una base mayor al tope también se satura")
}

func TestBackoffDelay_IntentosNoPositivos(t *testing.T) {
	base := 30 * time.Second

	assert.Equal(t, base, entity.BackoffDelay(base, 0))
	assert.Equal(t, base, entity.BackoffDelay(base, -3))
}
