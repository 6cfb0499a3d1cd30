package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-inventory/internal/domain/entity"
)

// La máquina de estados del traslado vive en un solo lugar; estos casos
// fijan las transiciones legales e ilegales.
func TestTransferStatus_TransicionesValidas(t *testing.T) {
	assert.True(t, entity.TransferRequested.CanTransitionTo(entity.TransferShipped))
	assert.True(t, entity.TransferRequested.CanTransitionTo(entity.TransferCanceled))
	assert.True(t, entity.TransferShipped.CanTransitionTo(entity.TransferReceived))
	assert.True(t, entity.TransferShipped.CanTransitionTo(entity.TransferCanceled))
}

func TestTransferStatus_TransicionesInvalidas(t *testing.T) {
	assert.False(t, entity.TransferRequested.CanTransitionTo(entity.TransferReceived),
		"no se puede recibir sin despachar")
	assert.False(t, entity.TransferReceived.CanTransitionTo(entity.TransferShipped),
		"received es terminal")
	assert.False(t, entity.TransferReceived.CanTransitionTo(entity.TransferCanceled),
		"received es terminal")
	assert.False(t, entity.TransferCanceled.CanTransitionTo(entity.TransferShipped),
		"canceled es terminal")
	assert.False(t, entity.TransferShipped.CanTransitionTo(entity.TransferRequested))
}

// Cada pierna del traslado deriva su propia clave de idempotencia; receive y
// la compensación comparten tipo transfer_in, por eso deben diferir.
func TestTransfer_ClavesPorPierna(t *testing.T) {
	tr := &entity.StockTransfer{IdempotencyKey: "tr-001"}
	assert.Equal(t, "tr-001/ship", tr.ShipKey())
	assert.Equal(t, "tr-001/receive", tr.ReceiveKey())
	assert.Equal(t, "tr-001/cancel", tr.CancelKey())
	assert.NotEqual(t, tr.ReceiveKey(), tr.CancelKey())
}

func TestMovementType_Valid(t *testing.T) {
	assert.True(t, entity.MovementIn.Valid())
	assert.True(t, entity.MovementCycleCountAdjust.Valid())
	assert.False(t, entity.MovementType("devolucion").Valid())
	assert.False(t, entity.MovementType("").Valid())
}
