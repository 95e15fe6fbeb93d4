package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(ReservationPending, ReservationConfirmed))
	assert.True(t, CanTransition(ReservationPending, ReservationCancelled))
	assert.True(t, CanTransition(ReservationPending, ReservationExpired))
	assert.True(t, CanTransition(ReservationPending, ReservationUsed))
	assert.True(t, CanTransition(ReservationConfirmed, ReservationPaid))
	assert.True(t, CanTransition(ReservationConfirmed, ReservationCancelled))
	assert.True(t, CanTransition(ReservationConfirmed, ReservationUsed))

	// skipping the confirmation step is not allowed
	assert.False(t, CanTransition(ReservationPending, ReservationPaid))
	// only pending holds expire
	assert.False(t, CanTransition(ReservationConfirmed, ReservationExpired))
	// no self transitions
	assert.False(t, CanTransition(ReservationPending, ReservationPending))
}

func TestTerminalStatesNeverMove(t *testing.T) {
	terminal := []ReservationStatus{ReservationPaid, ReservationCancelled, ReservationUsed, ReservationExpired}
	all := []ReservationStatus{
		ReservationPending, ReservationConfirmed, ReservationPaid,
		ReservationCancelled, ReservationUsed, ReservationExpired,
	}
	for _, from := range terminal {
		assert.True(t, IsTerminal(from))
		for _, to := range all {
			assert.False(t, CanTransition(from, to), "%s -> %s must be rejected", from, to)
		}
	}
}

func TestIsLive(t *testing.T) {
	assert.True(t, IsLive(ReservationPending))
	assert.True(t, IsLive(ReservationConfirmed))
	assert.True(t, IsLive(ReservationPaid))
	assert.False(t, IsLive(ReservationCancelled))
	assert.False(t, IsLive(ReservationUsed))
	assert.False(t, IsLive(ReservationExpired))
}

func TestValidRoomType(t *testing.T) {
	assert.True(t, ValidRoomType(RoomIMAX))
	assert.False(t, ValidRoomType(RoomType("DRIVE_IN")))
}
