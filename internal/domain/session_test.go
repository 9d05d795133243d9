package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleString(t *testing.T) {
	assert.Equal(t, "doctor", RoleDoctor.String())
	assert.Equal(t, "patient", RolePatient.String())
	assert.Equal(t, "unknown", Role(99).String())
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("doctor")
	assert.True(t, ok)
	assert.Equal(t, RoleDoctor, role)

	role, ok = ParseRole("patient")
	assert.True(t, ok)
	assert.Equal(t, RolePatient, role)

	_, ok = ParseRole("nurse")
	assert.False(t, ok)
}

func TestRolesPriorityOrder(t *testing.T) {
	assert.Equal(t, [RoleCount]Role{RoleDoctor, RolePatient}, Roles)
}

func TestSessionOccupiedAndMembers(t *testing.T) {
	s := &Session{ID: "S"}
	assert.Equal(t, 0, s.Occupied())
	assert.Empty(t, s.Members())

	s.Slots[RolePatient] = "c2"
	assert.Equal(t, 1, s.Occupied())
	assert.Equal(t, []ConnID{"c2"}, s.Members())

	s.Slots[RoleDoctor] = "c1"
	assert.Equal(t, 2, s.Occupied())
	// Priority order, not join order
	assert.Equal(t, []ConnID{"c1", "c2"}, s.Members())
}

func TestSignalKinds(t *testing.T) {
	for _, kind := range []string{"offer", "answer", "candidate"} {
		assert.True(t, SignalKinds[kind], "kind %q", kind)
	}
	assert.False(t, SignalKinds["sidechannel"])
}
