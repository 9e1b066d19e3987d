package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkSent(t *testing.T) {
	s := Session{Status: StatusBuilding}
	s.MarkSent("ord-123")

	assert.True(t, s.IsSent())
	assert.Equal(t, "ord-123", s.OrderID)
	assert.NotNil(t, s.SentAt)
}

func TestIsGreeting(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"oi", true},
		{"Oi, tudo bem?", true},
		{"BOA TARDE", true},
		{"  bom dia  ", true},
		{"opa, quero fazer um pedido", true},
		{"quero 2kg de picanha", false},
		{"", false},
		{"finalizar", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsGreeting(tc.message), "message %q", tc.message)
	}
}

func TestDefaultSessionConfig(t *testing.T) {
	cfg := DefaultSessionConfig()

	assert.Greater(t, cfg.BuildingTTL, cfg.ModificationTTL)
	assert.Greater(t, cfg.CompletedTTL, cfg.BuildingTTL)
}
