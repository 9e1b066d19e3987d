package domain

import (
	"strings"
	"time"
)

// SessionStatus represents the order session lifecycle status
type SessionStatus string

const (
	StatusBuilding SessionStatus = "building"
	StatusSent     SessionStatus = "sent"
)

// Session represents the order-in-progress record for one customer.
// Absence of the session in the store means "no active order", not an error.
type Session struct {
	Status    SessionStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	SentAt    *time.Time    `json:"sent_at,omitempty"`
	OrderID   string        `json:"order_id,omitempty"`
}

// SessionConfig represents session TTL configuration (value object)
type SessionConfig struct {
	BuildingTTL     time.Duration // Window to assemble an order
	ModificationTTL time.Duration // Window to modify after sending
	CompletedTTL    time.Duration // Completed marker lifetime
	ReceiptTTL      time.Duration // Receipt and address lifetime
}

// DefaultSessionConfig returns the default session TTL configuration
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		BuildingTTL:     30 * time.Minute,
		ModificationTTL: 15 * time.Minute,
		CompletedTTL:    2 * time.Hour,
		ReceiptTTL:      2 * time.Hour,
	}
}

// IsSent checks if the order has already been transmitted
func (s *Session) IsSent() bool {
	return s.Status == StatusSent
}

// MarkSent transitions the session to sent
func (s *Session) MarkSent(orderID string) {
	now := time.Now()
	s.Status = StatusSent
	s.SentAt = &now
	s.OrderID = orderID
}

// greetings is the fixed vocabulary that signals the start of a new visit.
// Matched as exact text or prefix of the customer's message.
var greetings = []string{
	"boa tarde", "boa noite", "bom dia", "boa", "olá", "ola", "oi",
	"eae", "eai", "e ai", "oii", "oiee", "hello", "hi", "hey",
	"opa", "opaa", "fala", "salve", "blz", "beleza",
}

// IsGreeting reports whether a message opens with a greeting-like utterance
func IsGreeting(message string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return false
	}
	for _, g := range greetings {
		if msg == g || strings.HasPrefix(msg, g) {
			return true
		}
	}
	return false
}
