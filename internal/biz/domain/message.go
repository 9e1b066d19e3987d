package domain

import "strings"

// Fragment represents one buffered message fragment awaiting consolidation
type Fragment struct {
	Text  string `json:"text"`
	MsgID string `json:"mid,omitempty"`
}

// FragmentDelimiter separates fragments when joined into one turn. The
// literal delimiter lets the responder see item boundaries.
const FragmentDelimiter = " | "

// JoinFragments concatenates fragment texts in arrival order, skipping
// blank entries.
func JoinFragments(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, FragmentDelimiter)
}

// NormalizeCustomer reduces a phone/handle to its digit form so every
// store key family shares one customer identity.
func NormalizeCustomer(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
