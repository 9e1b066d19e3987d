package domain

import "strings"

// Suggestion represents a candidate product recently shown to the
// customer, kept so a later "yes" can recover name and price.
type Suggestion struct {
	Name       string  `json:"nome"`
	Price      float64 `json:"preco"`
	SearchTerm string  `json:"termo_busca,omitempty"`
}

// MergeSuggestions combines existing and new suggestions, deduplicating
// by lowercase name. The newest entry wins so prices stay current.
func MergeSuggestions(existing, incoming []Suggestion) []Suggestion {
	index := make(map[string]int, len(existing))
	merged := make([]Suggestion, 0, len(existing)+len(incoming))
	for _, s := range existing {
		key := strings.ToLower(s.Name)
		if i, ok := index[key]; ok {
			merged[i] = s
			continue
		}
		index[key] = len(merged)
		merged = append(merged, s)
	}
	for _, s := range incoming {
		key := strings.ToLower(s.Name)
		if i, ok := index[key]; ok {
			merged[i] = s
			continue
		}
		index[key] = len(merged)
		merged = append(merged, s)
	}
	return merged
}

// BestMatch finds the suggestion that most plausibly refers to the
// given product name: exact substring containment first, then a
// similarity ratio above 0.6.
func BestMatch(suggestions []Suggestion, productName string) *Suggestion {
	name := strings.ToLower(strings.TrimSpace(productName))
	if name == "" {
		return nil
	}

	var best *Suggestion
	var bestScore float64
	for i := range suggestions {
		candidate := strings.ToLower(suggestions[i].Name)
		if strings.Contains(candidate, name) || strings.Contains(name, candidate) {
			return &suggestions[i]
		}
		if score := SimilarityRatio(name, candidate); score > 0.6 && score > bestScore {
			bestScore = score
			best = &suggestions[i]
		}
	}
	return best
}

// SimilarityRatio computes 2*M/T where M is the total size of matching
// blocks and T the combined length, the classic difflib ratio.
func SimilarityRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	matches := matchingBlocks(a, b)
	return 2 * float64(matches) / float64(len(a)+len(b))
}

// matchingBlocks sums the lengths of recursively found longest common
// substrings between a and b.
func matchingBlocks(a, b string) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingBlocks(a[:ai], b[:bi])
	total += matchingBlocks(a[ai+size:], b[bi+size:])
	return total
}

func longestCommonSubstring(a, b string) (ai, bi, size int) {
	// Dynamic programming over byte positions, small inputs only
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					ai = i - size
					bi = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return ai, bi, size
}
