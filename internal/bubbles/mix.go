package bubbles

import "strings"

// Mix is the target share of each content source. Shares sum to 1.
type Mix struct {
	Personalized float64
	Community    float64
	Builtin      float64
}

// Sum returns the total of all shares.
func (m Mix) Sum() float64 {
	return (m.Personalized + m.Community) + m.Builtin
}

// CommunityGivenNotPersonalized converts the overall community share into the
// probability of picking community once the personalized branch was skipped.
func (m Mix) CommunityGivenNotPersonalized() float64 {
	rest := 1 - m.Personalized
	if rest <= 0 {
		return 0
	}
	return m.Community / rest
}

const (
	smallCommunity = 10
	largeCommunity = 30
)

// TargetMix computes the source shares for the number of distinct community
// texts and whether the current user can be personalized.
func TargetMix(uniqueCount int, personalize bool) Mix {
	var personalized, community float64

	switch {
	case uniqueCount <= 0:
		if personalize {
			personalized = 0.25
		}
	case !personalize:
		switch {
		case uniqueCount < smallCommunity:
			community = 0.10
		case uniqueCount < largeCommunity:
			community = 0.33
		default:
			community = 0.50
		}
	default:
		switch {
		case uniqueCount < smallCommunity:
			personalized, community = 0.45, 0.10
		case uniqueCount < largeCommunity:
			personalized, community = 1.0/3, 1.0/3
		default:
			personalized, community = 0.25, 0.50
		}
	}

	return Mix{
		Personalized: personalized,
		Community:    community,
		Builtin:      1 - (personalized + community),
	}
}

// UniqueCount counts distinct non-empty texts after trimming.
func UniqueCount(pool []string) int {
	seen := make(map[string]struct{}, len(pool))
	for _, text := range pool {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		seen[trimmed] = struct{}{}
	}
	return len(seen)
}
