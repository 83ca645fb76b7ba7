package bubbles

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func TestTargetMixBrackets(t *testing.T) {
	tests := []struct {
		name         string
		unique       int
		personalize  bool
		personalized float64
		community    float64
	}{
		{"empty anonymous", 0, false, 0, 0},
		{"empty personalized", 0, true, 0.25, 0},
		{"9 anonymous", 9, false, 0, 0.10},
		{"10 anonymous", 10, false, 0, 0.33},
		{"29 anonymous", 29, false, 0, 0.33},
		{"30 anonymous", 30, false, 0, 0.50},
		{"9 personalized", 9, true, 0.45, 0.10},
		{"10 personalized", 10, true, 1.0 / 3, 1.0 / 3},
		{"29 personalized", 29, true, 1.0 / 3, 1.0 / 3},
		{"30 personalized", 30, true, 0.25, 0.50},
		{"many personalized", 500, true, 0.25, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mix := TargetMix(tt.unique, tt.personalize)
			assert.Equal(t, tt.personalized, mix.Personalized)
			assert.Equal(t, tt.community, mix.Community)
			assert.Equal(t, 1.0, mix.Sum())
			assert.GreaterOrEqual(t, mix.Builtin, 0.0)
		})
	}
}

func TestTargetMixSharesSumExactly(t *testing.T) {
	for _, personalize := range []bool{false, true} {
		for _, unique := range []int{0, 1, 9, 10, 29, 30, 500} {
			mix := TargetMix(unique, personalize)
			sum := mix.Personalized + mix.Community + mix.Builtin
			assert.Equal(t, 1.0, sum, "unique=%d personalize=%v", unique, personalize)
		}
	}
}

func TestCommunityGivenNotPersonalized(t *testing.T) {
	mix := TargetMix(30, true)
	assert.InDelta(t, 0.5/0.75, mix.CommunityGivenNotPersonalized(), 1e-12)

	assert.Equal(t, 0.0, Mix{Personalized: 1, Community: 0.2}.CommunityGivenNotPersonalized())
}

func TestUniqueCountTrimsAndSkipsBlank(t *testing.T) {
	assert.Equal(t, 0, UniqueCount(nil))
	assert.Equal(t, 0, UniqueCount([]string{"", "   "}))
	assert.Equal(t, 2, UniqueCount([]string{"加油", " 加油 ", "上岸", ""}))
}

func TestRecentWindowIsBounded(t *testing.T) {
	var recent Recent
	for i := 0; i < 50; i++ {
		recent = recent.Remember(string(rune('a' + i%26)))
		require.LessOrEqual(t, len(recent), RecentCapacity)
	}
	assert.Len(t, recent, RecentCapacity)

	unchanged := recent.Remember("   ")
	assert.Equal(t, recent, unchanged)
}

func TestRecentRememberDoesNotAlias(t *testing.T) {
	base := Recent{"a", "b"}
	next := base.Remember("c")
	next[0] = "z"
	assert.Equal(t, "a", base[0])
}
