package bubbles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectNeverUsesCommunityWhenNoUniqueTexts(t *testing.T) {
	rng := newTestRand()
	pools := DefaultPools([]string{"", "   "})

	var recent Recent
	for i := 0; i < 1000; i++ {
		var sel Selection
		sel, recent = Select(rng, pools, nil, recent)
		require.Equal(t, SourceBuiltin, sel.Source)
		require.NotEmpty(t, sel.Text)
	}
}

func TestPickNonRepeatingFallsBackToFullPool(t *testing.T) {
	rng := newTestRand()
	recent := Recent{"只此一句"}

	got := PickNonRepeating(rng, []string{"只此一句"}, recent)
	assert.Equal(t, "只此一句", got)
}

func TestPickNonRepeatingSkipsRecent(t *testing.T) {
	rng := newTestRand()
	pool := []string{"a", "b", "c"}
	recent := Recent{"a", "b"}

	for i := 0; i < 100; i++ {
		require.Equal(t, "c", PickNonRepeating(rng, pool, recent))
	}
}

func TestPickNonRepeatingComparesTrimmedText(t *testing.T) {
	rng := newTestRand()
	pool := []string{" a ", "b"}
	recent := Recent{"a"}

	for i := 0; i < 50; i++ {
		require.Equal(t, "b", PickNonRepeating(rng, pool, recent))
	}
}

func TestPickNonRepeatingEmptyPool(t *testing.T) {
	assert.Equal(t, "", PickNonRepeating(newTestRand(), nil, nil))
	assert.Equal(t, "", PickNonRepeating(newTestRand(), []string{" "}, nil))
}

func TestSelectPersonalizesTemplates(t *testing.T) {
	rng := newTestRand()
	user := &UserInfo{Name: "小林", School: "北大"}
	pools := DefaultPools(nil)

	var recent Recent
	personalized := 0
	for i := 0; i < 400; i++ {
		var sel Selection
		sel, recent = Select(rng, pools, user, recent)
		if sel.Source == SourcePersonalized {
			personalized++
			assert.NotContains(t, sel.Text, "{name}")
			assert.NotContains(t, sel.Text, "{school}")
			assert.True(t, strings.Contains(sel.Text, "小林") || strings.Contains(sel.Text, "北大"))
			assert.Equal(t, strings.TrimSpace(sel.Text), recent[len(recent)-1])
		}
	}
	assert.Greater(t, personalized, 0)
}

func TestSelectIgnoresAnonymousUser(t *testing.T) {
	rng := newTestRand()
	user := &UserInfo{Name: "同学", School: "理想院校", IsAnonymous: true}

	var recent Recent
	for i := 0; i < 300; i++ {
		var sel Selection
		sel, recent = Select(rng, DefaultPools(nil), user, recent)
		require.NotEqual(t, SourcePersonalized, sel.Source)
	}
}

func TestSelectApproximatesTargetMix(t *testing.T) {
	rng := newTestRand()
	community := make([]string, 40)
	for i := range community {
		community[i] = "祝福" + strings.Repeat("!", i+1)
	}
	pools := DefaultPools(community)
	user := &UserInfo{Name: "阿明", School: "清华"}

	const draws = 20000
	counts := map[Source]int{}
	var recent Recent
	for i := 0; i < draws; i++ {
		var sel Selection
		sel, recent = Select(rng, pools, user, recent)
		counts[sel.Source]++
	}

	assert.InDelta(t, 0.25, float64(counts[SourcePersonalized])/draws, 0.02)
	assert.InDelta(t, 0.50, float64(counts[SourceCommunity])/draws, 0.02)
	assert.InDelta(t, 0.25, float64(counts[SourceBuiltin])/draws, 0.02)
}
