package bubbles

import (
	"math/rand/v2"
	"strings"
)

// UserInfo identifies the visitor for personalized bubbles.
type UserInfo struct {
	Name        string `json:"name"`
	School      string `json:"school"`
	IsAnonymous bool   `json:"isAnonymous,omitempty"`
}

// CanPersonalize reports whether templates can be filled for this user.
func (u *UserInfo) CanPersonalize() bool {
	if u == nil || u.IsAnonymous {
		return false
	}
	return strings.TrimSpace(u.Name) != "" && strings.TrimSpace(u.School) != ""
}

// Personalize fills the {name} and {school} placeholders of a template.
func (u *UserInfo) Personalize(template string) string {
	return strings.NewReplacer("{name}", u.Name, "{school}", u.School).Replace(template)
}

// Source names the pool a bubble text came from.
type Source string

const (
	SourceBuiltin      Source = "builtin"
	SourceCommunity    Source = "community"
	SourcePersonalized Source = "personalized"
	SourceExplicit     Source = "explicit"
)

// Selection is the outcome of one spawn decision.
type Selection struct {
	Text   string
	Source Source
}

// Select picks the text for one bubble and returns it with the updated
// recent window. It has no side effects besides drawing from rng.
func Select(rng *rand.Rand, pools Pools, user *UserInfo, recent Recent) (Selection, Recent) {
	personalize := user.CanPersonalize() && len(pools.Templates) > 0
	mix := TargetMix(UniqueCount(pools.Community), personalize)

	var sel Selection
	if personalize && rng.Float64() < mix.Personalized {
		template := pools.Templates[rng.IntN(len(pools.Templates))]
		sel = Selection{Text: user.Personalize(template), Source: SourcePersonalized}
	} else if rng.Float64() < mix.CommunityGivenNotPersonalized() {
		sel = Selection{Text: PickNonRepeating(rng, pools.Community, recent), Source: SourceCommunity}
	} else {
		sel = Selection{Text: PickNonRepeating(rng, pools.Builtin, recent), Source: SourceBuiltin}
	}

	return sel, recent.Remember(sel.Text)
}

// PickNonRepeating chooses uniformly among pool entries not in recent. When
// every entry is recent the whole pool is used instead. Blank entries are
// never chosen; an empty pool yields "".
func PickNonRepeating(rng *rand.Rand, pool []string, recent Recent) string {
	usable := make([]string, 0, len(pool))
	fresh := make([]string, 0, len(pool))
	for _, text := range pool {
		if strings.TrimSpace(text) == "" {
			continue
		}
		usable = append(usable, text)
		if !recent.Contains(text) {
			fresh = append(fresh, text)
		}
	}

	source := fresh
	if len(source) == 0 {
		source = usable
	}
	if len(source) == 0 {
		return ""
	}
	return source[rng.IntN(len(source))]
}
