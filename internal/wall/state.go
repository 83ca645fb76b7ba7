package wall

import "time"

// State is where the visitor is in the wall flow.
type State int

const (
	StateIntro State = iota
	StateIdle
	StateGenerating
	StateShowWish
)

func (s State) String() string {
	switch s {
	case StateIntro:
		return "intro"
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateShowWish:
		return "show_wish"
	default:
		return "unknown"
	}
}

// LoadingInterval is how long each loading message stays up.
const LoadingInterval = 1500 * time.Millisecond

// LoadingMessages rotate while a wish is being generated.
var LoadingMessages = []string{
	"正在连接好运宇宙...",
	"正在收集星光...",
	"正在撰写你的专属上岸剧本...",
	"正在为你的笔尖注入神力...",
	"好运正在赶来的路上...",
	"正在打包你的录取通知书...",
}

// LoadingMessage returns the message to show after waiting for elapsed.
func LoadingMessage(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	i := int(elapsed/LoadingInterval) % len(LoadingMessages)
	return LoadingMessages[i]
}
