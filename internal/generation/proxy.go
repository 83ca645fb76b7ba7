package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwy87/kaoyan/internal/metrics"
)

const (
	DefaultName   = "考生"
	DefaultSchool = "理想院校"

	defaultTemperature = 0.7
	defaultTimeout     = 20 * time.Second
)

// FallbackMessages are served whenever generation is unavailable.
var FallbackMessages = []string{
	"保持热爱，奔赴山海，祝你考试顺利！",
	"愿你合上笔盖的瞬间，有侠客收剑入鞘的骄傲。",
	"请再悄悄加把劲，你想要的马上就来了。",
	"来路风尘仆仆，归途星河璀璨，祝上岸！",
	"那些看似不起眼的日复一日，终将在某一天让你看到坚持的意义。",
	"愿你历尽千帆，终能得偿所愿。",
	"你的日积月累，终将变成别人的望尘莫及。",
	"祝你：拥有“会当凌绝顶”的傲气，更有“一览众山小”的底气！",
	"希君生羽翼，一化北溟鱼。",
	"愿你以渺小启程，以伟大结束。",
}

const promptTemplate = `
You are a warm, encouraging assistant. The Chinese Graduate Entrance Exam (Kaoyan) is approaching.
User Name: {name}
Target University: {school}

Please generate a short, poetic, and encouraging blessing for this specific student.
If the User Name is "同学" (Student) or generic, make the blessing suitable for any examinee.
Include their name or target university naturally if it fits the poetic flow and is specific, but it's not strictly required.
The tone should be gentle, hopeful, and inspiring.
Keep it under 40 Chinese characters.
Only return the text of the blessing, nothing else.
`

// Config enables upstream generation. All of APIKey, BaseURL and Model are required.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Result is the text shown on the wish card.
type Result struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// Proxy forwards prompts to an OpenAI-compatible chat completions endpoint.
type Proxy struct {
	cfg        *Config
	endpoint   string
	httpClient *http.Client
	log        *zerolog.Logger
	metrics    *metrics.Metrics
}

// New creates a proxy. A nil cfg yields a fallback-only proxy that never
// touches the network.
func New(cfg *Config, logger *zerolog.Logger, m *metrics.Metrics) *Proxy {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	p := &Proxy{log: logger, metrics: m}
	if cfg == nil {
		return p
	}

	c := *cfg
	if c.Temperature <= 0 {
		c.Temperature = defaultTemperature
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	p.cfg = &c
	p.endpoint = ResolveChatCompletionsURL(c.BaseURL)
	p.httpClient = &http.Client{Timeout: c.Timeout}
	return p
}

// Enabled reports whether upstream generation is configured.
func (p *Proxy) Enabled() bool {
	return p.cfg != nil
}

// Generate returns a blessing for the student. It never fails: any problem
// upstream is logged and answered from FallbackMessages.
func (p *Proxy) Generate(ctx context.Context, name, school string) Result {
	if p.cfg == nil {
		p.metrics.Generation(true)
		return Result{Text: Fallback(), Fallback: true}
	}

	text, err := p.complete(ctx, BuildPrompt(name, school))
	if err != nil {
		p.log.Warn().Err(err).Msg("blessing generation failed, using fallback")
		p.metrics.Generation(true)
		return Result{Text: Fallback(), Fallback: true}
	}

	p.metrics.Generation(false)
	return Result{Text: text}
}

// Fallback picks a random fallback message.
func Fallback() string {
	return FallbackMessages[rand.IntN(len(FallbackMessages))]
}

// BuildPrompt fills the prompt template, defaulting blank name and school.
func BuildPrompt(name, school string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	school = strings.TrimSpace(school)
	if school == "" {
		school = DefaultSchool
	}
	return strings.NewReplacer("{name}", name, "{school}", school).Replace(promptTemplate)
}

// ResolveChatCompletionsURL accepts a provider root, a /v1 base or a full
// chat completions URL.
func ResolveChatCompletionsURL(baseURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	switch {
	case strings.HasSuffix(trimmed, "/chat/completions"):
		return trimmed
	case strings.Contains(trimmed, "/v1"):
		return trimmed + "/chat/completions"
	default:
		return trimmed + "/v1/chat/completions"
	}
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []chatCompletionMessage `json:"messages"`
	Temperature float64                 `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

func (p *Proxy) complete(ctx context.Context, prompt string) (string, error) {
	payload := chatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    []chatCompletionMessage{{Role: "user", Content: prompt}},
		Temperature: p.cfg.Temperature,
	}

	body := &bytes.Buffer{}
	if err := json.NewEncoder(body).Encode(payload); err != nil {
		return "", fmt.Errorf("generation: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("generation: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation: execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("generation: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("generation: decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("generation: response contains no choices")
	}

	text := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("generation: response content is empty")
	}
	return text, nil
}
