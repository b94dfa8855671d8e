package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/logger"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
)

// LLMConfig holds client settings
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLM asks an OpenAI-compatible model for thesis_beta and the two
// thesis judgments. Any failure falls back to the wrapped judge.
type LLM struct {
	api      *openai.Client
	model    string
	timeout  time.Duration
	fallback contracts.Judge
	logger   *logger.Logger
}

// NewLLM creates an LLM judge
func NewLLM(cfg LLMConfig, fallback contracts.Judge, log *logger.Logger) (*LLM, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("judge: API key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if fallback == nil {
		fallback = NewRules(DefaultThesisBeta)
	}

	openaiCfg := openai.DefaultConfig(apiKey)
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		openaiCfg.BaseURL = baseURL
	}

	return &LLM{
		api:      openai.NewClientWithConfig(openaiCfg),
		model:    model,
		timeout:  timeout,
		fallback: fallback,
		logger:   log.Module("judge"),
	}, nil
}

const systemPrompt = `You grade how directly a tradable instrument expresses an investment thesis.
Reply with a single JSON object and nothing else:
{"thesis_beta": <0..1>, "thesis_contradiction": <bool>, "already_priced_in": <bool>, "rationale": "<one sentence>"}
thesis_beta is 1 when the payoff is the thesis itself and 0 when unrelated.
thesis_contradiction is true when the position profits if the thesis is wrong.
already_priced_in is true when the market price already reflects the thesis.`

type llmVerdict struct {
	ThesisBeta      *float64 `json:"thesis_beta"`
	Contradiction   bool     `json:"thesis_contradiction"`
	AlreadyPricedIn bool     `json:"already_priced_in"`
	Rationale       string   `json:"rationale"`
}

// Assess implements contracts.Judge
func (l *LLM) Assess(ctx context.Context, thesis contracts.Thesis, inst contracts.CandidateInstrument, profile *contracts.ReturnProfile) (contracts.Judgment, error) {
	// 호출자가 모든 판단을 제공했으면 LLM 생략
	h := inst.Hints
	if h.ThesisBeta != nil && h.Contradiction != nil && h.AlreadyPricedIn != nil {
		return l.fallback.Assess(ctx, thesis, inst, profile)
	}

	verdict, err := l.ask(ctx, thesis, inst, profile)
	if err != nil {
		l.logger.WithError(err).WithFields(map[string]interface{}{
			"platform": inst.Platform,
			"ticker":   inst.Ticker,
		}).Warn("LLM judge failed, using rules")
		return l.fallback.Assess(ctx, thesis, inst, profile)
	}

	j := contracts.Judgment{
		ThesisBeta:      *verdict.ThesisBeta,
		Contradiction:   verdict.Contradiction,
		AlreadyPricedIn: verdict.AlreadyPricedIn,
		Rationale:       verdict.Rationale,
	}

	// 방향이 명시적으로 어긋나면 LLM 의견과 무관하게 contradiction
	exposure := inst.ExposureDirection()
	if thesis.Direction != "" && exposure != "" && exposure != thesis.Direction {
		j.Contradiction = true
	}

	return applyHints(j, h), nil
}

func (l *LLM) ask(ctx context.Context, thesis contracts.Thesis, inst contracts.CandidateInstrument, profile *contracts.ReturnProfile) (*llmVerdict, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	resp, err := l.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(thesis, inst, profile)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0,
		MaxTokens:      300,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("judge: empty response")
	}

	return parseVerdict(resp.Choices[0].Message.Content)
}

func parseVerdict(content string) (*llmVerdict, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var v llmVerdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &v); err != nil {
		return nil, fmt.Errorf("judge: parse verdict: %w", err)
	}
	if v.ThesisBeta == nil {
		return nil, fmt.Errorf("judge: verdict missing thesis_beta")
	}
	return &v, nil
}

func userPrompt(thesis contracts.Thesis, inst contracts.CandidateInstrument, profile *contracts.ReturnProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thesis: %s\n", thesis.Claim)
	if thesis.Direction != "" {
		fmt.Fprintf(&b, "Thesis direction: %s\n", thesis.Direction)
	}
	if thesis.CatalystDate != nil {
		fmt.Fprintf(&b, "Catalyst: %s\n", thesis.CatalystDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Instrument: %s on %s (%s, %s exposure)\n", inst.Name(), inst.Platform, inst.Kind, inst.ExposureDirection())
	if profile != nil {
		fmt.Fprintf(&b, "Return if right: %.1f%%, if wrong: %.1f%%\n", profile.ReturnIfRightPct, profile.ReturnIfWrongPct)
		if profile.MarketImpliedProb != nil {
			fmt.Fprintf(&b, "Market implied probability: %.2f\n", *profile.MarketImpliedProb)
		}
		if title, ok := profile.ExecutionDetails["title"].(string); ok && title != "" {
			fmt.Fprintf(&b, "Market title: %s\n", title)
		}
	}
	return b.String()
}
