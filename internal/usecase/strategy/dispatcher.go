package strategy

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
	"form-agent/internal/infrastructure/prompts"
)

const (
	FallbackShortText = "Sample response"
	FallbackLongText  = "This is a sample response. I found the experience straightforward overall, and I would be happy to share more details if needed."
)

type Params struct {
	MaxTokens   int
	Temperature float32
}

type Config struct {
	ShortTextMaxLen int
	// Selection questions with at most RandomPickMaxOptions options are
	// answered at random with RandomPickProbability, skipping the generator.
	RandomPickMaxOptions  int
	RandomPickProbability float64
	// MultiChoice questions with at most this many options are always random.
	MultiRandomMaxOptions int
	GenerateTimeout       time.Duration

	ShortText Params
	LongText  Params
	Choice    Params
	Multi     Params
}

func DefaultConfig() Config {
	return Config{
		ShortTextMaxLen:       30,
		RandomPickMaxOptions:  3,
		RandomPickProbability: 0.3,
		MultiRandomMaxOptions: 3,
		GenerateTimeout:       30 * time.Second,
		ShortText:             Params{MaxTokens: 20, Temperature: 0.7},
		LongText:              Params{MaxTokens: 100, Temperature: 0.7},
		Choice:                Params{MaxTokens: 80, Temperature: 0.3},
		Multi:                 Params{MaxTokens: 100, Temperature: 0.5},
	}
}

type Dispatcher struct {
	llm    output.LLMPort
	logger output.LoggerPort
	cfg    Config
	rng    *rand.Rand
}

// New builds a dispatcher. A nil rng gets a time-seeded source.
func New(llm output.LLMPort, logger output.LoggerPort, cfg Config, rng *rand.Rand) *Dispatcher {
	if cfg.ShortTextMaxLen <= 0 {
		cfg.ShortTextMaxLen = 30
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Dispatcher{
		llm:    llm,
		logger: logger.WithField("component", "dispatcher"),
		cfg:    cfg,
		rng:    rng,
	}
}

// Answer never fails: generator errors turn into fallback values.
func (d *Dispatcher) Answer(ctx context.Context, q *entity.Question) entity.Answer {
	switch q.Type {
	case entity.QuestionShortText:
		return d.shortText(ctx, q)
	case entity.QuestionLongText:
		return d.longText(ctx, q)
	case entity.QuestionSingleChoice, entity.QuestionDropdown:
		return d.singleChoice(ctx, q)
	case entity.QuestionMultiChoice:
		return d.multiChoice(ctx, q)
	case entity.QuestionUnknown:
		return entity.NoAnswer{}
	}
	d.logger.Error("No answer strategy for question type", "question", q.Label, "type", q.Type)
	return entity.NoAnswer{}
}

func (d *Dispatcher) shortText(ctx context.Context, q *entity.Question) entity.Answer {
	text, err := d.generate(ctx, q, d.cfg.ShortText)
	if err == nil {
		text = firstLine(text)
	}
	if err != nil || text == "" {
		d.fallback(q, err)
		text = FallbackShortText
	}
	return entity.TextAnswer{Text: truncate(text, d.cfg.ShortTextMaxLen)}
}

func (d *Dispatcher) longText(ctx context.Context, q *entity.Question) entity.Answer {
	text, err := d.generate(ctx, q, d.cfg.LongText)
	if err != nil || text == "" {
		d.fallback(q, err)
		text = FallbackLongText
	}
	return entity.TextAnswer{Text: text}
}

func (d *Dispatcher) singleChoice(ctx context.Context, q *entity.Question) entity.Answer {
	n := len(q.Options)
	if n == 0 {
		d.logger.Warn("Selection question without options", "question", q.Label)
		return entity.NoAnswer{}
	}

	if n <= d.cfg.RandomPickMaxOptions && d.rng.Float64() < d.cfg.RandomPickProbability {
		idx := d.rng.IntN(n)
		d.logger.Debug("Random pick", "question", q.Label, "index", idx)
		return entity.SingleIndex{Index: idx}
	}

	text, err := d.generate(ctx, q, d.cfg.Choice)
	if err != nil {
		d.fallback(q, err)
		return entity.SingleIndex{Index: 0}
	}

	idx, ok := ParseSelectedOption(text, n)
	if !ok {
		idx = d.rng.IntN(n)
		d.logger.Warn("Unparseable selection, picking at random", "question", q.Label, "response", text, "index", idx)
	}
	return entity.SingleIndex{Index: clamp(idx, n)}
}

func (d *Dispatcher) multiChoice(ctx context.Context, q *entity.Question) entity.Answer {
	n := len(q.Options)
	if n == 0 {
		d.logger.Warn("Selection question without options", "question", q.Label)
		return entity.NoAnswer{}
	}

	if n <= d.cfg.MultiRandomMaxOptions {
		return d.sample(n, 2)
	}

	text, err := d.generate(ctx, q, d.cfg.Multi)
	if err != nil {
		d.fallback(q, err)
		return entity.NewMultiIndex(0)
	}

	indices := ParseSelectedOptions(text, n)
	if len(indices) == 0 {
		d.logger.Warn("Unparseable selection, sampling at random", "question", q.Label, "response", text)
		return d.sample(n, 3)
	}
	return entity.NewMultiIndex(indices...)
}

// sample picks between 1 and upTo distinct indices.
func (d *Dispatcher) sample(n, upTo int) entity.MultiIndex {
	k := 1 + d.rng.IntN(min(upTo, n))
	return entity.NewMultiIndex(d.rng.Perm(n)[:k]...)
}

func (d *Dispatcher) generate(ctx context.Context, q *entity.Question, p Params) (string, error) {
	prompt, err := prompts.ForQuestion(q)
	if err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrGenerationFailure, err)
	}
	if d.llm == nil {
		return "", fmt.Errorf("%w: no generator configured", entity.ErrGenerationFailure)
	}

	if d.cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.GenerateTimeout)
		defer cancel()
	}

	resp, err := d.llm.Generate(ctx, output.GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrGenerationFailure, err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (d *Dispatcher) fallback(q *entity.Question, err error) {
	if err == nil {
		err = fmt.Errorf("%w: empty response", entity.ErrGenerationFailure)
	}
	d.logger.Warn("Using fallback answer", "question", q.Label, "type", q.Type, "error", err)
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.Trim(strings.TrimSpace(line), `"'`)
		if line != "" {
			return line
		}
	}
	return ""
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:limit]))
}

func clamp(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
