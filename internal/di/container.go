package di

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"form-agent/internal/application/port/input"
	"form-agent/internal/application/port/output"
	"form-agent/internal/infrastructure/artifact"
	"form-agent/internal/infrastructure/browser/rod"
	"form-agent/internal/infrastructure/config"
	"form-agent/internal/infrastructure/llm/langchain"
	"form-agent/internal/infrastructure/llm/openrouter"
	"form-agent/internal/infrastructure/logger"
	"form-agent/internal/infrastructure/recorder"
	"form-agent/internal/infrastructure/store/sqlite"
	"form-agent/internal/usecase/classifier"
	"form-agent/internal/usecase/filler"
	"form-agent/internal/usecase/locator"
	"form-agent/internal/usecase/navigation"
	"form-agent/internal/usecase/orchestrator"
	"form-agent/internal/usecase/strategy"
	"form-agent/internal/usecase/submission"
)

type Container struct {
	Browser  output.BrowserPort
	LLM      output.LLMPort
	Logger   output.LoggerPort
	Recorder output.RecorderPort
	Store    *sqlite.Store

	Classifier *classifier.Classifier
	FormFiller input.FormFiller
	Runner     input.SubmissionRunner

	ownsLogger bool
}

type Option func(*options)

type options struct {
	browser output.BrowserPort
	llm     output.LLMPort
	logger  output.LoggerPort
	rng     *rand.Rand
}

// WithBrowser replaces the rod browser, e.g. with the static driver.
func WithBrowser(b output.BrowserPort) Option {
	return func(o *options) { o.browser = b }
}

func WithLLM(l output.LLMPort) Option {
	return func(o *options) { o.llm = l }
}

// WithLogger shares an existing logger; the container will not close it.
func WithLogger(l output.LoggerPort) Option {
	return func(o *options) { o.logger = l }
}

func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = r }
}

func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (c *Container, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c = &Container{}
	defer func() {
		if err != nil {
			c.Close()
			c = nil
		}
	}()

	c.Logger = o.logger
	if c.Logger == nil {
		log, err := NewLogger(cfg.Logger)
		if err != nil {
			return c, fmt.Errorf("failed to create logger: %w", err)
		}
		c.Logger, c.ownsLogger = log, true
	}

	c.Browser = o.browser
	if c.Browser == nil {
		browser, err := rod.NewBrowserAdapter(ctx, browserConfig(cfg.Browser))
		if err != nil {
			return c, fmt.Errorf("failed to create browser: %w", err)
		}
		c.Browser = browser
	}

	c.LLM = o.llm
	if c.LLM == nil {
		llm, err := newLLM(cfg.LLM, c.Logger)
		if err != nil {
			return c, fmt.Errorf("failed to create llm client: %w", err)
		}
		c.LLM = llm
	}

	if err := c.openRecorders(cfg); err != nil {
		return c, err
	}

	loc := newLocator(c.Browser, cfg, c.Logger)
	c.Classifier = classifier.New(c.Browser, loc, c.Logger, classifierConfig(cfg.Classifier))

	rng := o.rng
	if rng == nil && cfg.Strategy.Seed != 0 {
		rng = rand.New(rand.NewPCG(cfg.Strategy.Seed, cfg.Strategy.Seed>>1))
	}
	answers := strategy.New(c.LLM, c.Logger, strategyConfig(cfg.Strategy), rng)

	c.FormFiller = orchestrator.New(orchestrator.Components{
		Browser:   c.Browser,
		Extractor: c.Classifier,
		Answers:   answers,
		Filler:    filler.New(c.Browser, loc, c.Classifier, c.Logger),
		Navigator: navigation.New(c.Browser, loc, c.Logger, navigationConfig(cfg.Navigation)),
		Recorder:  c.Recorder,
		Artifacts: artifact.NewScreenshotStore(cfg.Run.ScreenshotDir, c.Logger),
		Logger:    c.Logger,
	}, orchestrator.Config{MaxPages: cfg.Run.MaxPages})

	c.Runner = submission.New(c.FormFiller, c.Logger, cfg.Run.Delay)
	return c, nil
}

func (c *Container) openRecorders(cfg *config.Config) error {
	var recs recorder.Multi
	if cfg.Run.RecordsPath != "" {
		j, err := recorder.OpenJSONL(cfg.Run.RecordsPath)
		if err != nil {
			return fmt.Errorf("failed to open answer log: %w", err)
		}
		recs = append(recs, j)
	}
	if cfg.Store.Path != "" {
		s, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			_ = recs.Close()
			return fmt.Errorf("failed to open run history: %w", err)
		}
		c.Store = s
		recs = append(recs, s)
	}
	if len(recs) > 0 {
		c.Recorder = recs
	}
	return nil
}

// Close releases everything the container opened. Recorders close before the
// browser so the last run row is flushed even if the browser hangs.
func (c *Container) Close() error {
	var errs []error
	if c.Recorder != nil {
		errs = append(errs, c.Recorder.Close())
	}
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.Logger != nil && c.ownsLogger {
		errs = append(errs, c.Logger.Close())
	}
	return errors.Join(errs...)
}

// NewClassifier builds a standalone classifier over browser, for offline
// inspection of saved pages.
func NewClassifier(browser output.BrowserPort, cfg *config.Config, log output.LoggerPort) *classifier.Classifier {
	return classifier.New(browser, newLocator(browser, cfg, log), log, classifierConfig(cfg.Classifier))
}

func newLocator(browser output.BrowserPort, cfg *config.Config, log output.LoggerPort) *locator.Locator {
	return locator.New(browser, log, locator.Config{
		Timeout:      cfg.Locator.Timeout,
		PollInterval: cfg.Locator.PollInterval,
	})
}

func NewLogger(cfg config.LoggerConfig) (*logger.LoggerAdapter, error) {
	lc := logger.DefaultConfig()
	lc.Level = cfg.Level
	lc.Format = cfg.Format
	lc.Colors = cfg.Colors
	lc.AddCaller = cfg.AddCaller
	lc.LogFile = cfg.File
	lc.MaxSize = cfg.MaxSize
	lc.MaxBackups = cfg.MaxBackups
	lc.MaxAge = cfg.MaxAge
	lc.Compress = cfg.Compress
	return logger.New(lc, nil)
}

func newLLM(cfg config.LLMConfig, log output.LoggerPort) (output.LLMPort, error) {
	switch cfg.Provider {
	case config.ProviderLangchain:
		return langchain.New(langchain.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	case config.ProviderOpenRouter, "":
		llmCfg := openrouter.DefaultConfig(cfg.APIKey, cfg.Model)
		if cfg.BaseURL != "" {
			llmCfg.BaseURL = cfg.BaseURL
		}
		if cfg.Timeout > 0 {
			llmCfg.Timeout = cfg.Timeout
		}
		llmCfg.Logger = log.WithField("component", "openrouter")
		return openrouter.NewOpenRouterAdapter(llmCfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func browserConfig(cfg config.BrowserConfig) rod.BrowserConfig {
	bc := rod.DefaultConfig()
	bc.Headless = cfg.Headless
	bc.SlowMotion = cfg.SlowMotion
	if cfg.Timeout > 0 {
		bc.Timeout = cfg.Timeout
	}
	bc.NoSandbox = cfg.NoSandbox
	bc.DevTools = cfg.DevTools
	bc.Trace = cfg.Trace
	bc.Bin = cfg.Bin
	return bc
}

func classifierConfig(cfg config.ClassifierConfig) classifier.Config {
	cc := classifier.DefaultConfig()
	if cfg.ProximityThreshold > 0 {
		cc.ProximityThreshold = cfg.ProximityThreshold
	}
	if cfg.LabelTimeout > 0 {
		cc.LabelTimeout = cfg.LabelTimeout
	}
	if cfg.OptionTimeout > 0 {
		cc.OptionTimeout = cfg.OptionTimeout
	}
	if len(cfg.PlaceholderOptions) > 0 {
		cc.PlaceholderOptions = cfg.PlaceholderOptions
	}
	cc.Selectors.Labels = append(cc.Selectors.Labels, cfg.ExtraLabels...)
	return cc
}

func strategyConfig(cfg config.StrategyConfig) strategy.Config {
	sc := strategy.DefaultConfig()
	if cfg.ShortTextMaxLen > 0 {
		sc.ShortTextMaxLen = cfg.ShortTextMaxLen
	}
	sc.RandomPickMaxOptions = cfg.RandomPickMaxOptions
	sc.RandomPickProbability = cfg.RandomPickProbability
	sc.MultiRandomMaxOptions = cfg.MultiRandomMaxOptions
	if cfg.GenerateTimeout > 0 {
		sc.GenerateTimeout = cfg.GenerateTimeout
	}
	return sc
}

func navigationConfig(cfg config.NavigationConfig) navigation.Config {
	nc := navigation.DefaultConfig()
	nc.Advance = append(nc.Advance, cfg.ExtraAdvance...)
	nc.Submit = append(nc.Submit, cfg.ExtraSubmit...)
	nc.Completion = append(nc.Completion, cfg.ExtraCompletion...)
	nc.CompletionPhrases = append(nc.CompletionPhrases, cfg.CompletionPhrases...)
	if cfg.MaxAttempts > 0 {
		nc.MaxAttempts = cfg.MaxAttempts
	}
	nc.RetryDelay = cfg.RetryDelay
	nc.ProbeTimeout = cfg.ProbeTimeout
	nc.TransitionTimeout = cfg.TransitionTimeout
	nc.SubmitSettle = cfg.SubmitSettle
	if cfg.PollInterval > 0 {
		nc.PollInterval = cfg.PollInterval
	}
	return nc
}
