package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "FORMAGENT"
	DefaultConfigName = "form-agent"

	ProviderOpenRouter = "openrouter"
	ProviderLangchain  = "langchain"
)

type Config struct {
	Form       FormConfig       `mapstructure:"form"`
	Browser    BrowserConfig    `mapstructure:"browser"`
	Locator    LocatorConfig    `mapstructure:"locator"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Strategy   StrategyConfig   `mapstructure:"strategy"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Run        RunConfig        `mapstructure:"run"`
	Store      StoreConfig      `mapstructure:"store"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

type FormConfig struct {
	URL string `mapstructure:"url"`
}

type BrowserConfig struct {
	Headless   bool          `mapstructure:"headless"`
	SlowMotion time.Duration `mapstructure:"slow_motion"`
	Timeout    time.Duration `mapstructure:"timeout"`
	NoSandbox  bool          `mapstructure:"no_sandbox"`
	DevTools   bool          `mapstructure:"devtools"`
	Trace      bool          `mapstructure:"trace"`
	Bin        string        `mapstructure:"bin"`
}

type LocatorConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type ClassifierConfig struct {
	ProximityThreshold float64       `mapstructure:"proximity_threshold"`
	LabelTimeout       time.Duration `mapstructure:"label_timeout"`
	OptionTimeout      time.Duration `mapstructure:"option_timeout"`
	PlaceholderOptions []string      `mapstructure:"placeholder_options"`
	// ExtraLabels are tried after the built-in label selectors.
	ExtraLabels []string `mapstructure:"extra_labels"`
}

type StrategyConfig struct {
	ShortTextMaxLen       int           `mapstructure:"short_text_max_len"`
	RandomPickMaxOptions  int           `mapstructure:"random_pick_max_options"`
	RandomPickProbability float64       `mapstructure:"random_pick_probability"`
	MultiRandomMaxOptions int           `mapstructure:"multi_random_max_options"`
	GenerateTimeout       time.Duration `mapstructure:"generate_timeout"`
	// Seed makes random picks reproducible; 0 means time-seeded.
	Seed uint64 `mapstructure:"seed"`
}

type NavigationConfig struct {
	MaxAttempts       int           `mapstructure:"max_attempts"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	TransitionTimeout time.Duration `mapstructure:"transition_timeout"`
	SubmitSettle      time.Duration `mapstructure:"submit_settle"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`

	ExtraAdvance      []string `mapstructure:"extra_advance"`
	ExtraSubmit       []string `mapstructure:"extra_submit"`
	ExtraCompletion   []string `mapstructure:"extra_completion"`
	CompletionPhrases []string `mapstructure:"completion_phrases"`
}

type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type RunConfig struct {
	Submissions   int           `mapstructure:"submissions"`
	Delay         time.Duration `mapstructure:"delay"`
	MaxPages      int           `mapstructure:"max_pages"`
	ScreenshotDir string        `mapstructure:"screenshot_dir"`
	RecordsPath   string        `mapstructure:"records"`
}

type StoreConfig struct {
	// Path of the sqlite run history; empty disables it.
	Path string `mapstructure:"path"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Colors     bool   `mapstructure:"colors"`
	AddCaller  bool   `mapstructure:"add_caller"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

func SetDefaults(v *viper.Viper) {
	// -- Form --
	v.SetDefault("form.url", "")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.slow_motion", 0)
	v.SetDefault("browser.timeout", 10*time.Second)
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.devtools", false)
	v.SetDefault("browser.trace", false)
	v.SetDefault("browser.bin", "")

	// -- Locator --
	v.SetDefault("locator.timeout", 10*time.Second)
	v.SetDefault("locator.poll_interval", 100*time.Millisecond)

	// -- Classifier --
	v.SetDefault("classifier.proximity_threshold", 50.0)
	v.SetDefault("classifier.label_timeout", 5*time.Second)
	v.SetDefault("classifier.option_timeout", 3*time.Second)
	v.SetDefault("classifier.placeholder_options", []string{"Choose"})
	v.SetDefault("classifier.extra_labels", []string{})

	// -- Strategy --
	v.SetDefault("strategy.short_text_max_len", 30)
	v.SetDefault("strategy.random_pick_max_options", 3)
	v.SetDefault("strategy.random_pick_probability", 0.3)
	v.SetDefault("strategy.multi_random_max_options", 3)
	v.SetDefault("strategy.generate_timeout", 30*time.Second)
	v.SetDefault("strategy.seed", 0)

	// -- Navigation --
	v.SetDefault("navigation.max_attempts", 3)
	v.SetDefault("navigation.retry_delay", time.Second)
	v.SetDefault("navigation.probe_timeout", 2*time.Second)
	v.SetDefault("navigation.transition_timeout", 10*time.Second)
	v.SetDefault("navigation.submit_settle", 2*time.Second)
	v.SetDefault("navigation.poll_interval", 200*time.Millisecond)
	v.SetDefault("navigation.extra_advance", []string{})
	v.SetDefault("navigation.extra_submit", []string{})
	v.SetDefault("navigation.extra_completion", []string{})
	v.SetDefault("navigation.completion_phrases", []string{})

	// -- LLM --
	v.SetDefault("llm.provider", ProviderOpenRouter)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "openai/gpt-4o-mini")
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.timeout", 60*time.Second)

	// -- Run --
	v.SetDefault("run.submissions", 1)
	v.SetDefault("run.delay", 5*time.Second)
	v.SetDefault("run.max_pages", 50)
	v.SetDefault("run.screenshot_dir", "screenshots")
	v.SetDefault("run.records", filepath.Join("logs", "answers.jsonl"))

	// -- Store --
	v.SetDefault("store.path", "")

	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.colors", true)
	v.SetDefault("logger.add_caller", false)
	v.SetDefault("logger.file", filepath.Join("logs", "form_agent.log"))
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)
}

// Prepare registers defaults, the optional config file and the environment
// on v. An explicit file must exist; the default one may be absent.
func Prepare(v *viper.Viper, file string) error {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// ключи из .env, которые люди уже привыкли задавать
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("llm.model", EnvPrefix+"_LLM_MODEL", "OPENROUTER_MODEL_NAME")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Validate checks sane values. requireForm is set by commands that open a
// live form.
func (c *Config) Validate(requireForm bool) error {
	var errs []error
	if requireForm && strings.TrimSpace(c.Form.URL) == "" {
		errs = append(errs, errors.New("form.url is required"))
	}
	if c.Navigation.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("navigation.max_attempts must be positive, got %d", c.Navigation.MaxAttempts))
	}
	if c.Classifier.ProximityThreshold <= 0 {
		errs = append(errs, fmt.Errorf("classifier.proximity_threshold must be positive, got %v", c.Classifier.ProximityThreshold))
	}
	if c.Strategy.ShortTextMaxLen < 1 {
		errs = append(errs, fmt.Errorf("strategy.short_text_max_len must be positive, got %d", c.Strategy.ShortTextMaxLen))
	}
	if p := c.Strategy.RandomPickProbability; p < 0 || p > 1 {
		errs = append(errs, fmt.Errorf("strategy.random_pick_probability must be within [0,1], got %v", p))
	}
	if c.Run.Submissions < 1 {
		errs = append(errs, fmt.Errorf("run.submissions must be at least 1, got %d", c.Run.Submissions))
	}
	if c.Run.Delay < 0 {
		errs = append(errs, fmt.Errorf("run.delay must not be negative, got %s", c.Run.Delay))
	}
	if c.Run.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("run.max_pages must be positive, got %d", c.Run.MaxPages))
	}
	switch c.LLM.Provider {
	case ProviderOpenRouter, ProviderLangchain:
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is not one of %s, %s", c.LLM.Provider, ProviderOpenRouter, ProviderLangchain))
	}
	return errors.Join(errs...)
}
