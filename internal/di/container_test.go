package di

import (
	"bufio"
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"form-agent/internal/application/port/output"
	"form-agent/internal/infrastructure/browser/static"
	"form-agent/internal/infrastructure/config"
	"form-agent/internal/infrastructure/llm/langchain"
	"form-agent/internal/infrastructure/llm/openrouter"
	"form-agent/internal/infrastructure/logger"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	formPage = `<html><body>
<div role="list">
	<div role="listitem">
		<div role="heading">Email *</div>
		<input type="email" />
	</div>
	<div role="listitem">
		<div role="heading">Pick one</div>
		<div role="radiogroup">
			<div role="radio">A</div>
			<div role="radio">B</div>
		</div>
	</div>
</div>
<div role="button" data-goto="next"><span>Submit</span></div>
</body></html>`

	donePage = `<html><body><p>Your response has been recorded.</p></body></html>`
)

type cannedLLM struct{}

func (cannedLLM) Generate(ctx context.Context, req output.GenerateRequest) (*output.GenerateResponse, error) {
	return &output.GenerateResponse{Text: "Selected option: 1", Model: "canned"}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Form.URL = "https://forms.example/f"
	cfg.Run.Delay = 0
	cfg.Run.ScreenshotDir = filepath.Join(dir, "shots")
	cfg.Run.RecordsPath = filepath.Join(dir, "answers.jsonl")
	cfg.Store.Path = filepath.Join(dir, "runs.db")

	cfg.Locator.Timeout = 50 * time.Millisecond
	cfg.Locator.PollInterval = 5 * time.Millisecond
	cfg.Classifier.LabelTimeout = 30 * time.Millisecond
	cfg.Classifier.OptionTimeout = 30 * time.Millisecond
	cfg.Navigation.RetryDelay = 0
	cfg.Navigation.ProbeTimeout = 20 * time.Millisecond
	cfg.Navigation.TransitionTimeout = 20 * time.Millisecond
	cfg.Navigation.SubmitSettle = 0
	cfg.Navigation.PollInterval = 5 * time.Millisecond
	return cfg
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	require.NoError(t, sc.Err())
	return n
}

func TestContainer_RunsSubmissionsEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	driver, err := static.New(formPage, donePage)
	require.NoError(t, err)

	c, err := NewContainer(context.Background(), cfg,
		WithBrowser(driver),
		WithLLM(cannedLLM{}),
		WithLogger(logger.NewNop()),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	)
	require.NoError(t, err)

	summary, err := c.Runner.Run(context.Background(), cfg.Form.URL, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Attempts)
	assert.Equal(t, 2, summary.Completed)
	assert.True(t, summary.Succeeded())

	runs, err := c.Store.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	for _, r := range runs {
		assert.True(t, r.Completed)
		assert.Equal(t, 2, r.Stats.QuestionsAnswered)
		assert.FileExists(t, r.Screenshot)
	}

	answers, err := c.Store.Answers(context.Background(), runs[0].ID)
	require.NoError(t, err)
	assert.Len(t, answers, 2)

	require.NoError(t, c.Close())
	assert.Equal(t, 4, countLines(t, cfg.Run.RecordsPath))
}

func TestContainer_NoRecorders(t *testing.T) {
	cfg := testConfig(t)
	cfg.Run.RecordsPath = ""
	cfg.Store.Path = ""
	driver, err := static.New(donePage)
	require.NoError(t, err)

	c, err := NewContainer(context.Background(), cfg, WithBrowser(driver), WithLLM(cannedLLM{}), WithLogger(logger.NewNop()))
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Recorder)
	assert.Nil(t, c.Store)
}

func TestContainer_BadStorePathClosesBrowser(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	cfg.Store.Path = filepath.Join(blocker, "runs.db")

	driver, err := static.New(donePage)
	require.NoError(t, err)

	c, err := NewContainer(context.Background(), cfg, WithBrowser(driver), WithLLM(cannedLLM{}), WithLogger(logger.NewNop()))
	require.Error(t, err)
	assert.Nil(t, c)

	err = driver.Navigate(context.Background(), "https://forms.example/f")
	assert.Error(t, err, "driver is closed on failed wiring")
}

func TestNewLLM_Providers(t *testing.T) {
	log := logger.NewNop()

	l, err := newLLM(config.LLMConfig{Provider: config.ProviderOpenRouter, APIKey: "k", Model: "m"}, log)
	require.NoError(t, err)
	assert.IsType(t, &openrouter.OpenRouterAdapter{}, l)

	l, err = newLLM(config.LLMConfig{Provider: config.ProviderLangchain, APIKey: "k", Model: "m", BaseURL: "http://localhost:1"}, log)
	require.NoError(t, err)
	assert.IsType(t, &langchain.Adapter{}, l)

	_, err = newLLM(config.LLMConfig{Provider: "carrier-pigeon"}, log)
	assert.Error(t, err)
}

func TestConfigMapping_AppendsExtras(t *testing.T) {
	cc := classifierConfig(config.ClassifierConfig{ExtraLabels: []string{"//legend"}})
	assert.Equal(t, "//legend", cc.Selectors.Labels[len(cc.Selectors.Labels)-1])
	assert.Equal(t, 50.0, cc.ProximityThreshold)

	nc := navigationConfig(config.NavigationConfig{
		ExtraSubmit:       []string{"//input[@type='submit']"},
		CompletionPhrases: []string{"Merci"},
	})
	assert.Equal(t, "//input[@type='submit']", nc.Submit[len(nc.Submit)-1])
	assert.Contains(t, nc.CompletionPhrases, "Merci")
	assert.Contains(t, nc.CompletionPhrases, "Thank you")
	assert.Equal(t, 3, nc.MaxAttempts)
}
