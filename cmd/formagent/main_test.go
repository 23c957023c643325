package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"form-agent/internal/domain/entity"
	"form-agent/internal/infrastructure/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html><body>
<div role="list">
	<div role="listitem">
		<div role="heading">Full name *</div>
		<input type="text" />
	</div>
	<div role="listitem">
		<div role="heading">Favourite colour</div>
		<div role="radiogroup">
			<div role="radio">Red</div>
			<div role="radio">Green</div>
			<div role="radio">Blue</div>
		</div>
	</div>
</div>
</body></html>`

// execute runs the CLI in a scratch directory so log files and .env lookups
// stay out of the source tree.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("FORMAGENT_LOGGER_LEVEL", "error")
	t.Setenv("FORMAGENT_CLASSIFIER_LABEL_TIMEOUT", "20ms")
	t.Setenv("FORMAGENT_CLASSIFIER_OPTION_TIMEOUT", "20ms")
	t.Setenv("FORMAGENT_LOCATOR_TIMEOUT", "50ms")

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)

	out, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestInspect_PrintsQuestions(t *testing.T) {
	page := filepath.Join(t.TempDir(), "page1.html")
	require.NoError(t, os.WriteFile(page, []byte(samplePage), 0o600))

	out, err := execute(t, "inspect", page)
	require.NoError(t, err)

	var pages []struct {
		File      string `json:"file"`
		Questions []struct {
			Text     string   `json:"text"`
			Type     string   `json:"type"`
			Required bool     `json:"required"`
			Number   int      `json:"number"`
			Options  []string `json:"options"`
		} `json:"questions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &pages))
	require.Len(t, pages, 1)
	assert.Equal(t, page, pages[0].File)

	qs := pages[0].Questions
	require.Len(t, qs, 2)
	assert.Equal(t, "Full name", qs[0].Text)
	assert.Equal(t, "short_text", qs[0].Type)
	assert.True(t, qs[0].Required)
	assert.Equal(t, "single_choice", qs[1].Type)
	assert.Equal(t, []string{"Red", "Green", "Blue"}, qs[1].Options)
	assert.Equal(t, 2, qs[1].Number)
}

func TestInspect_MissingFile(t *testing.T) {
	_, err := execute(t, "inspect", filepath.Join(t.TempDir(), "nope.html"))
	assert.Error(t, err)
}

func TestFill_RequiresFormURL(t *testing.T) {
	_, err := execute(t, "fill")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "form.url is required")
}

func TestFill_RejectsZeroSubmissions(t *testing.T) {
	_, err := execute(t, "fill", "--form-url", "https://forms.example/f", "--submissions", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run.submissions")
}

func TestFill_ExplicitConfigMustExist(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "fill")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file")
}

func TestHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)

	q := &entity.Question{ID: "q1", Label: "Favourite colour", Type: entity.QuestionSingleChoice, Options: []string{"Red", "Green"}}
	ctx := context.Background()
	require.NoError(t, store.RecordAnswer(ctx, entity.AnswerRecord{
		Timestamp: time.Now(), RunID: "run-42", Page: 1, Number: 1, Total: 1, Question: q, Answer: entity.SingleIndex{Index: 1},
	}))
	require.NoError(t, store.RecordRun(ctx, &entity.RunResult{
		RunID: "run-42", URL: "https://forms.example/f", StartedAt: time.Now(), FinishedAt: time.Now(),
		Stats:    entity.RunStats{PagesProcessed: 1, QuestionsAnswered: 1},
		Outcomes: []entity.NavigationOutcome{entity.OutcomeSubmit, entity.OutcomeComplete}, Completed: true,
	}))
	require.NoError(t, store.Close())

	out, err := execute(t, "history", "--store", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "complete")

	out, err = execute(t, "history", "--store", dbPath, "run-42")
	require.NoError(t, err)
	assert.Contains(t, out, "Favourite colour")
	assert.Contains(t, out, "Green")

	_, err = execute(t, "history", "--store", dbPath, "run-0")
	assert.ErrorContains(t, err, "not found")
}

func TestHistory_RequiresStore(t *testing.T) {
	_, err := execute(t, "history")
	assert.ErrorContains(t, err, "store.path")
}
