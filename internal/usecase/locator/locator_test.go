package locator

import (
	"context"
	"errors"
	"testing"
	"time"

	"form-agent/internal/infrastructure/browser/static"
	"form-agent/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const buttonsHTML = `<html><body>
	<div role="button" id="hidden-next" style="display: none"><span>Next</span></div>
	<div role="button" id="disabled-next" aria-disabled="true"><span>Next</span></div>
	<div role="button" id="submit"><span>Submit</span></div>
	<div role="radio" id="r1" data-y="10">A</div>
	<div role="radio" id="r2" data-y="40">B</div>
</body></html>`

func newLocator(t *testing.T, pages ...string) (*Locator, *static.Driver) {
	t.Helper()
	d, err := static.New(pages...)
	require.NoError(t, err)
	return New(d, logger.NewNop(), Config{Timeout: 200 * time.Millisecond, PollInterval: 10 * time.Millisecond}), d
}

func TestFind_FirstAlternativeThatResolvesWins(t *testing.T) {
	l, _ := newLocator(t, buttonsHTML)
	ctx := context.Background()

	el, ok := l.Find(ctx, SelectorSet{
		"//div[@id='missing']",
		"//div[@role='button'][.//span[text()='Submit']]",
	}, FindOptions{})

	require.True(t, ok)
	assert.Contains(t, el.Describe(), `id="submit"`)
}

func TestFind_SkipsHiddenAndDisabled(t *testing.T) {
	l, _ := newLocator(t, buttonsHTML)
	ctx := context.Background()
	next := SelectorSet{"//span[text()='Next']/ancestor::div[@role='button']"}

	_, ok := l.Find(ctx, next, FindOptions{RequireClickable: true})
	assert.False(t, ok, "hidden and aria-disabled buttons must not be clickable")

	el, ok := l.Find(ctx, next, FindOptions{})
	require.True(t, ok, "disabled button is still visible")
	assert.Contains(t, el.Describe(), "disabled-next")
}

func TestFind_AbsenceIsNotAnError(t *testing.T) {
	l, _ := newLocator(t, buttonsHTML)

	start := time.Now()
	el, ok := l.Find(context.Background(), SelectorSet{"//nothing"}, FindOptions{Timeout: 50 * time.Millisecond})

	assert.False(t, ok)
	assert.Nil(t, el)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFind_InvalidSelectorTreatedAsAbsent(t *testing.T) {
	l, _ := newLocator(t, buttonsHTML)

	_, ok := l.Find(context.Background(), SelectorSet{"//div[@role=", "//div[@id='submit']"}, FindOptions{})
	assert.True(t, ok)
}

func TestFindAll_ReturnsDocumentOrder(t *testing.T) {
	l, _ := newLocator(t, buttonsHTML)

	els := l.FindAll(context.Background(), "//div[@role='radio']", 0)
	require.Len(t, els, 2)
	assert.Contains(t, els[0].Describe(), "r1")
	assert.Contains(t, els[1].Describe(), "r2")

	assert.Empty(t, l.FindAll(context.Background(), "//div[@role='checkbox']", 20*time.Millisecond))
}

func TestFind_RespectsContextCancel(t *testing.T) {
	l, _ := newLocator(t, buttonsHTML)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, ok := l.Find(ctx, SelectorSet{"//nothing"}, FindOptions{Timeout: 5 * time.Second})
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClick_FallsBackToScriptClick(t *testing.T) {
	l, d := newLocator(t, buttonsHTML)
	ctx := context.Background()

	hiddenNext := l.Within(ctx, nil, "//div[@id='hidden-next']")
	require.Len(t, hiddenNext, 1)

	assert.True(t, l.Click(ctx, hiddenNext[0]), "script click ignores visibility")
	assert.Len(t, d.Clicks(), 1)
}

func TestClick_FailsWhenBothStrategiesFail(t *testing.T) {
	l, d := newLocator(t, buttonsHTML)
	ctx := context.Background()
	d.OnClick = func(*static.Element) error { return errors.New("intercepted") }
	d.OnScriptClick = func(*static.Element) error { return errors.New("detached") }

	el, ok := l.Find(ctx, SelectorSet{"//div[@id='submit']"}, FindOptions{})
	require.True(t, ok)

	assert.False(t, l.Click(ctx, el))
	assert.Empty(t, d.Clicks())
	assert.False(t, l.Click(ctx, nil))
}
