package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"form-agent/internal/domain/entity"
	"form-agent/internal/infrastructure/browser/static"
	"form-agent/internal/infrastructure/logger"
	"form-agent/internal/usecase/locator"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClassifier(t *testing.T, pages ...string) (*Classifier, *static.Driver) {
	t.Helper()
	d, err := static.New(pages...)
	require.NoError(t, err)
	require.NoError(t, d.Navigate(context.Background(), "https://forms.example/test"))

	log := logger.NewNop()
	loc := locator.New(d, log, locator.Config{Timeout: 100 * time.Millisecond, PollInterval: 10 * time.Millisecond})
	cfg := DefaultConfig()
	cfg.LabelTimeout = 50 * time.Millisecond
	cfg.OptionTimeout = 50 * time.Millisecond
	return New(d, loc, log, cfg), d
}

func TestExtract_LabelPathClassifiesEveryType(t *testing.T) {
	c, d := newClassifier(t, AllTypesHTML)

	questions, err := c.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 6)

	seen := map[entity.QuestionType]bool{}
	for _, q := range questions {
		seen[q.Type] = true
		assert.NotEmpty(t, q.ID)
		assert.Equal(t, entity.AnchorLabel, q.Anchor.Source)
		if q.Type.IsSelection() {
			assert.NotEmpty(t, q.Options, q.Label)
		} else {
			assert.Empty(t, q.Options, q.Label)
		}
	}
	for _, typ := range entity.QuestionTypes() {
		assert.True(t, seen[typ], "fixture must exercise %s", typ)
	}

	name := questions[0]
	assert.Equal(t, "Your name", name.Label)
	assert.Equal(t, entity.QuestionShortText, name.Type)
	assert.True(t, name.Required, "asterisk in label")
	assert.Len(t, name.ElementRefs, 1)

	assert.Equal(t, entity.QuestionLongText, questions[1].Type)
	assert.False(t, questions[1].Required)

	colour := questions[2]
	assert.Equal(t, entity.QuestionSingleChoice, colour.Type)
	assert.Equal(t, []string{"Red", "Green", "Blue"}, colour.Options)
	assert.Len(t, colour.ElementRefs, 3)
	assert.True(t, colour.Required, "aria-required marker")

	hobbies := questions[3]
	assert.Equal(t, entity.QuestionMultiChoice, hobbies.Type)
	assert.Equal(t, []string{"Reading", "Hiking", "Chess", "Cooking"}, hobbies.Options)

	country := questions[4]
	assert.Equal(t, entity.QuestionDropdown, country.Type)
	assert.Equal(t, []string{"France", "Japan"}, country.Options, "placeholder is dropped")
	assert.Len(t, country.ElementRefs, 1)
	listbox := htmlquery.FindOne(d.Document(), "//*[@role='listbox']")
	assert.Equal(t, "false", htmlquery.SelectAttr(listbox, "aria-expanded"), "dropdown closed after reading")

	unknown := questions[5]
	assert.Equal(t, entity.QuestionUnknown, unknown.Type)
	assert.Empty(t, unknown.ElementRefs)
	assert.False(t, unknown.Fillable())
}

func TestExtract_LegacyMarkupAndMarkerRequired(t *testing.T) {
	c, _ := newClassifier(t, LegacyHTML)

	questions, err := c.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 1)

	assert.Equal(t, "Email", questions[0].Label)
	assert.Equal(t, entity.QuestionShortText, questions[0].Type)
	assert.True(t, questions[0].Required, "required asterisk span, no literal asterisk")
}

func TestExtract_SkipsBrokenQuestion(t *testing.T) {
	c, _ := newClassifier(t, BrokenLabelHTML)

	questions, err := c.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Age", questions[0].Label)
	assert.Equal(t, 1, questions[0].Anchor.Ordinal)
}

func TestExtract_FallbackGroupsRadiosByProximity(t *testing.T) {
	c, _ := newClassifier(t, LooseRadiosHTML)

	questions, err := c.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 1)

	q := questions[0]
	assert.Equal(t, entity.QuestionSingleChoice, q.Type)
	assert.Equal(t, []string{"Yes", "No", "Maybe"}, q.Options)
	assert.Len(t, q.ElementRefs, 3)
	assert.Equal(t, "Question 1", q.Label)
	assert.Equal(t, entity.AnchorRawControl, q.Anchor.Source)
}

func TestExtract_FallbackSplitsDistantGroupsAndFindsLabels(t *testing.T) {
	c, _ := newClassifier(t, SpreadControlsHTML)

	questions, err := c.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 5)

	// page order by vertical position
	city := questions[0]
	assert.Equal(t, entity.QuestionShortText, city.Type)
	assert.Equal(t, "City", city.Label)
	assert.True(t, city.Required)

	size := questions[1]
	assert.Equal(t, entity.QuestionSingleChoice, size.Type)
	assert.Equal(t, "T-shirt size", size.Label)
	assert.Equal(t, []string{"S", "M"}, size.Options)

	timeOfDay := questions[2]
	assert.Equal(t, []string{"Morning", "Evening"}, timeOfDay.Options)
	assert.Equal(t, "Question 3", timeOfDay.Label)

	assert.Equal(t, entity.QuestionMultiChoice, questions[3].Type)
	assert.Equal(t, []string{"Email"}, questions[3].Options)
	assert.Equal(t, []string{"Phone"}, questions[4].Options)
}

func TestExtract_FallbackGroupsHonourRequiredMarkers(t *testing.T) {
	c, _ := newClassifier(t, RequiredGroupsHTML)

	questions, err := c.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 4)

	plan := questions[0]
	assert.Equal(t, "Plan", plan.Label)
	assert.Equal(t, entity.QuestionSingleChoice, plan.Type)
	assert.True(t, plan.Required, "aria-required on the radiogroup")

	assert.Equal(t, []string{"Terms"}, questions[1].Options)
	assert.True(t, questions[1].Required, "marker inside the group wrapper")

	assert.Equal(t, []string{"Newsletter"}, questions[2].Options)
	assert.True(t, questions[2].Required, "aria-required on the control")

	assert.Equal(t, []string{"Gift wrap"}, questions[3].Options)
	assert.False(t, questions[3].Required)
}

func TestExtract_ConfigurableProximityThreshold(t *testing.T) {
	c, _ := newClassifier(t, LooseRadiosHTML)
	c.cfg.ProximityThreshold = 20

	questions, err := c.Extract(context.Background())
	require.NoError(t, err)
	assert.Len(t, questions, 3)
}

func TestExtract_PageReadFailure(t *testing.T) {
	c, d := newClassifier(t, AllTypesHTML)
	d.Close()

	_, err := c.Extract(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrDriverFatal))
}

func TestExtract_EmptyPage(t *testing.T) {
	c, _ := newClassifier(t, `<html><body><p>Thanks</p></body></html>`)

	questions, err := c.Extract(context.Background())
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestReacquire_AfterPageReload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		html  string
		index int
	}{
		{name: "label anchored radio", html: AllTypesHTML, index: 2},
		{name: "label anchored dropdown", html: AllTypesHTML, index: 4},
		{name: "raw anchored group", html: LooseRadiosHTML, index: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, d := newClassifier(t, tt.html)
			questions, err := c.Extract(ctx)
			require.NoError(t, err)
			q := questions[tt.index]

			require.NoError(t, d.Navigate(ctx, "https://forms.example/test"))
			_, err = d.Text(ctx, q.ElementRefs[0])
			require.ErrorIs(t, err, entity.ErrStaleReference)

			require.NoError(t, c.Reacquire(ctx, q))
			_, err = d.Text(ctx, q.ElementRefs[0])
			assert.NoError(t, err)
		})
	}
}

func TestReacquire_UnknownHasNothing(t *testing.T) {
	c, _ := newClassifier(t, AllTypesHTML)
	questions, err := c.Extract(context.Background())
	require.NoError(t, err)

	err = c.Reacquire(context.Background(), questions[5])
	assert.ErrorIs(t, err, entity.ErrElementNotFound)
}

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		required bool
	}{
		{"Name *", "Name", true},
		{"  Multi\n  line   label ", "Multi line label", false},
		{"Rate 5* hotels", "Rate 5* hotels", true},
		{"", "", false},
	}
	for _, tt := range tests {
		got, req := cleanLabel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.required, req, tt.in)
	}
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, "'a'", xpathLiteral("a"))
	assert.Equal(t, `"it's"`, xpathLiteral("it's"))
	assert.Equal(t, `concat('a', "'", 'b"c')`, xpathLiteral(`a'b"c`))
}
