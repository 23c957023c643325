package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"form-agent/internal/domain/entity"

	"github.com/google/uuid"
)

const nearbyLabelScript = `function () {
	let node = this;
	for (let depth = 0; node && depth < 5; depth++) {
		let prev = node.previousElementSibling;
		while (prev) {
			const text = (prev.innerText || '').trim();
			if (text && text.length < 300) return text;
			prev = prev.previousElementSibling;
		}
		node = node.parentElement;
	}
	return '';
}`

type rawQuestion struct {
	q   *entity.Question
	top float64
}

// extractRaw scans for loose controls when no question label matched. Radios
// and checkboxes are grouped by vertical proximity, which is a heuristic: a
// dense layout can merge neighbouring questions.
func (c *Classifier) extractRaw(ctx context.Context) []*entity.Question {
	s := c.cfg.Selectors
	var found []rawQuestion

	for i, el := range c.locator.Within(ctx, nil, s.RawTextInput) {
		found = append(found, c.rawSingle(ctx, el, entity.QuestionShortText, s.RawTextInput, i))
	}
	for i, el := range c.locator.Within(ctx, nil, s.RawTextArea) {
		found = append(found, c.rawSingle(ctx, el, entity.QuestionLongText, s.RawTextArea, i))
	}
	found = append(found, c.rawGroups(ctx, entity.QuestionSingleChoice, s.RawRadio)...)
	found = append(found, c.rawGroups(ctx, entity.QuestionMultiChoice, s.RawCheckbox)...)
	for i, el := range c.locator.Within(ctx, nil, s.RawListbox) {
		r := c.rawSingle(ctx, el, entity.QuestionDropdown, s.RawListbox, i)
		if err := c.probeDropdown(ctx, el, r.q); err != nil {
			if errors.Is(err, entity.ErrDriverFatal) {
				c.logger.Error("Driver failed during raw extraction", "error", err)
				break
			}
			c.logger.Warn("Skipping dropdown", "index", i, "error", err)
			continue
		}
		if r.q.Type == entity.QuestionUnknown {
			continue
		}
		found = append(found, r)
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].top < found[j].top })

	questions := make([]*entity.Question, 0, len(found))
	for i, r := range found {
		if r.q.Label == "" {
			r.q.Label = fmt.Sprintf("Question %d", i+1)
		}
		questions = append(questions, r.q)
	}
	return questions
}

func (c *Classifier) rawSingle(ctx context.Context, el entity.ElementHandle, typ entity.QuestionType, xpath string, ordinal int) rawQuestion {
	label, asterisk := cleanLabel(c.nearbyLabel(ctx, el))
	required := asterisk || c.requiredAttr(ctx, el)
	return rawQuestion{
		q: &entity.Question{
			ID:          uuid.NewString(),
			Label:       label,
			Type:        typ,
			Required:    required,
			ElementRefs: []entity.ElementHandle{el},
			Anchor:      entity.Anchor{XPath: xpath, Ordinal: ordinal, Source: entity.AnchorRawControl},
		},
		top: c.top(ctx, el),
	}
}

func (c *Classifier) rawGroups(ctx context.Context, typ entity.QuestionType, xpath string) []rawQuestion {
	els := c.locator.Within(ctx, nil, xpath)
	if len(els) == 0 {
		return nil
	}

	var out []rawQuestion
	start := 0
	prevY := c.top(ctx, els[0])
	flush := func(end int) {
		group := els[start:end]
		label, asterisk := cleanLabel(c.groupLabel(ctx, group[0]))
		out = append(out, rawQuestion{
			q: &entity.Question{
				ID:          uuid.NewString(),
				Label:       label,
				Type:        typ,
				Required:    asterisk || c.groupRequired(ctx, group),
				Options:     c.optionTexts(ctx, group),
				ElementRefs: append([]entity.ElementHandle(nil), group...),
				Anchor:      entity.Anchor{XPath: xpath, Ordinal: start, Source: entity.AnchorRawControl},
			},
			top: c.top(ctx, group[0]),
		})
	}

	for i := 1; i < len(els); i++ {
		y := c.top(ctx, els[i])
		if math.Abs(y-prevY) > c.cfg.ProximityThreshold {
			flush(i)
			start = i
		}
		prevY = y
	}
	flush(len(els))
	return out
}

func (c *Classifier) requiredAttr(ctx context.Context, el entity.ElementHandle) bool {
	if v, ok, _ := c.browser.Attribute(ctx, el, "aria-required"); ok && v == "true" {
		return true
	}
	_, ok, _ := c.browser.Attribute(ctx, el, "required")
	return ok
}

// groupRequired checks the controls, then their wrapper. Markers inside a
// role=list wrapper are ignored since the list may hold other questions.
func (c *Classifier) groupRequired(ctx context.Context, group []entity.ElementHandle) bool {
	for _, el := range group {
		if c.requiredAttr(ctx, el) {
			return true
		}
	}
	wrapper, ok := c.locator.FirstWithin(ctx, group[0], c.cfg.Selectors.GroupLabels)
	if !ok {
		return false
	}
	if c.requiredAttr(ctx, wrapper) {
		return true
	}
	if role, _, _ := c.browser.Attribute(ctx, wrapper, "role"); role == "list" {
		return false
	}
	return c.hasRequiredMarker(ctx, wrapper)
}

func (c *Classifier) top(ctx context.Context, el entity.ElementHandle) float64 {
	p, err := c.browser.Position(ctx, el)
	if err != nil {
		c.logger.Debug("Position unavailable", "element", el.Describe(), "error", err)
		return math.MaxFloat64
	}
	return p.Y
}

// groupLabel looks for the label of a whole radio/checkbox group.
func (c *Classifier) groupLabel(ctx context.Context, first entity.ElementHandle) string {
	if group, ok := c.locator.FirstWithin(ctx, first, c.cfg.Selectors.GroupLabels); ok {
		if text := c.labelFromAria(ctx, group); text != "" {
			return text
		}
	}
	return c.scriptLabel(ctx, first)
}

func (c *Classifier) nearbyLabel(ctx context.Context, el entity.ElementHandle) string {
	if text := c.labelFromAria(ctx, el); text != "" {
		return text
	}
	if id, ok, _ := c.browser.Attribute(ctx, el, "id"); ok && id != "" {
		if labels := c.locator.Within(ctx, nil, fmt.Sprintf("//label[@for=%s]", xpathLiteral(id))); len(labels) > 0 {
			if text, err := c.browser.Text(ctx, labels[0]); err == nil && strings.TrimSpace(text) != "" {
				return text
			}
		}
	}
	return c.scriptLabel(ctx, el)
}

func (c *Classifier) labelFromAria(ctx context.Context, el entity.ElementHandle) string {
	if ids, ok, _ := c.browser.Attribute(ctx, el, "aria-labelledby"); ok && ids != "" {
		var parts []string
		for _, id := range strings.Fields(ids) {
			for _, ref := range c.locator.Within(ctx, nil, fmt.Sprintf("//*[@id=%s]", xpathLiteral(id))) {
				if text, err := c.browser.Text(ctx, ref); err == nil && strings.TrimSpace(text) != "" {
					parts = append(parts, strings.TrimSpace(text))
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	if v, ok, _ := c.browser.Attribute(ctx, el, "aria-label"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func (c *Classifier) scriptLabel(ctx context.Context, el entity.ElementHandle) string {
	text, err := c.browser.ExecuteScript(ctx, el, nearbyLabelScript)
	if err != nil {
		if !errors.Is(err, entity.ErrScriptUnsupported) {
			c.logger.Debug("Label script failed", "element", el.Describe(), "error", err)
		}
		return ""
	}
	return strings.TrimSpace(text)
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}
