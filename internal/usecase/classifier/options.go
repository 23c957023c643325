package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"form-agent/internal/domain/entity"
)

const optionPollInterval = 100 * time.Millisecond

func (c *Classifier) optionTexts(ctx context.Context, els []entity.ElementHandle) []string {
	out := make([]string, 0, len(els))
	for i, el := range els {
		out = append(out, c.optionText(ctx, el, i))
	}
	return out
}

func (c *Classifier) optionText(ctx context.Context, el entity.ElementHandle, idx int) string {
	if text, err := c.browser.Text(ctx, el); err == nil {
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	for _, name := range []string{"aria-label", "data-value", "value"} {
		if v, ok, err := c.browser.Attribute(ctx, el, name); err == nil && ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return fmt.Sprintf("Option %d", idx+1)
}

// OpenOptions opens a listbox and returns the freshly rendered options,
// placeholders removed. The dropdown is left open.
func (c *Classifier) OpenOptions(ctx context.Context, listbox entity.ElementHandle) ([]entity.ElementHandle, []string, error) {
	if err := c.locator.ClickErr(ctx, listbox); err != nil {
		return nil, nil, fmt.Errorf("open dropdown: %w", err)
	}

	var options []entity.ElementHandle
	c.waitOptions(ctx, func() bool {
		options = c.locator.Within(ctx, listbox, c.cfg.Selectors.Option)
		if len(options) == 0 {
			options = c.visible(ctx, c.locator.Within(ctx, nil, c.cfg.Selectors.RawOption))
		}
		return len(options) > 0
	})
	if len(options) == 0 {
		return nil, nil, fmt.Errorf("no options rendered for %s: %w", listbox.Describe(), entity.ErrElementNotFound)
	}

	handles := make([]entity.ElementHandle, 0, len(options))
	texts := make([]string, 0, len(options))
	for i, opt := range options {
		text := c.optionText(ctx, opt, i)
		if c.isPlaceholder(text) {
			continue
		}
		handles = append(handles, opt)
		texts = append(texts, text)
	}
	if len(handles) == 0 {
		return nil, nil, fmt.Errorf("only placeholder options for %s: %w", listbox.Describe(), entity.ErrElementNotFound)
	}
	return handles, texts, nil
}

func (c *Classifier) waitOptions(ctx context.Context, probe func() bool) {
	deadline := time.Now().Add(c.cfg.OptionTimeout)
	for !probe() {
		if !time.Now().Before(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(optionPollInterval):
		}
	}
}

func (c *Classifier) closeDropdown(ctx context.Context) {
	if err := c.browser.PressEscape(ctx); err != nil {
		c.logger.Debug("Escape failed while closing dropdown", "error", err)
	}
}

func (c *Classifier) visible(ctx context.Context, els []entity.ElementHandle) []entity.ElementHandle {
	out := els[:0:0]
	for _, el := range els {
		if ok, err := c.browser.Visible(ctx, el); err == nil && ok {
			out = append(out, el)
		}
	}
	return out
}

func (c *Classifier) isPlaceholder(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	for _, p := range c.cfg.PlaceholderOptions {
		if strings.EqualFold(strings.TrimSpace(text), p) {
			return true
		}
	}
	return false
}
