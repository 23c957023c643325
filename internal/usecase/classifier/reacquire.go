package classifier

import (
	"context"
	"fmt"

	"form-agent/internal/domain/entity"
)

// Reacquire looks a question's controls up again from its anchor, replacing
// ElementRefs. Used after a stale handle error.
func (c *Classifier) Reacquire(ctx context.Context, q *entity.Question) error {
	if q.Anchor.XPath == "" {
		return fmt.Errorf("question %s has no anchor: %w", q.ID, entity.ErrElementNotFound)
	}
	els := c.locator.Within(ctx, nil, q.Anchor.XPath)

	switch q.Anchor.Source {
	case entity.AnchorLabel:
		if q.Anchor.Ordinal >= len(els) {
			return fmt.Errorf("label %d of %q gone: %w", q.Anchor.Ordinal, q.Anchor.XPath, entity.ErrElementNotFound)
		}
		label := els[q.Anchor.Ordinal]
		container, ok := c.locator.FirstWithin(ctx, label, c.cfg.Selectors.Containers)
		if !ok {
			container = label
		}
		refs, err := c.controls(ctx, container, q.Type)
		if err != nil {
			return err
		}
		q.ElementRefs = refs
		return nil

	case entity.AnchorRawControl:
		end := q.Anchor.Ordinal + max(len(q.ElementRefs), 1)
		if end > len(els) {
			return fmt.Errorf("controls %d..%d of %q gone: %w", q.Anchor.Ordinal, end, q.Anchor.XPath, entity.ErrElementNotFound)
		}
		q.ElementRefs = append([]entity.ElementHandle(nil), els[q.Anchor.Ordinal:end]...)
		return nil
	}
	return fmt.Errorf("unknown anchor source %d", q.Anchor.Source)
}

func (c *Classifier) controls(ctx context.Context, container entity.ElementHandle, typ entity.QuestionType) ([]entity.ElementHandle, error) {
	s := c.cfg.Selectors
	var sel string
	switch typ {
	case entity.QuestionShortText:
		sel = s.TextInput
	case entity.QuestionLongText:
		sel = s.TextArea
	case entity.QuestionSingleChoice:
		sel = s.Radio
	case entity.QuestionMultiChoice:
		sel = s.Checkbox
	case entity.QuestionDropdown:
		sel = s.Listbox
	case entity.QuestionUnknown:
		return nil, fmt.Errorf("unknown question has no controls: %w", entity.ErrElementNotFound)
	default:
		return nil, fmt.Errorf("unsupported question type %s", typ)
	}

	els := c.locator.Within(ctx, container, sel)
	if len(els) == 0 {
		return nil, fmt.Errorf("%s controls gone: %w", typ, entity.ErrElementNotFound)
	}
	if typ.IsText() || typ == entity.QuestionDropdown {
		return els[:1], nil
	}
	return els, nil
}
