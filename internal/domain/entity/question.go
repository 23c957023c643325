package entity

import (
	"fmt"
	"strings"
)

type QuestionType int

const (
	QuestionUnknown QuestionType = iota
	QuestionShortText
	QuestionLongText
	QuestionSingleChoice
	QuestionMultiChoice
	QuestionDropdown
)

// QuestionTypes lists every question type. Classifier, dispatcher and filler
// tests iterate it so a new type cannot be added without a strategy for each.
func QuestionTypes() []QuestionType {
	return []QuestionType{
		QuestionShortText,
		QuestionLongText,
		QuestionSingleChoice,
		QuestionMultiChoice,
		QuestionDropdown,
		QuestionUnknown,
	}
}

func (t QuestionType) String() string {
	switch t {
	case QuestionShortText:
		return "short_text"
	case QuestionLongText:
		return "long_text"
	case QuestionSingleChoice:
		return "single_choice"
	case QuestionMultiChoice:
		return "multi_choice"
	case QuestionDropdown:
		return "dropdown"
	case QuestionUnknown:
		return "unknown"
	}
	return fmt.Sprintf("question_type(%d)", int(t))
}

func ParseQuestionType(s string) (QuestionType, error) {
	for _, t := range QuestionTypes() {
		if t.String() == strings.ToLower(strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return QuestionUnknown, fmt.Errorf("unknown question type %q", s)
}

func (t QuestionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *QuestionType) UnmarshalText(b []byte) error {
	parsed, err := ParseQuestionType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IsSelection reports whether answers to this type are option indices.
func (t QuestionType) IsSelection() bool {
	return t == QuestionSingleChoice || t == QuestionMultiChoice || t == QuestionDropdown
}

func (t QuestionType) IsText() bool {
	return t == QuestionShortText || t == QuestionLongText
}

// Anchor remembers how a question's controls were found so they can be
// looked up again when a handle goes stale.
type Anchor struct {
	XPath   string
	Ordinal int
	Source  AnchorSource
}

type AnchorSource int

const (
	AnchorLabel AnchorSource = iota
	AnchorRawControl
)

type Question struct {
	ID          string
	Label       string
	Type        QuestionType
	Required    bool
	Options     []string
	ElementRefs []ElementHandle
	Anchor      Anchor
}

func (q *Question) String() string {
	return fmt.Sprintf("%s[%s] %q", q.ID, q.Type, q.Label)
}

// Fillable is false for questions that have nothing to interact with.
func (q *Question) Fillable() bool {
	return q.Type != QuestionUnknown && len(q.ElementRefs) > 0
}
