package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"form-agent/internal/domain/entity"
)

type QuestionPromptData struct {
	Label    string
	Required bool
	Options  []string
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

var (
	shortTextTmpl    = template.Must(template.New("short_text").Funcs(funcs).Parse(ShortTextPrompt))
	longTextTmpl     = template.Must(template.New("long_text").Funcs(funcs).Parse(LongTextPrompt))
	singleChoiceTmpl = template.Must(template.New("single_choice").Funcs(funcs).Parse(SingleChoicePrompt))
	multiChoiceTmpl  = template.Must(template.New("multi_choice").Funcs(funcs).Parse(MultiChoicePrompt))
)

// ForQuestion renders the prompt matching the question type. Dropdowns use the
// single choice prompt.
func ForQuestion(q *entity.Question) (string, error) {
	var tmpl *template.Template
	switch q.Type {
	case entity.QuestionShortText:
		tmpl = shortTextTmpl
	case entity.QuestionLongText:
		tmpl = longTextTmpl
	case entity.QuestionSingleChoice, entity.QuestionDropdown:
		tmpl = singleChoiceTmpl
	case entity.QuestionMultiChoice:
		tmpl = multiChoiceTmpl
	case entity.QuestionUnknown:
		return "", fmt.Errorf("no prompt for unknown question %q", q.Label)
	default:
		return "", fmt.Errorf("no prompt for question type %s", q.Type)
	}

	data := QuestionPromptData{
		Label:    strings.TrimSpace(q.Label),
		Required: q.Required,
		Options:  q.Options,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
