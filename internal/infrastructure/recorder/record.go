package recorder

import (
	"time"

	"form-agent/internal/domain/entity"
)

// Record is one line of the answers log.
type Record struct {
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Page      int            `json:"page"`
	Question  QuestionRecord `json:"question"`
	Answer    AnswerRecord   `json:"answer"`
}

type QuestionRecord struct {
	ID       string              `json:"id"`
	Text     string              `json:"text"`
	Type     entity.QuestionType `json:"type"`
	Required bool                `json:"required"`
	Number   int                 `json:"number"`
	Total    int                 `json:"total"`
	Options  []string            `json:"options,omitempty"`
}

type AnswerRecord struct {
	Kind            string   `json:"kind"`
	Text            *string  `json:"text,omitempty"`
	SelectedIndex   *int     `json:"selected_index,omitempty"`
	SelectedValue   *string  `json:"selected_value,omitempty"`
	SelectedIndices []int    `json:"selected_indices,omitempty"`
	SelectedValues  []string `json:"selected_values,omitempty"`
}

func NewRecord(rec entity.AnswerRecord) Record {
	q := rec.Question
	if q == nil {
		q = &entity.Question{}
	}
	return Record{
		Timestamp: rec.Timestamp.UTC(),
		RunID:     rec.RunID,
		Page:      rec.Page,
		Question: QuestionRecord{
			ID:       q.ID,
			Text:     q.Label,
			Type:     q.Type,
			Required: q.Required,
			Number:   rec.Number,
			Total:    rec.Total,
			Options:  q.Options,
		},
		Answer: newAnswerRecord(q.Options, rec.Answer),
	}
}

func newAnswerRecord(options []string, a entity.Answer) AnswerRecord {
	switch v := a.(type) {
	case entity.TextAnswer:
		text := v.Text
		return AnswerRecord{Kind: v.Kind(), Text: &text}
	case entity.SingleIndex:
		idx := v.Index
		out := AnswerRecord{Kind: v.Kind(), SelectedIndex: &idx}
		if idx >= 0 && idx < len(options) {
			out.SelectedValue = &options[idx]
		}
		return out
	case entity.MultiIndex:
		out := AnswerRecord{Kind: v.Kind(), SelectedIndices: append([]int{}, v.Indices...)}
		for _, idx := range v.Indices {
			if idx >= 0 && idx < len(options) {
				out.SelectedValues = append(out.SelectedValues, options[idx])
			}
		}
		return out
	case nil:
		return AnswerRecord{Kind: entity.NoAnswer{}.Kind()}
	default:
		return AnswerRecord{Kind: a.Kind()}
	}
}
