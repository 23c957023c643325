package entity

import "time"

type RunStats struct {
	PagesProcessed    int `json:"pages_processed"`
	QuestionsAnswered int `json:"questions_answered"`
	QuestionsFailed   int `json:"questions_failed"`
	QuestionsSkipped  int `json:"questions_skipped"`
}

type RunResult struct {
	RunID      string              `json:"run_id"`
	URL        string              `json:"url"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Stats      RunStats            `json:"stats"`
	Outcomes   []NavigationOutcome `json:"outcomes"`
	Completed  bool                `json:"completed"`
	Screenshot string              `json:"screenshot,omitempty"`
	Err        error               `json:"-"`
}

func (r *RunResult) LastOutcome() (NavigationOutcome, bool) {
	if len(r.Outcomes) == 0 {
		return OutcomeStuck, false
	}
	return r.Outcomes[len(r.Outcomes)-1], true
}

// AnswerRecord is one question/answer pair as persisted by recorders.
type AnswerRecord struct {
	Timestamp time.Time
	RunID     string
	Page      int
	Number    int
	Total     int
	Question  *Question
	Answer    Answer
}
