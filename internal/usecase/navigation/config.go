package navigation

import (
	"time"

	"form-agent/internal/usecase/locator"
)

type Config struct {
	Advance    locator.SelectorSet
	Submit     locator.SelectorSet
	Completion locator.SelectorSet
	Loading    locator.SelectorSet
	// CompletionPhrases count only when no affordance is left on the page,
	// since a form description can thank the user too.
	CompletionPhrases []string

	MaxAttempts       int
	RetryDelay        time.Duration
	ProbeTimeout      time.Duration
	TransitionTimeout time.Duration
	SubmitSettle      time.Duration
	PollInterval      time.Duration
}

func DefaultConfig() Config {
	return Config{
		Advance: locator.SelectorSet{
			"//span[text()='Next']/ancestor::div[@role='button']",
			"//div[@role='button']//span[contains(text(),'Next')]",
			"//button[contains(normalize-space(.),'Next')]",
		},
		Submit: locator.SelectorSet{
			"//span[text()='Submit']/ancestor::div[@role='button']",
			"//div[@role='button']//span[contains(text(),'Submit')]",
			"//div[@jsname='M2UYVd']",
			"//button[@type='submit' or contains(normalize-space(.),'Submit')]",
		},
		Completion: locator.SelectorSet{
			"//div[contains(@class,'freebirdFormviewerViewResponseConfirmationMessage')]",
			"//*[contains(text(),'Your response has been recorded')]",
		},
		Loading: locator.SelectorSet{
			"//*[@role='progressbar']",
			"//*[@aria-busy='true']",
		},
		CompletionPhrases: []string{
			"Thank you",
			"Your response has been recorded",
			"Form submitted",
			"successfully submitted",
		},
		MaxAttempts:       3,
		RetryDelay:        time.Second,
		ProbeTimeout:      2 * time.Second,
		TransitionTimeout: 10 * time.Second,
		SubmitSettle:      2 * time.Second,
		PollInterval:      200 * time.Millisecond,
	}
}
