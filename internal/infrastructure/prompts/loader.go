package prompts

import (
	_ "embed"
)

//go:embed short_text.txt
var ShortTextPrompt string

//go:embed long_text.txt
var LongTextPrompt string

//go:embed single_choice.txt
var SingleChoicePrompt string

//go:embed multi_choice.txt
var MultiChoicePrompt string
