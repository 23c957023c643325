package strategy

import (
	"regexp"
	"strconv"
)

var (
	selectedOptionRe  = regexp.MustCompile(`(?i)Selected option:\s*(\d+)`)
	selectedOptionsRe = regexp.MustCompile(`(?i)Selected options?:\s*([\d,\s]+)`)
	integerRe         = regexp.MustCompile(`\d+`)
)

// ParseSelectedOption extracts a 1-based option number from a generator
// response and returns it 0-based. The "Selected option: N" form wins; any
// other in-range integer is the second choice.
func ParseSelectedOption(text string, n int) (int, bool) {
	if m := selectedOptionRe.FindStringSubmatch(text); m != nil {
		if num, err := strconv.Atoi(m[1]); err == nil && num >= 1 && num <= n {
			return num - 1, true
		}
	}
	for _, tok := range integerRe.FindAllString(text, -1) {
		if num, err := strconv.Atoi(tok); err == nil && num >= 1 && num <= n {
			return num - 1, true
		}
	}
	return 0, false
}

// ParseSelectedOptions extracts in-range 1-based option numbers from a
// "Selected options: X, Y" response, returned 0-based and deduplicated.
func ParseSelectedOptions(text string, n int) []int {
	m := selectedOptionsRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	seen := make(map[int]bool)
	var out []int
	for _, tok := range integerRe.FindAllString(m[1], -1) {
		num, err := strconv.Atoi(tok)
		if err != nil || num < 1 || num > n || seen[num] {
			continue
		}
		seen[num] = true
		out = append(out, num-1)
	}
	return out
}
