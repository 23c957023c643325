package entity

import "sort"

// Answer is one of TextAnswer, SingleIndex, MultiIndex or NoAnswer.
type Answer interface {
	isAnswer()
	Kind() string
}

type TextAnswer struct {
	Text string
}

type SingleIndex struct {
	Index int
}

type MultiIndex struct {
	Indices []int
}

type NoAnswer struct{}

func (TextAnswer) isAnswer()  {}
func (SingleIndex) isAnswer() {}
func (MultiIndex) isAnswer()  {}
func (NoAnswer) isAnswer()    {}

func (TextAnswer) Kind() string  { return "text" }
func (SingleIndex) Kind() string { return "single_index" }
func (MultiIndex) Kind() string  { return "multi_index" }
func (NoAnswer) Kind() string    { return "none" }

// NewMultiIndex dedupes and sorts indices.
func NewMultiIndex(indices ...int) MultiIndex {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return MultiIndex{Indices: out}
}
