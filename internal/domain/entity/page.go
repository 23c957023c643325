package entity

// ElementHandle is an opaque reference to a live element. It is valid only for
// the page state it was acquired on and must be re-acquired after navigation
// or after a dropdown is opened.
type ElementHandle interface {
	Describe() string
}

type Point struct {
	X float64
	Y float64
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
