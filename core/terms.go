package core

// Term identifies one of the three terms of an academic session.
type Term string

const (
	TermFirst  Term = "first"
	TermSecond Term = "second"
	TermThird  Term = "third"
)

var Terms = []Term{TermFirst, TermSecond, TermThird}

func (t Term) IsValid() bool {
	for _, known := range Terms {
		if t == known {
			return true
		}
	}
	return false
}
