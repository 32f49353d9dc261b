package algo

import "fmt"

// Error is the algorithm runtime's typed error: a Kind discriminant plus a
// human-readable Message.
type Error struct {
	Kind    string
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("algorithm error (%v): %v", e.Kind, e.Message)
}

func errWrongArity(name string, want, got int) error {
	return Error{Kind: "WrongArity", Message: fmt.Sprintf("%q requires %d input relation(s), got %d", name, want, got)}
}

func errBadInputShape(name, detail string) error {
	return Error{Kind: "BadInputShape", Message: fmt.Sprintf("%q: %s", name, detail)}
}

func errNoTypedResult(name string) error {
	return Error{Kind: "NoTypedResult", Message: fmt.Sprintf("%q has no typed result shape; read its raw output rows instead", name)}
}
