package value

import "fmt"

// Error is the typed error returned by this package: a Kind discriminant
// plus a human-readable Message, matchable with errors.As.
type Error struct {
	Kind    string
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("value error (%v): %v", e.Kind, e.Message)
}

func errSentinel() error {
	return Error{Kind: "EncodeSentinel", Message: "MaxTag/EndSentinel must not appear in persisted data"}
}

func errUnevaluated(tag Tag) error {
	return Error{Kind: "EncodeUnevaluated", Message: fmt.Sprintf("cannot encode unevaluated %s value as a key", tag)}
}
