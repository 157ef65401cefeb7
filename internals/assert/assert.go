package assert

import "fmt"

// Nil panics with msg when err is non-nil. Used for unrecoverable wiring
// failures at process startup only.
func Nil(err error, msg string) {
	if err != nil {
		panic(fmt.Sprintf("%s: %v", msg, err))
	}
}

// True panics with msg when the condition does not hold.
func True(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
