package notestore

import (
	"errors"
	"fmt"
)

// Kind classifies a failed store call.
type Kind int

const (
	KindOther Kind = iota
	KindNotFound
	KindUnreachable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindUnreachable:
		return "unreachable"
	default:
		return "error"
	}
}

var (
	ErrNotFound    = errors.New("notestore: not found")
	ErrUnreachable = errors.New("notestore: service unreachable")
)

// Error is returned by every Client method that fails.
type Error struct {
	Op     string
	Kind   Kind
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the ErrNotFound and ErrUnreachable sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnreachable:
		return e.Kind == KindUnreachable
	}
	return false
}

func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsUnreachable(err error) bool { return errors.Is(err, ErrUnreachable) }
