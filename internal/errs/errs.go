// Package errs classifies failures of the matching pipeline.
//
// Upstream and External errors are recovered where they happen and only
// travel as log fields. Internal errors are the only kind returned to callers.
package errs

import (
	"errors"
	"fmt"
	"io"

	goerrors "github.com/go-errors/errors"
)

type Kind string

const (
	// Upstream marks defects in stored data: bad embeddings, unparsable text.
	Upstream Kind = "UPSTREAM"
	// External marks failures of the embedding provider or the oracle.
	External Kind = "EXTERNAL"
	// Internal marks faults like corpus access failures.
	Internal Kind = "INTERNAL"
)

type Error struct {
	Kind  Kind
	Op    string
	Err   error
	Stack []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StackTrace() []byte {
	return e.Stack
}

// Format prints the captured stack for %+v, which zap logs as errorVerbose.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			io.WriteString(s, e.Error())
			if len(e.Stack) > 0 {
				io.WriteString(s, "\n")
				s.Write(e.Stack)
			}
			return
		}
		io.WriteString(s, e.Error())
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

func New(kind Kind, op string, err error) *Error {
	var stack []byte
	var stackErr *goerrors.Error
	switch {
	case err == nil:
		stack = goerrors.New(op).Stack()
	case errors.As(err, &stackErr):
		stack = stackErr.Stack()
	default:
		stack = goerrors.Wrap(err, 2).Stack()
	}

	return &Error{Kind: kind, Op: op, Err: err, Stack: stack}
}

func UpstreamErr(op string, err error) *Error { return New(Upstream, op, err) }

func ExternalErr(op string, err error) *Error { return New(External, op, err) }

func InternalErr(op string, err error) *Error { return New(Internal, op, err) }

// Is reports whether any error in err's chain is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
