package graph

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind categorizes enrichment errors
type Kind string

const (
	KindTransport    Kind = "transport"
	KindAnalyzer     Kind = "analyzer"
	KindDecode       Kind = "decode"
	KindConfig       Kind = "config"
	KindResolution   Kind = "resolution"
	KindWrite        Kind = "write"
	KindVerification Kind = "verification"
	KindValidation   Kind = "validation"
)

// Fatal reports whether errors of this kind abort a whole run
func (k Kind) Fatal() bool {
	switch k {
	case KindTransport, KindAnalyzer, KindDecode, KindConfig:
		return true
	}
	return false
}

// Error wraps an underlying error with the failed operation and its kind
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Cause lets errors.Cause walk through an Error
func (e *Error) Cause() error { return e.Err }

// E builds an *Error. A nil err yields nil.
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Errorf builds an *Error from a formatted message
func Errorf(op string, kind Kind, format string, args ...interface{}) error {
	return &Error{Op: op, Kind: kind, Err: errors.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost *Error in err's chain, or "" if none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsFatal reports whether err must abort the run. Errors without a kind
// are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	kind := KindOf(err)
	return kind == "" || kind.Fatal()
}
