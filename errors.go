package fslib

import (
	"bytes"
	"fmt"
)

// ErrorKind is the taxonomy every Backend must signal failures with.
type ErrorKind int

// Error taxonomy.
const (
	_ ErrorKind = iota
	NotFound
	NotADirectory
	IsADirectory
	AlreadyExists
	NotEmpty
	ReadOnly
	PermissionDenied
	InvalidPath
	CrossBackend
	NotUnderBase
	IOError
)

var errorKindNames = map[ErrorKind]string{
	NotFound:         "not found",
	NotADirectory:    "not a directory",
	IsADirectory:     "is a directory",
	AlreadyExists:    "already exists",
	NotEmpty:         "not empty",
	ReadOnly:         "read only",
	PermissionDenied: "permission denied",
	InvalidPath:      "invalid path",
	CrossBackend:     "cross backend",
	NotUnderBase:     "not under base",
	IOError:          "io error",
}

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return "unknown error"
}

// Error is the concrete error type every Backend returns. It carries
// at minimum the offending path and the Kind; Err, when present, is
// the underlying cause (an OS error mapped by backend/osfs, for
// instance).
type Error struct {
	Op   string
	Path string
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %s", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
}

// Unwrap lets errors.Is/As see through to the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind and, when
// target.Path is non-empty, the same Path, so that
// errors.Is(err, &fslib.Error{Kind: fslib.NotFound}) matches any
// NotFound error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Path != "" && t.Path != e.Path {
		return false
	}
	return true
}

// NewError builds an *Error for op on path with the given kind, optionally
// wrapping cause.
func NewError(op, path string, kind ErrorKind, cause error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: cause}
}

// KindOf extracts the ErrorKind from err, if err is (or wraps) an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var fe *Error
	if ok := asError(err, &fe); ok {
		return fe.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// asError is a small errors.As shim kept local to avoid importing
// errors just for this one call site everywhere KindOf is used.
func asError(err error, target **Error) bool {
	for err != nil {
		if fe, ok := err.(*Error); ok {
			*target = fe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Errors wraps a slice of errors, one per branch/upstream, used by
// UnionBackend.RemoveFile to report which branches failed without
// hiding the branches that succeeded.
//
// Carried over near-verbatim from rclone's backend/union
// error-aggregation helper; this is reused utility code, not new
// engineering.
type Errors []error

// Map returns a copy of the error slice with all its errors modified
// according to the mapping function. If mapping returns nil, the
// error is dropped from the error slice with no replacement.
func (e Errors) Map(mapping func(error) error) Errors {
	s := make([]error, len(e))
	i := 0
	for _, err := range e {
		nerr := mapping(err)
		if nerr == nil {
			continue
		}
		s[i] = nerr
		i++
	}
	return Errors(s[:i])
}

// FilterNil returns the Errors without nil entries.
func (e Errors) FilterNil() Errors {
	return e.Map(func(err error) error { return err })
}

// Err returns an error interface that filtered nil, or nil if no
// non-nil error is present.
func (e Errors) Err() error {
	ne := e.FilterNil()
	if len(ne) == 0 {
		return nil
	}
	return ne
}

// Error returns a concatenated string of the contained errors.
func (e Errors) Error() string {
	var buf bytes.Buffer
	if len(e) == 0 {
		buf.WriteString("no error")
	} else if len(e) == 1 {
		buf.WriteString("1 error: ")
	} else {
		fmt.Fprintf(&buf, "%d errors: ", len(e))
	}
	for i, err := range e {
		if i != 0 {
			buf.WriteString("; ")
		}
		if err != nil {
			buf.WriteString(err.Error())
		} else {
			buf.WriteString("nil error")
		}
	}
	return buf.String()
}

// Unwrap returns the wrapped errors for errors.Is/As traversal.
func (e Errors) Unwrap() []error {
	return e
}
