// Package errkind classifies project errors so callers can tell a condition
// they may skip past from one that must abort the current operation.
package errkind

import "errors"

// Kind identifies the category of a project error.
type Kind string

// Error kinds raised by project, enumeration, and basis set operations.
const (
	InvalidMetaType         Kind = "invalid_meta_type"
	MissingPrimNeighborList Kind = "missing_prim_neighbor_list"
	ConcurrentWriteConflict Kind = "concurrent_write_conflict"
	MissingRequiredFile     Kind = "missing_required_file"
	MalformedFile           Kind = "malformed_file"
	NotFound                Kind = "not_found"
	AlreadyExists           Kind = "already_exists"
	InvalidID               Kind = "invalid_id"
	NoBasisSpecs            Kind = "no_basis_specs"
	EngineFailure           Kind = "engine_failure"
)

// recoverable lists the kinds a caller may skip and continue past.
var recoverable = map[Kind]bool{
	InvalidMetaType: true,
	NotFound:        true,
	AlreadyExists:   true,
	InvalidID:       true,
	NoBasisSpecs:    true,
}

// Error records a classified failure with the operation and path involved.
type Error struct {
	Kind Kind
	Op   string // e.g. "enum.commit"
	Path string // file or directory, empty if not applicable
	Err  error
}

// New returns an *Error of the given kind.
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Error returns a human-readable string with operation and path context.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Recoverable reports whether err is of a kind the caller may skip past.
// Unclassified errors are treated as fatal.
func Recoverable(err error) bool {
	return recoverable[KindOf(err)]
}
