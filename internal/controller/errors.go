package controller

import (
	"errors"
	"fmt"

	"github.com/roach88/rowgraph/internal/ir"
)

var (
	// ErrAlreadyExists matches every AlreadyExistsError.
	ErrAlreadyExists = errors.New("element already exists")

	// ErrVertexExists matches an AlreadyExistsError for a vertex.
	ErrVertexExists = errors.New("vertex already exists")

	// ErrEdgeExists matches an AlreadyExistsError for an edge.
	ErrEdgeExists = errors.New("edge already exists")

	// ErrNoSchema is returned when no table of the schema set can hold an
	// element.
	ErrNoSchema = errors.New("no schema applies")

	// ErrUnmappedRow is returned when no schema accepts a result row.
	ErrUnmappedRow = errors.New("no schema accepts row")
)

// AlreadyExistsError reports an insert whose identity was already present
// in a table. The insert affected zero rows.
type AlreadyExistsError struct {
	Kind  ir.Kind
	ID    ir.IRValue
	Table string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %s already exists in table %s", e.Kind, formatID(e.ID), e.Table)
}

// Is matches ErrAlreadyExists and the sentinel of the element kind.
func (e *AlreadyExistsError) Is(target error) bool {
	switch target {
	case ErrAlreadyExists:
		return true
	case ErrVertexExists:
		return e.Kind == ir.KindVertex
	case ErrEdgeExists:
		return e.Kind == ir.KindEdge
	}
	return false
}

// StorageError wraps a failure of the underlying statement execution.
// The storage error itself is kept unchanged and reachable with errors.Is
// and errors.As.
type StorageError struct {
	Op    string
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err came from statement execution.
// Uses errors.As to handle wrapped errors.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func formatID(id ir.IRValue) string {
	if id == nil {
		return "<nil>"
	}
	b, err := ir.MarshalIRValue(id)
	if err != nil {
		return fmt.Sprintf("%v", id)
	}
	return string(b)
}
