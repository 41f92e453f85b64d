package core

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrNothingAtHeight is returned by node clients when the chain has no
	// data at the requested height.
	ErrNothingAtHeight = errors.New("nothing at height")
	// ErrPendingBlock is returned by node clients when data at the requested
	// height exists but is not final yet and must not be persisted.
	ErrPendingBlock = errors.New("pending block")
)

// StorageError marks a failed read or write against the backing store,
// as opposed to a node transport failure.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
