package storage

import "errors"

// NotFoundError is returned when a session or message doesn't exist in the store.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "record"
	}

	if e.ID == "" {
		return kind + " not found"
	}

	return kind + " not found: " + e.ID
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfe NotFoundError
	return errors.As(err, &nfe)
}
