package storage

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrOutOfStock    = errors.New("out of stock")
	ErrDuplicateName = errors.New("duplicate name")
	// ErrStaleVersion возвращается, когда запись изменили параллельно.
	ErrStaleVersion = errors.New("stale version")
)
