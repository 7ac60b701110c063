package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrClosed   = errors.New("store closed")
)
