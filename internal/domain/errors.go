package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrClosed        = errors.New("session closed")
	ErrOutsidePlot   = errors.New("point outside plot area")
	ErrMalformedTick = errors.New("malformed tick")
	ErrNotEnoughData = errors.New("not enough data")
)
