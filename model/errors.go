package model

import "errors"

// Common mapping model errors.
var (
	// ErrInvalidTermMap is returned when a term map declares more than
	// one of constant, reference, template and function value.
	ErrInvalidTermMap = errors.New("term map declares more than one value expression")
)
