package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidRule       = errors.New("invalid rule")
	ErrUnexpectedInput   = errors.New("unexpected stage input")
	ErrDuplicateStage    = errors.New("duplicate stage name")
	ErrMalformedMetadata = errors.New("malformed front matter")
)
