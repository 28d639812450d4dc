package gokn

import "errors"

// Errors
var (
	ErrBadG6          = errors.New("bad graph6 encoding")
	ErrTooManyVerts   = errors.New("vertex count exceeds 62")
	ErrBadGraphExpr   = errors.New("bad graph expression")
	ErrBadParamKey    = errors.New("bad (g,d) parameter key")
	ErrFamilyNotFound = errors.New("graph family not found")
	ErrFamilyCount    = errors.New("declared graph count does not match family contents")
	ErrBadFamily      = errors.New("bad graph family encoding")
	ErrOracle         = errors.New("canonical form oracle failed")
	ErrUnknownBackend = errors.New("unknown canonical form backend")
	ErrStoreReadOnly  = errors.New("family store is read-only")
	ErrClosed         = errors.New("already closed")
)
