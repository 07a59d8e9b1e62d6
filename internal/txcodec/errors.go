package txcodec

import "errors"

var (
	// ErrMalformed means the blob was not valid canonical JSON for its tag.
	ErrMalformed = errors.New("txcodec: malformed transaction blob")
	// ErrUnknownCommand means the tag is outside the closed command set.
	ErrUnknownCommand = errors.New("txcodec: unknown command tag")
	// ErrHashMismatch means the blob's embedded hash does not match
	// Hasher.Hash(canonical(T)).
	ErrHashMismatch = errors.New("txcodec: hash mismatch")
)
