package txlog

import "errors"

var (
	// ErrWrongCommand is reported by Append when txcodec cannot parse the
	// blob: either it is malformed or its command tag is outside the
	// closed set.
	ErrWrongCommand = errors.New("txlog: unknown command tag")
	// ErrHashSize is reported when a transaction's embedded hash is not
	// exactly 32 bytes.
	ErrHashSize = errors.New("txlog: hash size mismatch")
)
