package jmdict

import (
	"errors"
	"fmt"
)

// ErrNoRoot is wrapped by a ParseError when the document has no JMdict root.
var ErrNoRoot = errors.New("missing JMdict root element")

// ParseError reports a corpus that does not match the expected structure.
type ParseError struct {
	// Offset is the input byte offset where decoding stopped.
	Offset int64
	// Seq is the sequence number of the entry being decoded, if known.
	Seq string
	Err error
}

func (e *ParseError) Error() string {
	if e.Seq != "" {
		return fmt.Sprintf("jmdict: parse error at offset %d (entry %s): %v", e.Offset, e.Seq, e.Err)
	}
	return fmt.Sprintf("jmdict: parse error at offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
