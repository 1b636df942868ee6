package tokenizer

import (
	"fmt"
)

// Tokenizer converts raw text to model-ready token IDs and attention masks.
// Encode always returns sequences of exactly the configured maximum length:
// overflow is truncated from the end and shortfall is right-padded with the
// pad token (mask 0 on padded positions).
type Tokenizer interface {
	Encode(text string) (inputIDs []int64, attentionMask []int64, err error)

	// PadID is the designated padding token id. Vocabularies without a pad
	// token fall back to the end-of-sequence id.
	PadID() int64
}

// ErrUnsupported indicates the tokenizer could not be initialized
var ErrUnsupported = fmt.Errorf("unsupported tokenizer configuration")
