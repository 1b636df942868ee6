package tokenizer

import (
	"fmt"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/bpe"
	"github.com/sugarme/tokenizer/pretokenizer"
)

// GPT-2 style end-of-text marker, doubling as pad token.
const eosToken = "<|endoftext|>"
const defaultEOSID = 50256

// CausalBPE wraps sugarme/tokenizer byte-level BPE (GPT-style)
type CausalBPE struct {
	t         *tk.Tokenizer
	maxSeqLen int
	padID     int64
}

// NewCausalBPE loads vocab.json + merges.txt and builds a byte-level BPE tokenizer
func NewCausalBPE(vocabPath, mergesPath string, maxSeq int) (*CausalBPE, error) {
	if maxSeq <= 0 {
		return nil, ErrUnsupported
	}

	model, err := bpe.NewBpeFromFiles(vocabPath, mergesPath)
	if err != nil {
		return nil, fmt.Errorf("load bpe vocabulary: %w", err)
	}

	t := tk.NewTokenizer(model)
	t.WithPreTokenizer(pretokenizer.NewByteLevel())

	// Truncation; padding to fixed length is enforced manually in Encode
	t.WithTruncation(&tk.TruncationParams{MaxLength: maxSeq})

	// No pad token in GPT-style vocabularies: fall back to the EOS id
	padID := int64(defaultEOSID)
	if id, ok := t.TokenToId(eosToken); ok {
		padID = int64(id)
	}

	return &CausalBPE{t: t, maxSeqLen: maxSeq, padID: padID}, nil
}

func (c *CausalBPE) PadID() int64 { return c.padID }

func (c *CausalBPE) Encode(text string) ([]int64, []int64, error) {
	enc, err := c.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(text)), false)
	if err != nil {
		return nil, nil, err
	}
	uids := enc.GetIds()
	umask := enc.GetAttentionMask()

	// enforce fixed-length output (truncate/right-pad to maxSeqLen)
	ids := make([]int64, c.maxSeqLen)
	mask := make([]int64, c.maxSeqLen)
	n := len(uids)
	if n > c.maxSeqLen {
		n = c.maxSeqLen
	}
	for j := 0; j < n; j++ {
		ids[j] = int64(uids[j])
		if j < len(umask) {
			mask[j] = int64(umask[j])
		} else {
			mask[j] = 1
		}
	}
	for j := n; j < c.maxSeqLen; j++ {
		ids[j] = c.padID
	}
	return ids, mask, nil
}
