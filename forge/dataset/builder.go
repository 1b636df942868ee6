package dataset

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/lora-forge/forge/tokenizer"
)

// PromptTemplate frames the user text; the assistant target follows directly
// after the trailing delimiter.
const PromptTemplate = "### User:\n%s\n\n### Assistant:\n"

// ReasoningSeparator joins the assistant answer and its reasoning trace.
const ReasoningSeparator = "\n\nReasoning:\n"

// Build encodes one raw example for supervised next-token-prediction
// training. The tokenizer fixes the sequence length; labels mask out every
// prompt position and every padding position so the loss covers only the
// assistant target. A prompt that already fills the whole budget yields an
// example with zero training signal, which is accepted silently.
//
// Build is pure and reentrant: it owns no state and is safe to call from
// concurrently mapping workers.
func Build(ex RawExample, tok tokenizer.Tokenizer) (EncodedExample, error) {
	if err := ex.Validate(); err != nil {
		return EncodedExample{}, err
	}

	user := strings.TrimSpace(ex.User)
	target := strings.TrimSpace(ex.Assistant)
	if ex.Reasoning != "" {
		target = target + ReasoningSeparator + ex.Reasoning
	}

	prompt := fmt.Sprintf(PromptTemplate, user)
	full := prompt + target

	ids, mask, err := tok.Encode(full)
	if err != nil {
		return EncodedExample{}, fmt.Errorf("encode example: %w", err)
	}

	// The prompt alone, encoded under the same truncation/padding policy,
	// determines how many leading positions belong to the instruction.
	_, promptMask, err := tok.Encode(prompt)
	if err != nil {
		return EncodedExample{}, fmt.Errorf("encode prompt: %w", err)
	}
	promptLen := 0
	for _, m := range promptMask {
		if m == 1 {
			promptLen++
		}
	}

	labels := make([]int64, len(ids))
	copy(labels, ids)
	for i := range labels {
		if i < promptLen || mask[i] == 0 {
			labels[i] = IgnoreIndex
		}
	}

	return EncodedExample{InputIDs: ids, AttentionMask: mask, Labels: labels}, nil
}
