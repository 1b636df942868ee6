package dataset

import (
	"context"
	"fmt"
	"runtime"

	"github.com/ZanzyTHEbar/lora-forge/forge/tokenizer"

	"github.com/sourcegraph/conc/pool"
)

// EncodeAll maps Build over examples with bounded concurrency using conc.Pool.
// The builder is pure, so each worker writes only its own slot of the
// preallocated result slice. The first failing example cancels the rest and
// fails the whole map; no partial result is returned.
func EncodeAll(ctx context.Context, examples []RawExample, tok tokenizer.Tokenizer, workers int) ([]EncodedExample, error) {
	if workers <= 0 {
		// CPU-bound work: one worker per core, bounded for sanity
		workers = min(max(runtime.NumCPU(), 2), 32)
	}

	out := make([]EncodedExample, len(examples))
	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx).WithCancelOnError()
	for i := range examples {
		p.Go(func(ctx context.Context) error {
			enc, err := Build(examples[i], tok)
			if err != nil {
				return fmt.Errorf("example %d: %w", i, err)
			}
			out[i] = enc
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
