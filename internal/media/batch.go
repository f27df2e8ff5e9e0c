package media

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
	"github.com/kimhsiao/squishylog/internal/logging"
)

// DefaultConcurrency bounds concurrent codec calls in one batch.
const DefaultConcurrency = 4

// Gate issues tickets for image batches. Superseding the gate invalidates
// every ticket issued so far, so results of an abandoned selection are
// discarded instead of landing in a newer draft.
type Gate struct {
	mu  sync.Mutex
	gen uint64
}

// Ticket identifies one batch request.
type Ticket struct {
	gate *Gate
	gen  uint64
}

// Issue returns a ticket that stays current until the next Supersede.
func (g *Gate) Issue() Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Ticket{gate: g, gen: g.gen}
}

// Supersede invalidates all outstanding tickets.
func (g *Gate) Supersede() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
}

// Current reports whether the ticket has not been superseded.
func (t Ticket) Current() bool {
	if t.gate == nil {
		return false
	}
	t.gate.mu.Lock()
	defer t.gate.mu.Unlock()
	return t.gen == t.gate.gen
}

// Batch compresses a selection of files with bounded concurrency.
type Batch struct {
	Codec       *Codec
	Concurrency int
}

// NewBatch creates a batch runner over codec.
func NewBatch(codec *Codec, concurrency int) *Batch {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Batch{Codec: codec, Concurrency: concurrency}
}

// CompressAll compresses every input and returns the results in input
// order. The first failure cancels the remaining work.
func (b *Batch) CompressAll(ctx context.Context, inputs []io.Reader) ([]string, error) {
	results := make([]string, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Concurrency)
	for i, input := range inputs {
		g.Go(func() error {
			out, err := b.Codec.Compress(ctx, input)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Run compresses inputs and hands the whole result slice to apply once,
// provided ticket is still current when the batch finishes. A superseded
// batch is discarded with BATCH_SUPERSEDED and apply is not called.
func (b *Batch) Run(ctx context.Context, ticket Ticket, inputs []io.Reader, apply func([]string) error) error {
	results, err := b.CompressAll(ctx, inputs)
	if err != nil {
		return err
	}
	if !ticket.Current() {
		logging.Debug("Discarding superseded image batch", map[string]interface{}{
			"images": len(results),
		})
		return apperrors.New(apperrors.ErrBatchSuperseded, "image selection was replaced before it finished")
	}
	return apply(results)
}
