package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-volume/common"
	"github.com/Carmen-Shannon/oxy-volume/engine/volume"
)

// ErrSuperseded is the error carried by a load whose result arrived after a newer load was issued.
var ErrSuperseded = errors.New("load superseded by a newer request")

// Result is the outcome of one load request.
type Result struct {
	// Generation is the load-generation number assigned when the load was issued.
	Generation uint64
	// Source is the byte-source reference the load read from.
	Source string
	// Grid is the parsed volume, nil when Err is set.
	Grid *volume.Grid
	// Err is a *volume.FormatError, a *volume.TransportError, or ErrSuperseded.
	Err error
}

// Progress reports how far the byte transfer of a load has advanced.
type Progress struct {
	Generation uint64
	Source     string
	Loaded     int64
	// Total is the expected byte count, or -1 when the source does not know it.
	Total int64
}

// Percent returns the completed share in [0, 100], or -1 when the total is unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	return min(100, float64(p.Loaded)*100/float64(p.Total))
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.Mutex

	generation atomic.Uint64
	cancelPrev context.CancelFunc

	results    chan Result
	onProgress func(Progress)
	resolver   func(ref string) Source
}

// Loader fetches and parses volumes asynchronously. Every call to Load is assigned a
// monotonically increasing generation; only the result of the most recently issued load is
// ever delivered, regardless of the order in which loads complete.
type Loader interface {
	// Load starts reading src in the background and returns immediately.
	// Issuing a load cancels any load still in flight.
	//
	// Parameters:
	//   - ctx: the context bounding the transfer
	//   - src: the byte source to read the volume from
	//
	// Returns:
	//   - *Future: a handle to the pending result
	Load(ctx context.Context, src Source) *Future

	// LoadRef resolves a byte-source reference (a path or an http(s) URL) and loads it.
	//
	// Parameters:
	//   - ctx: the context bounding the transfer
	//   - ref: the source reference
	//
	// Returns:
	//   - *Future: a handle to the pending result
	LoadRef(ctx context.Context, ref string) *Future

	// Generation returns the generation of the most recently issued load, 0 if none.
	//
	// Returns:
	//   - uint64: the latest issued generation
	Generation() uint64

	// IsCurrent reports whether gen is still the latest issued generation.
	// Consumers re-check this immediately before applying a delivered result.
	//
	// Parameters:
	//   - gen: the generation of a result
	//
	// Returns:
	//   - bool: true if no newer load has been issued
	IsCurrent(gen uint64) bool

	// Results delivers the outcome of current loads, both successes and failures.
	// Superseded results are never sent.
	//
	// Returns:
	//   - <-chan Result: the delivery channel
	Results() <-chan Result
}

var _ Loader = &loader{}

// NewLoader creates a Loader with the given options applied.
//
// Parameters:
//   - options: functional options (progress callback, HTTP client, result buffer)
//
// Returns:
//   - Loader: the new loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		results:  make(chan Result, 1),
		resolver: func(ref string) Source { return ParseSource(ref, nil) },
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *loader) Load(ctx context.Context, src Source) *Future {
	ctx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	gen := l.generation.Add(1)
	if l.cancelPrev != nil {
		l.cancelPrev()
	}
	l.cancelPrev = cancel
	l.mu.Unlock()

	f := &Future{
		generation: gen,
		source:     src.String(),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go l.run(ctx, f, src)
	return f
}

func (l *loader) LoadRef(ctx context.Context, ref string) *Future {
	return l.Load(ctx, l.resolver(ref))
}

func (l *loader) Generation() uint64 {
	return l.generation.Load()
}

func (l *loader) IsCurrent(gen uint64) bool {
	return gen != 0 && l.generation.Load() == gen
}

func (l *loader) Results() <-chan Result {
	return l.results
}

// run performs the transfer and parse for one load and settles its future.
func (l *loader) run(ctx context.Context, f *Future, src Source) {
	defer close(f.done)
	defer f.cancel()

	grid, err := l.fetch(ctx, f.generation, src)
	res := Result{Generation: f.generation, Source: f.source, Grid: grid, Err: err}

	if !l.IsCurrent(f.generation) {
		common.Logger().Debug("dropping superseded volume load",
			"source", f.source, "generation", f.generation, "latest", l.Generation())
		res.Grid = nil
		res.Err = ErrSuperseded
		f.result = res
		return
	}

	if err != nil {
		common.Logger().Error("volume load failed", "source", f.source, "generation", f.generation, "error", err)
	} else {
		common.Logger().Info("volume loaded",
			"source", f.source, "generation", f.generation, "dims", grid.Dims, "voxel_size", grid.VoxelSize)
	}
	f.result = res
	l.deliver(res)
}

// deliver sends res, replacing an undelivered older result if the channel is full.
func (l *loader) deliver(res Result) {
	select {
	case l.results <- res:
	default:
		select {
		case <-l.results:
		default:
		}
		select {
		case l.results <- res:
		default:
		}
	}
}

// fetch reads the whole source, decompresses it if needed, and parses it.
func (l *loader) fetch(ctx context.Context, gen uint64, src Source) (*volume.Grid, error) {
	rc, total, err := src.Open(ctx)
	if err != nil {
		return nil, &volume.TransportError{Source: src.String(), Err: err}
	}
	defer rc.Close()

	pr := &progressReader{
		r:      rc,
		report: l.onProgress,
		state:  Progress{Generation: gen, Source: src.String(), Total: total},
	}
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}
	if _, err := io.Copy(&buf, contextReader{ctx: ctx, r: pr}); err != nil {
		return nil, &volume.TransportError{Source: src.String(), Err: err}
	}
	pr.finish()

	data := buf.Bytes()
	if volume.IsCompressed(data) {
		if data, err = volume.Decompress(data); err != nil {
			return nil, err
		}
	}

	grid, err := volume.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.String(), err)
	}
	return grid, nil
}

// Future is the pending result of a single Load call.
type Future struct {
	generation uint64
	source     string
	cancel     context.CancelFunc
	done       chan struct{}
	result     Result
}

// Generation returns the load-generation number assigned to this load.
func (f *Future) Generation() uint64 {
	return f.generation
}

// Source returns the byte-source reference being loaded.
func (f *Future) Source() string {
	return f.source
}

// Done is closed once the load has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Cancel aborts the transfer. A cancelled load settles with a transport error.
func (f *Future) Cancel() {
	f.cancel()
}

// Wait blocks until the load settles or ctx is done.
//
// Parameters:
//   - ctx: bounds the wait, not the load itself
//
// Returns:
//   - Result: the settled result
//   - error: ctx.Err() if the wait was abandoned
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Result returns the settled result without blocking.
//
// Returns:
//   - Result: the result, zero if still pending
//   - bool: true once the load has settled
func (f *Future) Result() (Result, bool) {
	select {
	case <-f.done:
		return f.result, true
	default:
		return Result{}, false
	}
}
