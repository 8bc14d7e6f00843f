package loader

import (
	"context"
	"errors"
	"path"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/retroscene/internal/config"
	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/pkg/math"
	"github.com/Faultbox/retroscene/pkg/meshz"
)

// ErrClosed is delivered by loads started after Close.
var ErrClosed = errors.New("loader: closed")

// Descriptor names a model and places it in the world.
type Descriptor struct {
	Path     string
	File     string
	Scale    float32
	Position math.Vec3
}

// DescriptorFromConfig converts the model section of a scene config.
func DescriptorFromConfig(cfg config.ModelConfig) Descriptor {
	return Descriptor{Path: cfg.Path, File: cfg.File, Scale: cfg.Scale, Position: cfg.Position}
}

// Name returns the asset name relative to the decoder's sources.
func (d Descriptor) Name() string {
	return path.Join(d.Path, d.File)
}

// Result is the outcome of one load. Exactly one of Node and Err is set.
type Result struct {
	Node *graph.Node
	Err  error
}

// Future is a load in flight. It completes exactly once.
type Future struct {
	done   chan struct{}
	result Result
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(r Result) {
	f.result = r
	close(f.done)
}

// Done is closed when the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Poll returns the result without blocking; ok is false while the load is
// still running.
func (f *Future) Poll() (r Result, ok bool) {
	select {
	case <-f.done:
		return f.result, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the load completes or ctx is done.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Loader runs loads in background goroutines. Concurrent loads of the same
// asset share one decode; each still gets its own graph.
type Loader struct {
	dec   *Decoder
	log   *zap.Logger
	group singleflight.Group

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// New creates a loader using dec. Every load made through it shares dec.
func New(dec *Decoder, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{dec: dec, log: log}
}

// Load starts loading d and returns immediately. A ctx that is already
// done fails the load before any work starts; once decoding begins it runs
// to completion.
func (l *Loader) Load(ctx context.Context, d Descriptor) *Future {
	f := newFuture()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		f.complete(Result{Err: ErrClosed})
		return f
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		f.complete(l.load(ctx, d))
	}()
	return f
}

func (l *Loader) load(ctx context.Context, d Descriptor) Result {
	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}
	name := d.Name()
	v, err, shared := l.group.Do(name, func() (any, error) {
		return l.dec.Decode(name)
	})
	if err != nil {
		l.log.Warn("model load failed", zap.String("model", name), zap.Error(err))
		return Result{Err: err}
	}

	root, err := Build(v.(*meshz.Asset), l.log)
	if err != nil {
		l.log.Warn("model build failed", zap.String("model", name), zap.Error(err))
		return Result{Err: err}
	}
	if d.Scale != 0 {
		root.Scale = math.Vec3{X: d.Scale, Y: d.Scale, Z: d.Scale}
	}
	root.Position = d.Position
	l.log.Info("model loaded", zap.String("model", name), zap.Bool("shared_decode", shared))
	return Result{Node: root}
}

// Close rejects new loads and waits for the running ones to finish.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
}
