package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
)

// Pool lends a fixed set of engines to concurrent callers.
type Pool struct {
	engines chan Engine
	all     []Engine
	once    sync.Once
}

// NewPool creates size engines with factory. If any engine fails to start,
// the ones already created are closed and the error is returned.
func NewPool(size int, factory func() (Engine, error)) (*Pool, error) {
	if size < 1 {
		size = 1
	}

	p := &Pool{engines: make(chan Engine, size)}
	for i := 0; i < size; i++ {
		eng, err := factory()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to start ocr engine %d: %w", i, err)
		}
		p.all = append(p.all, eng)
		p.engines <- eng
	}
	return p, nil
}

// Size returns the number of engines in the pool.
func (p *Pool) Size() int { return len(p.all) }

// Recognize borrows an engine, waiting for one to become free or for ctx to
// be done.
func (p *Pool) Recognize(ctx context.Context, img image.Image) ([]TextSpan, error) {
	select {
	case eng := <-p.engines:
		defer func() { p.engines <- eng }()
		return eng.Recognize(ctx, img)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes every engine. It is safe to call more than once.
func (p *Pool) Close() error {
	var errs []error
	p.once.Do(func() {
		for _, eng := range p.all {
			if err := eng.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
