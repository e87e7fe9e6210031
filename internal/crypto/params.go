package crypto

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"matrixchat/internal/domain"
)

// Parameter window used by Generate.
const (
	WindowStartMin int64 = 500
	WindowStartMax int64 = 1000
	WindowWidth    int64 = 500

	// DefaultAttempts bounds how many windows Generate samples before
	// giving up.
	DefaultAttempts = 8
)

// ErrNoPrime is returned when a sampled window contains no prime.
var ErrNoPrime = errors.New("no prime in sampled range")

// lockedSource serializes access to a math/rand generator.
type lockedSource struct {
	rnd *rand.Rand
	mu  sync.Mutex
}

// Int63n returns a uniform value in [0, n).
func (r *lockedSource) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Int63n(n)
}

// Generator picks a prime modulus and a primitive root for each matrix
// cell. It is safe for concurrent use.
type Generator struct {
	rnd      *lockedSource
	attempts int
	window   func() (lo, hi int64)
}

// NewGenerator returns a Generator seeded from seed, or from the clock when
// seed is zero.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rnd:      &lockedSource{rnd: rand.New(rand.NewSource(seed))},
		attempts: DefaultAttempts,
	}
}

// WithAttempts sets how many prime windows are sampled before failing.
func (g *Generator) WithAttempts(n int) *Generator {
	if n > 0 {
		g.attempts = n
	}
	return g
}

// WithWindow replaces the random prime window with fn. Each attempt calls
// fn once and searches [lo, hi).
func (g *Generator) WithWindow(fn func() (lo, hi int64)) *Generator {
	g.window = fn
	return g
}

func (g *Generator) nextWindow() (int64, int64) {
	if g.window != nil {
		return g.window()
	}
	start := WindowStartMin + g.rnd.Int63n(WindowStartMax-WindowStartMin)
	return start, start + WindowWidth
}

// Generate returns a fresh (base, modulus) pair. A window without primes is
// resampled up to the configured number of attempts.
func (g *Generator) Generate() (domain.PublicParameters, error) {
	var lastErr error
	for i := 0; i < g.attempts; i++ {
		lo, hi := g.nextWindow()
		p, err := g.SampleModulus(lo, hi)
		if errors.Is(err, ErrNoPrime) {
			lastErr = err
			continue
		}
		if err != nil {
			return domain.PublicParameters{}, err
		}
		root, err := g.SampleRoot(p)
		if err != nil {
			return domain.PublicParameters{}, err
		}
		return domain.PublicParameters{Base: root, Modulus: p}, nil
	}
	return domain.PublicParameters{}, fmt.Errorf("after %d windows: %w", g.attempts, lastErr)
}

// SampleModulus picks a prime uniformly from [lo, hi).
func (g *Generator) SampleModulus(lo, hi int64) (int64, error) {
	primes := PrimesInRange(lo, hi)
	if len(primes) == 0 {
		return 0, fmt.Errorf("%w: [%d, %d)", ErrNoPrime, lo, hi)
	}
	return primes[g.rnd.Int63n(int64(len(primes)))], nil
}

// SampleRoot picks a primitive root of p uniformly.
func (g *Generator) SampleRoot(p int64) (int64, error) {
	roots := PrimitiveRoots(p)
	if len(roots) == 0 {
		return 0, fmt.Errorf("no primitive root mod %d", p)
	}
	return roots[g.rnd.Int63n(int64(len(roots)))], nil
}

// GenerateCells produces parameters for every matrix cell concurrently.
func (g *Generator) GenerateCells(ctx context.Context) ([domain.CellCount]domain.PublicParameters, error) {
	var (
		out  [domain.CellCount]domain.PublicParameters
		errs [domain.CellCount]error
		wg   sync.WaitGroup
	)
	for i := range out {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i], errs[i] = g.Generate()
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return out, err
	}
	for i, err := range errs {
		if err != nil {
			return out, fmt.Errorf("cell %d: %w", i, err)
		}
	}
	return out, nil
}

// Compile-time assertion that Generator implements domain.ParameterSource.
var _ domain.ParameterSource = (*Generator)(nil)
