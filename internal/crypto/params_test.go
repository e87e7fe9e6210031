package crypto_test

import (
	"context"
	"errors"
	"testing"

	"github.com/codahale/gubbins/assert"
	"go.uber.org/atomic"

	"matrixchat/internal/crypto"
)

func TestGenerate_ProducesPrimeAndRoot(t *testing.T) {
	t.Parallel()

	g := crypto.NewGenerator(42)
	for i := 0; i < 3; i++ {
		p, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if p.Modulus < crypto.WindowStartMin || p.Modulus >= crypto.WindowStartMax+crypto.WindowWidth {
			t.Fatalf("modulus %d outside sampling window", p.Modulus)
		}
		if !crypto.IsPrime(p.Modulus) {
			t.Fatalf("modulus %d is not prime", p.Modulus)
		}
		if !crypto.IsPrimitiveRoot(p.Base, p.Modulus) {
			t.Fatalf("base %d is not a primitive root of %d", p.Base, p.Modulus)
		}
	}
}

func TestSampleModulus_EmptyRange(t *testing.T) {
	t.Parallel()

	_, err := crypto.NewGenerator(1).SampleModulus(24, 29)
	if !errors.Is(err, crypto.ErrNoPrime) {
		t.Fatalf("want ErrNoPrime, got %v", err)
	}
}

func TestGenerateCells(t *testing.T) {
	t.Parallel()

	cells, err := crypto.NewGenerator(7).GenerateCells(context.Background())
	if err != nil {
		t.Fatalf("GenerateCells: %v", err)
	}
	for i, p := range cells {
		if !crypto.IsPrime(p.Modulus) || !crypto.IsPrimitiveRoot(p.Base, p.Modulus) {
			t.Fatalf("cell %d: bad parameters %+v", i, p)
		}
	}
}

func TestGenerate_ResamplesEmptyWindow(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	g := crypto.NewGenerator(3).WithWindow(func() (int64, int64) {
		if calls.Inc() < 3 {
			return 24, 29 // no primes
		}
		return 1009, 1010
	})

	p, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	assert.Equal(t, "windows sampled", int32(3), calls.Load())
	assert.Equal(t, "modulus", int64(1009), p.Modulus)
	if !crypto.IsPrimitiveRoot(p.Base, p.Modulus) {
		t.Fatalf("base %d is not a primitive root of 1009", p.Base)
	}
}

func TestGenerate_GivesUpAfterAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	g := crypto.NewGenerator(3).WithAttempts(4).WithWindow(func() (int64, int64) {
		calls.Inc()
		return 90, 97
	})

	_, err := g.Generate()
	if !errors.Is(err, crypto.ErrNoPrime) {
		t.Fatalf("want ErrNoPrime, got %v", err)
	}
	assert.Equal(t, "windows sampled", int32(4), calls.Load())

	if _, err := g.GenerateCells(context.Background()); !errors.Is(err, crypto.ErrNoPrime) {
		t.Fatalf("GenerateCells: want ErrNoPrime, got %v", err)
	}
}
