package hill_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/codahale/gubbins/assert"
	"github.com/google/go-cmp/cmp"

	"matrixchat/internal/protocol/hill"
)

func classicKey() hill.Matrix {
	return hill.Matrix{{6, 24, 1}, {13, 16, 10}, {20, 17, 15}}
}

func TestDeterminant(t *testing.T) {
	t.Parallel()

	d, err := hill.Determinant(classicKey())
	if err != nil {
		t.Fatalf("Determinant: %v", err)
	}
	assert.Equal(t, "det", int64(441), d)

	d2, err := hill.Determinant(hill.Matrix{{3, 8}, {4, 6}})
	if err != nil {
		t.Fatalf("Determinant: %v", err)
	}
	assert.Equal(t, "2x2 det", int64(-14), d2)

	if _, err := hill.Determinant(hill.Matrix{{1, 2, 3}}); !errors.Is(err, hill.ErrShape) {
		t.Fatalf("want ErrShape, got %v", err)
	}
}

func TestMinorsAndCofactors(t *testing.T) {
	t.Parallel()

	minors, err := hill.Minors(classicKey())
	if err != nil {
		t.Fatalf("Minors: %v", err)
	}
	if diff := cmp.Diff(hill.Matrix{{70, -5, -99}, {343, 70, -378}, {224, 47, -216}}, minors); diff != "" {
		t.Fatalf("minors mismatch (-want +got):\n%s", diff)
	}

	adj, err := hill.Cofactors(classicKey())
	if err != nil {
		t.Fatalf("Cofactors: %v", err)
	}
	if diff := cmp.Diff(hill.Matrix{{70, -343, 224}, {5, 70, -47}, {-99, 378, -216}}, adj); diff != "" {
		t.Fatalf("adjugate mismatch (-want +got):\n%s", diff)
	}
}

func TestModInverseScalar(t *testing.T) {
	t.Parallel()

	m, err := hill.ModInverseScalar(441, 97)
	if err != nil {
		t.Fatalf("ModInverseScalar: %v", err)
	}
	assert.Equal(t, "inverse of 441 mod 97", int64(11), m)

	m, err = hill.ModInverseScalar(-3, 97)
	if err != nil {
		t.Fatalf("ModInverseScalar: %v", err)
	}
	if m*94%97 != 1 {
		t.Fatalf("bad inverse %d of -3", m)
	}

	if _, err := hill.ModInverseScalar(194, 97); !errors.Is(err, hill.ErrSingular) {
		t.Fatalf("want ErrSingular, got %v", err)
	}
}

func TestModularInverse_ClassicKey(t *testing.T) {
	t.Parallel()

	inv, err := hill.ModularInverse(classicKey(), 97)
	if err != nil {
		t.Fatalf("ModularInverse: %v", err)
	}
	want := hill.Matrix{{91, 10, 39}, {55, 91, 65}, {75, 84, 49}}
	if diff := cmp.Diff(want, inv); diff != "" {
		t.Fatalf("inverse mismatch (-want +got):\n%s", diff)
	}
}

func TestModularInverse_ComposesToIdentity(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(97))
	checked := 0
	for checked < 200 {
		k := hill.NewMatrix(3, 3)
		for i := range k {
			for j := range k[i] {
				k[i][j] = rnd.Int63n(97)
			}
		}
		d, err := hill.Determinant(k)
		if err != nil {
			t.Fatalf("Determinant: %v", err)
		}
		if d%97 == 0 {
			if _, err := hill.ModularInverse(k, 97); !errors.Is(err, hill.ErrSingular) {
				t.Fatalf("want ErrSingular for %v, got %v", k, err)
			}
			continue
		}
		inv, err := hill.ModularInverse(k, 97)
		if err != nil {
			t.Fatalf("ModularInverse(%v): %v", k, err)
		}
		prod, err := hill.Multiply(inv, k)
		if err != nil {
			t.Fatalf("Multiply: %v", err)
		}
		if diff := cmp.Diff(hill.Identity(3), hill.ExtendedMod(prod, 97)); diff != "" {
			t.Fatalf("inverse of %v does not compose to identity:\n%s", k, diff)
		}
		checked++
	}
}

func TestInverse_Rational(t *testing.T) {
	t.Parallel()

	inv, err := hill.Inverse(hill.Matrix{{4, 7}, {2, 6}})
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	want := [][]float64{{0.6, -0.7}, {-0.2, 0.4}}
	if diff := cmp.Diff(want, inv, cmp.Comparer(func(a, b float64) bool {
		d := a - b
		return d < 1e-9 && d > -1e-9
	})); diff != "" {
		t.Fatalf("rational inverse mismatch (-want +got):\n%s", diff)
	}

	if _, err := hill.Inverse(hill.Matrix{{1, 2}, {2, 4}}); !errors.Is(err, hill.ErrSingular) {
		t.Fatalf("want ErrSingular, got %v", err)
	}
}

func TestExtendedMod(t *testing.T) {
	t.Parallel()

	got := hill.ExtendedMod(hill.Matrix{{-1, 97, 98}, {-195, 0, 5}}, 97)
	if diff := cmp.Diff(hill.Matrix{{96, 0, 1}, {96, 0, 5}}, got); diff != "" {
		t.Fatalf("ExtendedMod mismatch (-want +got):\n%s", diff)
	}

	raw := hill.Mod(hill.Matrix{{-1}}, 97)
	assert.Equal(t, "truncated remainder", int64(-1), raw[0][0])
}

func TestMultiply_ShapeMismatch(t *testing.T) {
	t.Parallel()

	_, err := hill.Multiply(hill.NewMatrix(3, 3), hill.NewMatrix(2, 1))
	if !errors.Is(err, hill.ErrShape) {
		t.Fatalf("want ErrShape, got %v", err)
	}
}
