package keyagreement_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/codahale/gubbins/assert"

	"matrixchat/internal/domain"
	"matrixchat/internal/services/keyagreement"
)

func TestAssembler_FillsRowMajor(t *testing.T) {
	t.Parallel()

	scalars := []int64{6, 24, 1, 13, 16, 10, 20, 17, 15}

	var asm keyagreement.Assembler
	var wg sync.WaitGroup
	for i, v := range scalars {
		wg.Add(1)
		go func(i int, v int64) {
			defer wg.Done()
			if err := asm.Set(i, v); err != nil {
				t.Errorf("Set(%d): %v", i, err)
			}
		}(i, v)
	}
	wg.Wait()

	k, err := asm.Matrix()
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	assert.Equal(t, "key matrix", domain.KeyMatrix{{6, 24, 1}, {13, 16, 10}, {20, 17, 15}}, k)
}

func TestAssembler_Incomplete(t *testing.T) {
	t.Parallel()

	var asm keyagreement.Assembler
	for i := 0; i < domain.CellCount-1; i++ {
		if err := asm.Set(i, int64(i+1)); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}
	if _, err := asm.Matrix(); !errors.Is(err, keyagreement.ErrIncomplete) {
		t.Fatalf("want ErrIncomplete, got %v", err)
	}
}

func TestAssembler_Degenerate(t *testing.T) {
	t.Parallel()

	var asm keyagreement.Assembler
	for i := 0; i < domain.CellCount; i++ {
		if err := asm.Set(i, 5); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}
	if _, err := asm.Matrix(); !errors.Is(err, keyagreement.ErrDegenerateKey) {
		t.Fatalf("want ErrDegenerateKey, got %v", err)
	}
}

func TestAssembler_RejectsBadCell(t *testing.T) {
	t.Parallel()

	var asm keyagreement.Assembler
	if err := asm.Set(domain.CellCount, 1); err == nil {
		t.Fatal("want error for out-of-range cell")
	}
}
