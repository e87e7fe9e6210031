package message_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/codahale/gubbins/assert"

	"matrixchat/internal/crypto"
	"matrixchat/internal/domain"
	"matrixchat/internal/protocol/hill"
	"matrixchat/internal/services/message"
)

var classic = domain.KeyMatrix{{6, 24, 1}, {13, 16, 10}, {20, 17, 15}}

func TestSealOpen(t *testing.T) {
	t.Parallel()

	svc := message.New()
	fp, err := svc.Rekey(classic)
	if err != nil {
		t.Fatalf("Rekey: %v", err)
	}
	assert.Equal(t, "fingerprint", crypto.KeyFingerprint(classic), fp)

	ct, err := svc.Seal("alice", "hello")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	pt, err := svc.Open(ct)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// "alice: hello" is 12 runes, so no padding is added.
	assert.Equal(t, "plaintext", "alice: hello", pt)
}

func TestNoKey(t *testing.T) {
	t.Parallel()

	svc := message.New()
	if _, err := svc.Seal("bob", "hi"); !errors.Is(err, message.ErrNoKey) {
		t.Fatalf("want ErrNoKey, got %v", err)
	}
	if _, err := svc.Open("abc"); !errors.Is(err, message.ErrNoKey) {
		t.Fatalf("want ErrNoKey, got %v", err)
	}
	if _, ok := svc.Fingerprint(); ok {
		t.Fatal("fingerprint without key")
	}
}

func TestRekey_SingularKeepsOldKey(t *testing.T) {
	t.Parallel()

	svc := message.New()
	if _, err := svc.Rekey(classic); err != nil {
		t.Fatalf("Rekey: %v", err)
	}
	if _, err := svc.Rekey(domain.KeyMatrix{}); !errors.Is(err, hill.ErrSingular) {
		t.Fatalf("want ErrSingular, got %v", err)
	}
	fp, ok := svc.Fingerprint()
	if !ok {
		t.Fatal("old key lost")
	}
	assert.Equal(t, "fingerprint", crypto.KeyFingerprint(classic), fp)
}

func TestForget(t *testing.T) {
	t.Parallel()

	svc := message.New()
	if _, err := svc.Rekey(classic); err != nil {
		t.Fatalf("Rekey: %v", err)
	}
	svc.Forget()
	if _, err := svc.SealRaw("abc"); !errors.Is(err, message.ErrNoKey) {
		t.Fatalf("want ErrNoKey after Forget, got %v", err)
	}
}

func TestConcurrentRekeyAndSeal(t *testing.T) {
	t.Parallel()

	other := domain.KeyMatrix{{1, 2, 3}, {0, 1, 4}, {5, 6, 0}}
	svc := message.New()
	if _, err := svc.Rekey(classic); err != nil {
		t.Fatalf("Rekey: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			k := classic
			if i%2 == 0 {
				k = other
			}
			if _, err := svc.Rekey(k); err != nil {
				t.Errorf("Rekey: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := svc.SealRaw("abcdef"); err != nil {
				t.Errorf("SealRaw: %v", err)
				return
			}
		}
	}()
	wg.Wait()
}
