package hill_test

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/codahale/gubbins/assert"

	"matrixchat/internal/domain"
	"matrixchat/internal/protocol/hill"
)

func newClassicCipher(t *testing.T) *hill.Cipher {
	t.Helper()
	c, err := hill.NewCipher(domain.KeyMatrix{{6, 24, 1}, {13, 16, 10}, {20, 17, 15}})
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	return c
}

func TestCipher_KnownBlock(t *testing.T) {
	t.Parallel()

	c := newClassicCipher(t)
	ct, err := c.Encrypt("hey")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	assert.Equal(t, "ciphertext", "K4d", ct)
}

func TestCipher_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newClassicCipher(t)
	rnd := rand.New(rand.NewSource(3))
	for n := 3; n <= 96; n += 3 {
		var sb strings.Builder
		for i := 0; i < n; i++ {
			sb.WriteRune(rune(32 + rnd.Intn(95)))
		}
		pt := sb.String()

		ct, err := c.Encrypt(pt)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", pt, err)
		}
		got, err := c.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt(%q): %v", ct, err)
		}
		assert.Equal(t, "round trip", pt, got)
	}
}

func TestCipher_PaddingDecodesToSpace(t *testing.T) {
	t.Parallel()

	c := newClassicCipher(t)
	ct, err := c.Encrypt("ab")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if n := len([]rune(ct)); n != 3 {
		t.Fatalf("want 3 runes of ciphertext, got %d", n)
	}
	got, err := c.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	assert.Equal(t, "padded plaintext", "ab ", got)
}

func TestCipher_HighRunesSurvive(t *testing.T) {
	t.Parallel()

	c := newClassicCipher(t)
	// Plaintext "~~~" enciphers to values near the top of the alphabet.
	for _, pt := range []string{"~~~", "}~|", "zzz"} {
		ct, err := c.Encrypt(pt)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", pt, err)
		}
		got, err := c.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt(%q): %v", ct, err)
		}
		assert.Equal(t, "round trip", pt, got)
	}
}

func TestCipher_RejectsOutOfAlphabet(t *testing.T) {
	t.Parallel()

	c := newClassicCipher(t)
	for _, s := range []string{"tab\there", "héllo", "new\nline"} {
		if _, err := c.Encrypt(s); !errors.Is(err, hill.ErrOutOfAlphabet) {
			t.Fatalf("Encrypt(%q): want ErrOutOfAlphabet, got %v", s, err)
		}
	}
}

func TestNewCipher_Singular(t *testing.T) {
	t.Parallel()

	_, err := hill.NewCipher(domain.KeyMatrix{{1, 2, 3}, {2, 4, 6}, {0, 0, 1}})
	if !errors.Is(err, hill.ErrSingular) {
		t.Fatalf("want ErrSingular, got %v", err)
	}
}
