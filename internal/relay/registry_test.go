package relay_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"matrixchat/internal/domain"
	"matrixchat/internal/protocol/wire"
	"matrixchat/internal/relay"
)

func reserve(t *testing.T, reg *relay.Registry, name domain.Username) *relay.Member {
	t.Helper()
	local, remote := net.Pipe()
	t.Cleanup(func() { _ = local.Close(); _ = remote.Close() })

	m, ok := reg.Reserve(name, local, wire.NewWriter(local))
	if !ok {
		t.Fatalf("Reserve(%q) rejected", name)
	}
	go func() { _, _ = io.Copy(io.Discard, remote) }()
	return m
}

func TestRegistry_ReserveUnique(t *testing.T) {
	t.Parallel()

	reg := relay.NewRegistry(time.Second)
	reserve(t, reg, "alice")

	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()
	if _, ok := reg.Reserve("alice", local, wire.NewWriter(local)); ok {
		t.Fatal("duplicate name accepted")
	}
	if _, ok := reg.Reserve("", local, wire.NewWriter(local)); ok {
		t.Fatal("empty name accepted")
	}
	if reg.Len() != 1 {
		t.Fatalf("want 1 member, got %d", reg.Len())
	}
}

func TestRegistry_RemoveKeepsOrder(t *testing.T) {
	t.Parallel()

	reg := relay.NewRegistry(time.Second)
	reserve(t, reg, "alice")
	bob := reserve(t, reg, "bob")
	reserve(t, reg, "carol")

	if !reg.Remove(bob) {
		t.Fatal("Remove(bob) = false")
	}
	if reg.Remove(bob) {
		t.Fatal("second Remove(bob) = true")
	}
	if diff := cmp.Diff([]domain.Username{"alice", "carol"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_BroadcastSkipsSenderAndUnready(t *testing.T) {
	t.Parallel()

	reg := relay.NewRegistry(time.Second)
	alice := reserve(t, reg, "alice")
	reserve(t, reg, "bob")
	reserve(t, reg, "carol")

	// Only members that have been told OK receive chat.
	if diff := cmp.Diff([]domain.Username{"bob"}, reg.Participants("bob")); diff != "" {
		t.Fatalf("participants mismatch (-want +got):\n%s", diff)
	}
	if n := reg.Broadcast(alice.Name(), "line"); n != 0 {
		t.Fatalf("broadcast reached %d unready members", n)
	}
}
