package trader

import (
	"fmt"
	"testing"
	"time"
)

func TestMailboxDrainsInOrder(t *testing.T) {
	m := NewMailbox(4)
	if m.HasMessages() {
		t.Fatal("expected empty mailbox")
	}
	m.Deliver("a")
	m.Deliver("b")

	if got := m.Peek(); len(got) != 2 {
		t.Fatalf("expected 2 peeked messages, got %v", got)
	}
	got := m.Messages()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected [a b], got %v", got)
	}
	if m.HasMessages() {
		t.Error("expected mailbox to be drained")
	}
}

func TestMailboxDropsOldestWhenFull(t *testing.T) {
	m := NewMailbox(3)
	for i := 0; i < 5; i++ {
		m.Deliver(fmt.Sprintf("m%d", i))
	}
	got := m.Messages()
	want := []string{"m2", "m3", "m4"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if m.Dropped() != 2 {
		t.Errorf("expected 2 dropped, got %d", m.Dropped())
	}
}

func TestMailboxSubscribe(t *testing.T) {
	m := NewMailbox(8)
	m.Deliver("before")

	ch, cancel := m.Subscribe(4)
	m.Deliver("after")

	select {
	case msg := <-ch:
		if msg != "after" {
			t.Errorf("expected %q, got %q", "after", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscription")
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after cancel")
	}
	m.Deliver("late")
	if m.Len() != 3 {
		t.Errorf("expected 3 queued messages, got %d", m.Len())
	}
}

func TestRegistryDeliver(t *testing.T) {
	r := NewRegistry(8, nil)
	alice := r.Register("alice")
	if again := r.Register("alice"); again != alice {
		t.Fatal("expected Register to return the existing trader")
	}

	r.Deliver("alice", "hello")
	r.Deliver("nobody", "lost")

	if !alice.HasMessages() {
		t.Fatal("expected alice to have messages")
	}
	if got := alice.Messages(); len(got) != 1 || got[0] != "hello" {
		t.Errorf("expected [hello], got %v", got)
	}

	r.Remove("alice")
	r.Deliver("alice", "gone")
	if alice.HasMessages() {
		t.Error("expected no delivery after removal")
	}
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry(0, nil)
	r.Register("zed")
	r.Register("amy")
	names := r.Names()
	if len(names) != 2 || names[0] != "amy" || names[1] != "zed" {
		t.Errorf("expected [amy zed], got %v", names)
	}
}
