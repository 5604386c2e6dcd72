package queue

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnqueueOrder(t *testing.T) {
	m := NewManager()
	m.Enqueue("q", "a")
	m.Enqueue("q", "b")
	m.Enqueue("q", "c")

	got := m.Contents("q")
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Contents()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEnqueueDedupUniqueness(t *testing.T) {
	m := NewManager()
	inputs := []string{"x", "y", "x", "z", "y"}
	for _, item := range inputs {
		m.EnqueueDedupe("q", item)
	}

	got := m.Contents("q")
	want := []string{"x", "y", "z"}
	if len(got) != len(want) {
		t.Fatalf("Contents() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Contents()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEnqueueDedupReturnsAcceptance(t *testing.T) {
	m := NewManager()
	accepted, _ := m.EnqueueDedupe("q", "a")
	if !accepted {
		t.Error("first insert should be accepted")
	}
	accepted, _ = m.EnqueueDedupe("q", "a")
	if accepted {
		t.Error("duplicate insert should be rejected")
	}
}

func TestEnqueueLinesSkipsBlank(t *testing.T) {
	m := NewManager()
	n := m.EnqueueLines("q", "a\n\nb\n   \nc")
	if n != 3 {
		t.Errorf("EnqueueLines() returned %d, want 3", n)
	}
	got := m.Contents("q")
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Contents()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSubscribeReceivesInOrder(t *testing.T) {
	m := NewManager()
	_, ch := m.Subscribe("q")

	m.Enqueue("q", "a")
	m.Enqueue("q", "b")

	if got := <-ch; got != "a" {
		t.Errorf("first received = %q, want %q", got, "a")
	}
	if got := <-ch; got != "b" {
		t.Errorf("second received = %q, want %q", got, "b")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	m := NewManager()
	id, ch := m.Subscribe("q")
	m.Unsubscribe("q", id)
	m.Enqueue("q", "a")

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "queues.json")

	m := NewManager()
	m.Enqueue("q", "a")
	m.Enqueue("q", "b")

	if err := m.SaveSnapshot(path); err != nil {
		t.Fatalf("SaveSnapshot() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file not created: %v", err)
	}

	loaded := NewManager()
	if err := loaded.LoadSnapshot(path); err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}
	got := loaded.Contents("q")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("loaded Contents() = %v, want [a b]", got)
	}
}

func TestLoadSnapshotMissingFileIsNotError(t *testing.T) {
	m := NewManager()
	if err := m.LoadSnapshot(filepath.Join(t.TempDir(), "missing.json")); err != nil {
		t.Errorf("LoadSnapshot(missing) error = %v, want nil", err)
	}
}
