package agent

import "testing"

func TestNewPoolRejectsZeroSize(t *testing.T) {
	if _, err := NewPool(PoolConfig{Size: 0, Cols: 80, Rows: 24, ShellCommand: "/bin/sh"}, testLogger()); err == nil {
		t.Fatal("NewPool(size=0) should have failed")
	}
}

func TestPoolGetByIndexWraps(t *testing.T) {
	p, err := NewPool(PoolConfig{Size: 3, Cols: 80, Rows: 24, ShellCommand: "/bin/sh"}, testLogger())
	if err != nil {
		t.Fatalf("NewPool() error: %v", err)
	}
	defer p.Close()

	first := p.GetByIndex(0)
	if got := p.GetByIndex(3); got != first {
		t.Errorf("GetByIndex(3) should wrap to GetByIndex(0) in a pool of size 3")
	}
}

func TestPoolGetNextRoundRobins(t *testing.T) {
	p, err := NewPool(PoolConfig{Size: 2, Cols: 80, Rows: 24, ShellCommand: "/bin/sh"}, testLogger())
	if err != nil {
		t.Fatalf("NewPool() error: %v", err)
	}
	defer p.Close()

	seen := map[string]int{}
	for i := 0; i < 4; i++ {
		seen[p.GetNext().ID()]++
	}
	for id, count := range seen {
		if count != 2 {
			t.Errorf("agent %s seen %d times in 4 round-robin calls over pool of 2, want 2", id, count)
		}
	}
}
