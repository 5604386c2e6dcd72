package screen

import "testing"

func TestNewReportsConfiguredSize(t *testing.T) {
	m := New(10, 4)
	cols, rows := m.Size()
	if cols != 10 || rows != 4 {
		t.Errorf("Size() = (%d, %d), want (10, 4)", cols, rows)
	}
}

func TestProcessWritesPlainText(t *testing.T) {
	m := New(20, 3)
	m.Process([]byte("hello"))

	got := m.Contents()
	if len(got) < 5 || got[:5] != "hello" {
		t.Errorf("Contents() = %q, want it to start with %q", got, "hello")
	}
}

func TestContentsHasOneLinePerRow(t *testing.T) {
	m := New(10, 3)
	m.Process([]byte("a\r\nb\r\nc"))

	lines := 1
	for _, r := range m.Contents() {
		if r == '\n' {
			lines++
		}
	}
	if lines != 3 {
		t.Errorf("Contents() has %d lines, want 3", lines)
	}
}

func TestResizeUpdatesSize(t *testing.T) {
	m := New(10, 4)
	m.Resize(20, 8)

	cols, rows := m.Size()
	if cols != 20 || rows != 8 {
		t.Errorf("Size() after Resize = (%d, %d), want (20, 8)", cols, rows)
	}
	if len(m.Contents()) == 0 {
		t.Error("Contents() after Resize returned empty string")
	}
}

func TestANSIRendersNonEmptyStream(t *testing.T) {
	m := New(10, 2)
	m.Process([]byte("x"))

	if m.ANSI() == "" {
		t.Error("ANSI() returned empty string after writing data")
	}
}
