package chunker

import (
	"strings"
	"testing"
)

func TestSplitWindowShortTextPassthrough(t *testing.T) {
	got := splitWindow("short text", 100, 20)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("splitWindow() = %v, want [short text]", got)
	}
}

func TestSplitWindowEmpty(t *testing.T) {
	if got := splitWindow("   \n  ", 100, 20); got != nil {
		t.Errorf("splitWindow(blank) = %v, want nil", got)
	}
}

func TestSplitWindowPrefersParagraphs(t *testing.T) {
	text := strings.Repeat("alpha beta gamma.\n\n", 10)
	got := splitWindow(text, 60, 10)

	if len(got) < 2 {
		t.Fatalf("got %d pieces, want several", len(got))
	}
	for i, piece := range got {
		if strings.TrimSpace(piece) == "" {
			t.Errorf("piece %d is blank", i)
		}
	}
}

func TestSplitWindowOverlapCarry(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("segmentword ")
	}
	got := splitWindow(b.String(), 50, 12)

	if len(got) < 2 {
		t.Fatalf("got %d pieces, want several", len(got))
	}
	// Consecutive pieces share text from the overlap tail.
	tail := got[0][len(got[0])-6:]
	if !strings.Contains(got[1], tail) {
		t.Errorf("piece 2 %q does not carry tail of piece 1 %q", got[1], got[0])
	}
}

func TestSplitWindowHardCutWithoutSeparators(t *testing.T) {
	text := strings.Repeat("x", 250)
	got := splitWindow(text, 100, 20)

	if len(got) < 3 {
		t.Fatalf("got %d pieces, want at least 3", len(got))
	}
	for i, piece := range got {
		if len(piece) > 100 {
			t.Errorf("piece %d length %d exceeds limit", i, len(piece))
		}
	}
	// Reassembling without the overlaps must recover the original length.
	total := len(got[0])
	for _, piece := range got[1:] {
		total += len(piece) - 20
	}
	if total != 250 {
		t.Errorf("reassembled length = %d, want 250", total)
	}
}

func TestSplitWindowDegenerateOverlap(t *testing.T) {
	// Overlap at or above the limit would stall; the splitter clamps it.
	text := strings.Repeat("y", 300)
	got := splitWindow(text, 100, 100)

	if len(got) < 2 {
		t.Fatalf("got %d pieces, want several", len(got))
	}
	for i, piece := range got {
		if len(piece) > 100 {
			t.Errorf("piece %d length %d exceeds limit", i, len(piece))
		}
	}
}

func TestSplitWindowRecursesOversizedPart(t *testing.T) {
	// One paragraph far beyond the limit forces the next separator down the
	// ladder.
	huge := strings.Repeat("many words in a row ", 20)
	text := "small intro\n\n" + huge
	got := splitWindow(text, 80, 10)

	for i, piece := range got {
		if len(piece) > 80 {
			t.Errorf("piece %d length %d exceeds limit: %q", i, len(piece), piece)
		}
	}
}
