package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func TestSplitEmptyText(t *testing.T) {
	c := New(DefaultConfig())

	for _, text := range []string{"", "   ", "\n\n\f\n"} {
		segs, err := c.Split(text, FileTypePDF, Hints{})
		if err != nil {
			t.Fatalf("Split(%q) failed: %v", text, err)
		}
		if len(segs) != 0 {
			t.Errorf("Split(%q) = %d segments, want 0", text, len(segs))
		}
	}
}

func TestSplitUnsupportedType(t *testing.T) {
	c := New(DefaultConfig())

	if _, err := c.Split("hello", FileType("xlsx"), Hints{}); err == nil {
		t.Fatal("expected error for unsupported file type")
	}
}

func TestSplitPDFPages(t *testing.T) {
	c := New(DefaultConfig())

	text := "intro material" + PageSeparator + "middle content" + PageSeparator + "final remarks"
	segs, err := c.Split(text, FileTypePDF, Hints{})
	if err != nil {
		t.Fatalf("Split() failed: %v", err)
	}

	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	wantLabels := []string{"page_1", "page_2", "page_3"}
	wantContent := []string{"intro material", "middle content", "final remarks"}
	for i, seg := range segs {
		if seg.SectionLabel != wantLabels[i] {
			t.Errorf("segment %d label = %q, want %q", i, seg.SectionLabel, wantLabels[i])
		}
		if seg.Content != wantContent[i] {
			t.Errorf("segment %d content = %q, want %q", i, seg.Content, wantContent[i])
		}
	}
}

func TestSplitPDFSkipsBlankPages(t *testing.T) {
	c := New(DefaultConfig())

	text := "first" + PageSeparator + "   " + PageSeparator + "third"
	segs, err := c.Split(text, FileTypePDF, Hints{})
	if err != nil {
		t.Fatalf("Split() failed: %v", err)
	}

	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	// Labels keep the original page numbering so locators stay truthful.
	if segs[1].SectionLabel != "page_3" {
		t.Errorf("second segment label = %q, want page_3", segs[1].SectionLabel)
	}
}

func TestSplitOversizedPageKeepsLabel(t *testing.T) {
	c := New(Config{Dense: Window{Size: 50, Overlap: 10}})

	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "sentence number %d here. ", i)
	}
	segs, err := c.Split(b.String(), FileTypePDF, Hints{})
	if err != nil {
		t.Fatalf("Split() failed: %v", err)
	}

	if len(segs) < 2 {
		t.Fatalf("oversized page produced %d segments, want several", len(segs))
	}
	for i, seg := range segs {
		if seg.SectionLabel != "page_1" {
			t.Errorf("segment %d label = %q, want page_1", i, seg.SectionLabel)
		}
		if len(seg.Content) > 50 {
			t.Errorf("segment %d length %d exceeds window", i, len(seg.Content))
		}
	}
}

func TestSplitSlides(t *testing.T) {
	c := New(DefaultConfig())

	text := "Title slide" + PageSeparator + "Agenda items"
	segs, err := c.Split(text, FileTypeSlide, Hints{})
	if err != nil {
		t.Fatalf("Split() failed: %v", err)
	}

	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].SectionLabel != "slide_1" || segs[1].SectionLabel != "slide_2" {
		t.Errorf("labels = %q, %q, want slide_1, slide_2", segs[0].SectionLabel, segs[1].SectionLabel)
	}
}

func TestSplitDocHeadings(t *testing.T) {
	c := New(DefaultConfig())

	text := "preamble text\n# Introduction\nsome intro\n## Methods\nmethod detail"
	segs, err := c.Split(text, FileTypeDoc, Hints{})
	if err != nil {
		t.Fatalf("Split() failed: %v", err)
	}

	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	wantLabels := []string{"section_intro", "Introduction", "Methods"}
	for i, seg := range segs {
		if seg.SectionLabel != wantLabels[i] {
			t.Errorf("segment %d label = %q, want %q", i, seg.SectionLabel, wantLabels[i])
		}
	}
}

func TestSplitDocWithoutHeadingsFallsBack(t *testing.T) {
	c := New(DefaultConfig())

	segs, err := c.Split("plain prose with no structure at all", FileTypeDoc, Hints{})
	if err != nil {
		t.Fatalf("Split() failed: %v", err)
	}

	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	if segs[0].SectionLabel != "part_1" {
		t.Errorf("label = %q, want part_1", segs[0].SectionLabel)
	}
}

func TestSplitTextWindowed(t *testing.T) {
	c := New(Config{Plain: Window{Size: 40, Overlap: 10}})

	var b strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "word%d and more filler text here\n", i)
	}
	segs, err := c.Split(b.String(), FileTypeText, Hints{})
	if err != nil {
		t.Fatalf("Split() failed: %v", err)
	}

	if len(segs) < 2 {
		t.Fatalf("got %d segments, want several", len(segs))
	}
	for i, seg := range segs {
		want := fmt.Sprintf("part_%d", i+1)
		if seg.SectionLabel != want {
			t.Errorf("segment %d label = %q, want %q", i, seg.SectionLabel, want)
		}
		if strings.TrimSpace(seg.Content) == "" {
			t.Errorf("segment %d is blank", i)
		}
	}
}

func TestSplitHintsTakePrecedence(t *testing.T) {
	c := New(DefaultConfig())

	hints := Hints{Sections: []Section{
		{Label: "Week 1", Content: "derivatives"},
		{Label: "Week 2", Content: "integrals"},
		{Label: "Empty", Content: "   "},
	}}
	// Text would normally split by pages; hints win.
	segs, err := c.Split("ignored"+PageSeparator+"entirely", FileTypePDF, hints)
	if err != nil {
		t.Fatalf("Split() failed: %v", err)
	}

	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2 (blank section dropped)", len(segs))
	}
	if segs[0].SectionLabel != "Week 1" || segs[1].SectionLabel != "Week 2" {
		t.Errorf("labels = %q, %q", segs[0].SectionLabel, segs[1].SectionLabel)
	}
}

func TestHeadingText(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"# Title", "Title", true},
		{"### Deep Section ", "Deep Section", true},
		{"  ## Indented", "Indented", true},
		{"#NoSpace", "", false},
		{"####### TooDeep", "", false},
		{"#", "", false},
		{"plain line", "", false},
	}

	for _, tt := range tests {
		got, ok := headingText(tt.line)
		if got != tt.want || ok != tt.ok {
			t.Errorf("headingText(%q) = (%q, %v), want (%q, %v)", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}
