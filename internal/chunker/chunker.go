// Package chunker splits parsed document text into ordered, labeled segments.
//
// Splitting is polymorphic over FileType: paginated formats split at page
// boundaries, slide formats per slide, heading-structured formats at heading
// boundaries, and unstructured text falls back to fixed-size windows with
// overlap. Output order is the intended chunk_index order.
package chunker

import (
	"fmt"
	"strings"
)

// PageSeparator delimits pages (and slides) in extracted text. Form feed is
// what PDF and PPTX text extractors emit between pages.
const PageSeparator = "\f"

// Segment is one ordered piece of a document: the text to embed plus an
// advisory human-readable locator. Segments are never empty after trimming.
type Segment struct {
	Content      string
	SectionLabel string
}

// Section is a pre-labeled span provided by a structure-aware extractor.
type Section struct {
	Label   string
	Content string
}

// Hints carries optional structure recovered by the document parser. When
// Sections is non-empty the chunker respects those boundaries instead of
// re-detecting structure from the flat text.
type Hints struct {
	Sections []Section
}

// Window is a fixed-size splitting configuration.
type Window struct {
	Size    int // maximum content length in bytes
	Overlap int // bytes carried over between adjacent windows
}

// Config holds the per-density windows. Dense covers pdf/doc/image, slide
// covers presentations, plain covers unstructured text and csv.
type Config struct {
	Dense Window
	Slide Window
	Plain Window
}

// DefaultConfig mirrors the sizing the splitters were tuned with: small
// windows for dense content, larger for slides (each slide is already
// short), largest for plain text.
func DefaultConfig() Config {
	return Config{
		Dense: Window{Size: 500, Overlap: 100},
		Slide: Window{Size: 800, Overlap: 50},
		Plain: Window{Size: 1000, Overlap: 150},
	}
}

// Chunker splits document text into segments.
type Chunker struct {
	cfg        Config
	strategies map[FileType]strategy
}

type strategy func(text string) []Segment

// New creates a Chunker. Zero-valued windows in cfg fall back to defaults.
func New(cfg Config) *Chunker {
	def := DefaultConfig()
	if cfg.Dense.Size <= 0 {
		cfg.Dense = def.Dense
	}
	if cfg.Slide.Size <= 0 {
		cfg.Slide = def.Slide
	}
	if cfg.Plain.Size <= 0 {
		cfg.Plain = def.Plain
	}

	c := &Chunker{cfg: cfg}
	c.strategies = map[FileType]strategy{
		FileTypePDF:   c.splitPaged("page", cfg.Dense),
		FileTypeSlide: c.splitPaged("slide", cfg.Slide),
		FileTypeDoc:   c.splitHeadings,
		FileTypeText:  c.splitWindowed(cfg.Plain),
		FileTypeCSV:   c.splitWindowed(cfg.Plain),
		FileTypeImage: c.splitWindowed(cfg.Dense),
	}
	return c
}

// Split chunks text according to the file type's strategy. A document that
// yields no extractable segments returns an empty slice and no error; the
// caller decides whether that is a failure.
func (c *Chunker) Split(text string, ft FileType, hints Hints) ([]Segment, error) {
	if !ft.Valid() {
		return nil, fmt.Errorf("unsupported file type: %q", ft)
	}

	if len(hints.Sections) > 0 {
		return c.splitSections(hints.Sections, c.windowFor(ft)), nil
	}

	if strings.TrimSpace(text) == "" {
		return []Segment{}, nil
	}

	return c.strategies[ft](text), nil
}

// windowFor returns the window used to bound segment size for ft.
func (c *Chunker) windowFor(ft FileType) Window {
	switch ft {
	case FileTypeSlide:
		return c.cfg.Slide
	case FileTypeText, FileTypeCSV:
		return c.cfg.Plain
	default:
		return c.cfg.Dense
	}
}

// splitSections chunks each pre-labeled section independently so chunk
// boundaries respect document structure. Oversized sections are re-split
// with the window; every resulting segment keeps the section's label.
func (c *Chunker) splitSections(sections []Section, w Window) []Segment {
	var out []Segment
	for _, sec := range sections {
		content := strings.TrimSpace(sec.Content)
		if content == "" {
			continue
		}
		for _, piece := range splitWindow(content, w.Size, w.Overlap) {
			out = append(out, Segment{Content: piece, SectionLabel: sec.Label})
		}
	}
	if out == nil {
		out = []Segment{}
	}
	return out
}

// splitPaged returns a strategy that splits at form-feed boundaries,
// labeling 1-based ("page_1", "slide_3"). Pages larger than the window are
// re-split; the extra segments keep the page's label.
func (c *Chunker) splitPaged(kind string, w Window) strategy {
	return func(text string) []Segment {
		var out []Segment
		for i, page := range strings.Split(text, PageSeparator) {
			page = strings.TrimSpace(page)
			if page == "" {
				continue
			}
			label := fmt.Sprintf("%s_%d", kind, i+1)
			for _, piece := range splitWindow(page, w.Size, w.Overlap) {
				out = append(out, Segment{Content: piece, SectionLabel: label})
			}
		}
		if out == nil {
			out = []Segment{}
		}
		return out
	}
}

// splitHeadings splits heading-structured prose at markdown-style heading
// lines, using the heading text as the section label. Body text before the
// first heading lands in "section_intro"; a document with no headings at
// all falls back to windowed splitting.
func (c *Chunker) splitHeadings(text string) []Segment {
	lines := strings.Split(text, "\n")

	var sections []Section
	current := Section{Label: "section_intro"}
	var body []string
	sawHeading := false

	flush := func() {
		current.Content = strings.Join(body, "\n")
		if strings.TrimSpace(current.Content) != "" {
			sections = append(sections, current)
		}
		body = nil
	}

	for _, line := range lines {
		if h, ok := headingText(line); ok {
			flush()
			current = Section{Label: h}
			sawHeading = true
			continue
		}
		body = append(body, line)
	}
	flush()

	if !sawHeading {
		return c.splitWindowed(c.cfg.Dense)(text)
	}
	return c.splitSections(sections, c.cfg.Dense)
}

// headingText reports whether line is a markdown heading and returns its
// text with the marker stripped.
func headingText(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 || level == len(trimmed) || trimmed[level] != ' ' {
		return "", false
	}
	text := strings.TrimSpace(trimmed[level:])
	if text == "" {
		return "", false
	}
	return text, true
}

// splitWindowed returns the fallback strategy for unstructured text:
// fixed-size windows with overlap, labeled by ordinal position.
func (c *Chunker) splitWindowed(w Window) strategy {
	return func(text string) []Segment {
		pieces := splitWindow(strings.TrimSpace(text), w.Size, w.Overlap)
		out := make([]Segment, 0, len(pieces))
		for i, piece := range pieces {
			out = append(out, Segment{
				Content:      piece,
				SectionLabel: fmt.Sprintf("part_%d", i+1),
			})
		}
		return out
	}
}
