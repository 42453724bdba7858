package chunker

import "fmt"

// FileType discriminates how a document's text is split and how section
// labels are interpreted. The set is closed: adding a document type means
// adding a constant here and one strategy in Chunker.
type FileType string

const (
	// FileTypePDF is paginated text; pages are separated by form feeds.
	FileTypePDF FileType = "pdf"
	// FileTypeSlide is presentation text; one slide per form-feed section.
	FileTypeSlide FileType = "slide"
	// FileTypeDoc is heading-structured prose.
	FileTypeDoc FileType = "doc"
	// FileTypeText is unstructured plain text.
	FileTypeText FileType = "text"
	// FileTypeCSV is tabular text exported as plain rows.
	FileTypeCSV FileType = "csv"
	// FileTypeImage is OCR output from an image; a single unstructured blob.
	FileTypeImage FileType = "image"
)

// ParseFileType maps a string (usually a file extension) onto the closed
// FileType set. Unknown values are an error, not a silent fallback.
func ParseFileType(s string) (FileType, error) {
	switch s {
	case "pdf":
		return FileTypePDF, nil
	case "pptx", "slide", "slides":
		return FileTypeSlide, nil
	case "docx", "doc":
		return FileTypeDoc, nil
	case "txt", "text":
		return FileTypeText, nil
	case "csv":
		return FileTypeCSV, nil
	case "png", "jpg", "jpeg", "image":
		return FileTypeImage, nil
	default:
		return "", fmt.Errorf("unsupported file type: %q", s)
	}
}

// Valid reports whether ft is a member of the closed set.
func (ft FileType) Valid() bool {
	switch ft {
	case FileTypePDF, FileTypeSlide, FileTypeDoc, FileTypeText, FileTypeCSV, FileTypeImage:
		return true
	}
	return false
}

func (ft FileType) String() string { return string(ft) }
