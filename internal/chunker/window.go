package chunker

import "strings"

// separators, ordered from best to worst for preserving semantic meaning.
// The splitter walks the text with the first separator that occurs in it.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// splitWindow splits text into pieces of at most limit bytes, carrying
// overlap bytes between adjacent pieces. Pieces are trimmed; empty pieces
// are dropped. Text already within the limit is returned as-is.
func splitWindow(text string, limit, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= limit {
		return []string{text}
	}
	if overlap >= limit {
		overlap = limit / 4
	}

	var splitChar string
	found := false
	for _, s := range separators {
		if s != "" && strings.Contains(text, s) {
			splitChar = s
			found = true
			break
		}
	}

	if !found {
		// No separator at all: hard cut.
		var chunks []string
		step := limit - overlap
		for start := 0; start < len(text); start += step {
			end := start + limit
			if end > len(text) {
				end = len(text)
			}
			chunks = append(chunks, text[start:end])
			if end == len(text) {
				break
			}
		}
		return chunks
	}

	parts := strings.Split(text, splitChar)
	var chunks []string
	var current strings.Builder

	for _, part := range parts {
		if current.Len()+len(part)+len(splitChar) > limit {
			if current.Len() > 0 {
				if piece := strings.TrimSpace(current.String()); piece != "" {
					chunks = append(chunks, piece)
				}
			}

			// Start the next chunk with the tail of the previous one so
			// adjacent chunks share context.
			overlapContent := ""
			if current.Len() > overlap {
				overlapContent = current.String()[current.Len()-overlap:]
			}
			current.Reset()
			current.WriteString(overlapContent)
		}

		// An individual part can still exceed the limit (one huge
		// paragraph). Recurse with the next separator in the ladder.
		if len(part) > limit {
			if current.Len() > 0 {
				if piece := strings.TrimSpace(current.String()); piece != "" {
					chunks = append(chunks, piece)
				}
				current.Reset()
			}
			chunks = append(chunks, splitWindow(part, limit, overlap)...)
			continue
		}

		if current.Len() > 0 {
			current.WriteString(splitChar)
		}
		current.WriteString(part)
	}

	if piece := strings.TrimSpace(current.String()); piece != "" {
		chunks = append(chunks, piece)
	}

	return chunks
}
