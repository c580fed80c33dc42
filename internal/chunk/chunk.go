// Package chunk splits file text into overlapping line-windows for
// embedding (component C1 of the indexing pipeline).
package chunk

import "strings"

// Window and overlap sizes. A chunk is 25 lines; each subsequent chunk
// starts 20 lines after the previous one's start, so consecutive chunks
// share a 5-line overlap.
const (
	WindowLines  = 25
	OverlapLines = 5
	strideLines  = WindowLines - OverlapLines // 20

	// MinContentLength is the trimmed length a chunk's content must exceed
	// to be emitted; windows of this length or shorter (e.g. a lone closing
	// brace) are dropped as noise.
	MinContentLength = 30
)

// Chunk is one line-windowed slice of a file.
type Chunk struct {
	Content   string
	LineStart int // 1-based, inclusive
	LineEnd   int // 1-based, inclusive
}

// Split breaks text into fixed line-windows of WindowLines lines, sliding by
// strideLines lines between windows, emitting a window only when its
// trimmed content is longer than MinContentLength characters.
//
// Concatenating the non-overlapping region of every emitted chunk
// reconstructs the file, modulo any skipped low-content tail windows.
func Split(text string) []Chunk {
	if text == "" {
		return []Chunk{}
	}

	lines := strings.Split(text, "\n")
	n := len(lines)

	chunks := make([]Chunk, 0, n/strideLines+1)
	for start := 0; start < n; start += strideLines {
		end := start + WindowLines
		if end > n {
			end = n
		}

		window := lines[start:end]
		content := strings.Join(window, "\n")
		if len(strings.TrimSpace(content)) > MinContentLength {
			chunks = append(chunks, Chunk{
				Content:   content,
				LineStart: start + 1,
				LineEnd:   end,
			})
		}

		if end == n {
			break
		}
	}

	return chunks
}
