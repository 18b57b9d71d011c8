package utils

// DefaultChunkSize is the number of characters per chunk.
const DefaultChunkSize = 500

// ChunkText splits text into consecutive, non-overlapping slices of size
// characters (runes). The last slice may be shorter. Boundaries are purely
// positional.
func ChunkText(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
