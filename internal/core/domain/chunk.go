package domain

const (
	SegmentLimit = 2000
	MaxSegments  = 3
)

// Chunk cuts text into at most MaxSegments segments of at most SegmentLimit
// characters each.
func Chunk(text string) []string {
	return ChunkN(text, SegmentLimit, MaxSegments)
}

// ChunkN slices limit characters off the front of text until it runs out or
// maxCount segments exist. Anything past limit*maxCount characters is dropped. Lengths
// are counted in runes so a segment never ends inside a multi-byte character.
func ChunkN(text string, limit, maxCount int) []string {
	if text == "" || limit <= 0 || maxCount <= 0 {
		return nil
	}

	runes := []rune(text)
	segments := make([]string, 0, min(maxCount, (len(runes)+limit-1)/limit))

	for len(runes) > 0 && len(segments) < maxCount {
		n := min(limit, len(runes))
		segments = append(segments, string(runes[:n]))
		runes = runes[n:]
	}

	return segments
}
