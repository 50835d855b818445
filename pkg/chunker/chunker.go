package chunker

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Chunk is a contiguous passage of document text used as the retrieval unit.
// CharStart/CharEnd are byte offsets into the original extracted text so
// citations can be mapped back to the source passage.
type Chunk struct {
	Id            uuid.UUID `json:"id"`
	DocumentId    uuid.UUID `json:"document_id"`
	SequenceIndex int       `json:"sequence_index"`
	Text          string    `json:"text"`
	CharStart     int       `json:"char_start"`
	CharEnd       int       `json:"char_end"`
}

// ChunkId derives a stable id from the document id and sequence index.
// Re-ingesting the same document yields the same ids, so index inserts
// overwrite instead of duplicating.
func ChunkId(documentId uuid.UUID, sequenceIndex int) uuid.UUID {
	return uuid.NewSHA1(documentId, []byte("chunk:"+strconv.Itoa(sequenceIndex)))
}

// Split cuts text into overlapping chunks of approximately targetSize
// characters. Windows advance by targetSize-overlap so consecutive chunks
// share an overlap-sized tail. Identical input and parameters always yield
// identical output.
func Split(documentId uuid.UUID, text string, targetSize, overlap int) ([]Chunk, error) {
	if targetSize <= 0 {
		return nil, fmt.Errorf("chunk target size must be positive, got %d", targetSize)
	}
	if overlap < 0 || overlap >= targetSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, targetSize), got %d", overlap)
	}
	if len(text) == 0 {
		return nil, nil
	}

	runes := []rune(text)
	totalLen := len(runes)

	// Byte offset of each rune, plus the end sentinel, so chunk boundaries
	// computed in runes can be reported as byte offsets into the source.
	byteOffsets := make([]int, totalLen+1)
	pos := 0
	for i, r := range runes {
		byteOffsets[i] = pos
		pos += len(string(r))
	}
	byteOffsets[totalLen] = pos

	step := targetSize - overlap

	var chunks []Chunk
	seq := 0
	for i := 0; i < totalLen; i += step {
		end := i + targetSize
		if end > totalLen {
			end = totalLen
		}

		chunks = append(chunks, Chunk{
			Id:            ChunkId(documentId, seq),
			DocumentId:    documentId,
			SequenceIndex: seq,
			Text:          string(runes[i:end]),
			CharStart:     byteOffsets[i],
			CharEnd:       byteOffsets[end],
		})
		seq++

		if end == totalLen {
			break
		}
	}

	return chunks, nil
}
