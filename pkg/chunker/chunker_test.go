package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	docId := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name       string
		text       string
		targetSize int
		overlap    int
		wantChunks int
		wantErr    bool
	}{
		{
			name:       "empty text",
			text:       "",
			targetSize: 10,
			overlap:    2,
			wantChunks: 0,
		},
		{
			name:       "shorter than target",
			text:       "hello",
			targetSize: 10,
			overlap:    2,
			wantChunks: 1,
		},
		{
			name:       "exact target",
			text:       "0123456789",
			targetSize: 10,
			overlap:    2,
			wantChunks: 1,
		},
		{
			name:       "two windows",
			text:       "0123456789abcd",
			targetSize: 10,
			overlap:    2,
			wantChunks: 2,
		},
		{
			name:       "overlap equals target",
			text:       "0123456789",
			targetSize: 10,
			overlap:    10,
			wantErr:    true,
		},
		{
			name:       "overlap above target",
			text:       "0123456789",
			targetSize: 5,
			overlap:    7,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split(docId, tt.text, tt.targetSize, tt.overlap)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, chunks, tt.wantChunks)
		})
	}
}

func TestSplitCoversEveryByte(t *testing.T) {
	docId := uuid.New()
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 60)

	chunks, err := Split(docId, text, 100, 20)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	covered := make([]bool, len(text))
	for _, c := range chunks {
		assert.Equal(t, text[c.CharStart:c.CharEnd], c.Text)
		for i := c.CharStart; i < c.CharEnd; i++ {
			covered[i] = true
		}
	}
	for i, ok := range covered {
		if !ok {
			t.Fatalf("byte %d not covered by any chunk", i)
		}
	}

	// Adjacent chunks share the configured overlap.
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, i, chunks[i].SequenceIndex)
		assert.Less(t, chunks[i].CharStart, chunks[i-1].CharEnd,
			"chunk %d must overlap its predecessor", i)
	}
}

func TestSplitDeterministicIds(t *testing.T) {
	docId := uuid.New()
	text := strings.Repeat("alpha beta gamma delta. ", 40)

	first, err := Split(docId, text, 120, 30)
	require.NoError(t, err)
	second, err := Split(docId, text, 120, 30)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Id, second[i].Id, "chunk %d id must be stable", i)
		assert.Equal(t, ChunkId(docId, i), first[i].Id)
	}

	// Different documents never share chunk ids.
	other, err := Split(uuid.New(), text, 120, 30)
	require.NoError(t, err)
	assert.NotEqual(t, first[0].Id, other[0].Id)
}

func TestSplitMultibyteOffsets(t *testing.T) {
	docId := uuid.New()
	text := strings.Repeat("héllo wörld ", 30)

	chunks, err := Split(docId, text, 50, 10)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// CharStart/CharEnd are byte offsets, so slicing must reproduce the text
	// without splitting a rune.
	for _, c := range chunks {
		assert.Equal(t, text[c.CharStart:c.CharEnd], c.Text)
		assert.True(t, utf8.ValidString(c.Text))
	}
}
