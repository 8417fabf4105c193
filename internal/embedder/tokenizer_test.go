package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"hybrid", "search", "rrf", "k", "60"}, SplitWords("Hybrid-search: RRF k=60"))
	assert.Empty(t, SplitWords("  !!  "))
}

func TestTokenize(t *testing.T) {
	ids, mask, types := Tokenize("one two three", 8)
	assert.Len(t, ids, 8)
	assert.Len(t, mask, 8)
	assert.Len(t, types, 8)

	assert.Equal(t, int64(clsTokenID), ids[0])
	assert.Equal(t, int64(sepTokenID), ids[4])
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 0, 0, 0}, mask)
	for _, id := range ids[1:4] {
		assert.GreaterOrEqual(t, id, int64(firstWordID))
		assert.Less(t, id, int64(vocabSize))
	}

	// truncation keeps room for [SEP]
	ids, mask, _ = Tokenize("a b c d e f g h i j", 4)
	assert.Equal(t, int64(sepTokenID), ids[3])
	assert.Equal(t, []int64{1, 1, 1, 1}, mask)

	ids, _, _ = Tokenize("", 4)
	assert.Equal(t, []int64{clsTokenID, sepTokenID, 0, 0}, ids)
}

func TestHashString(t *testing.T) {
	assert.Equal(t, HashString("token"), HashString("token"))
	assert.NotEqual(t, HashString("token"), HashString("tokens"))
}
