package storage

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/dshills/packcheck/pkg/types"
)

// DecodeEmbedding converts a little-endian float32 blob into a vector.
// NaN and Inf values pass through unchanged.
func DecodeEmbedding(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("%w: blob length %d is not a multiple of 4", types.ErrMalformedEmbedding, len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector, nil
}

// EncodeEmbedding converts a vector to a little-endian float32 blob.
func EncodeEmbedding(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// quoteFTSQuery turns every whitespace-separated term into a literal FTS5 string,
// so operators and punctuation lose their meaning. Terms are ANDed implicitly.
func quoteFTSQuery(query string) string {
	terms := strings.Fields(query)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// isFTSSyntaxError reports whether err came from FTS5 rejecting a MATCH expression.
func isFTSSyntaxError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "fts5: syntax error") ||
		strings.Contains(msg, "unterminated string") ||
		strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "unknown special query")
}

// escapeURIPath escapes the characters that would end the path part of a SQLite URI.
func escapeURIPath(path string) string {
	return strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(path)
}
