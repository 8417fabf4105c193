package searcher

import (
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, -1}, []float32{-1, 1}, -1},
		{"zero left", []float32{0, 0}, []float32{1, 1}, 0},
		{"zero right", []float32{1, 1}, []float32{0, 0}, 0},
		{"empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestCosineSimilarity_SymmetricAndBounded(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		a := make([]float32, 16)
		b := make([]float32, 16)
		for j := range a {
			a[j] = rng.Float32()*2 - 1
			b[j] = rng.Float32()*2 - 1
		}
		ab := CosineSimilarity(a, b)
		assert.Equal(t, ab, CosineSimilarity(b, a))
		assert.LessOrEqual(t, math.Abs(float64(ab)), 1.0+1e-6)
		assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-6)
	}
}

func TestCompareDesc_NaNLast(t *testing.T) {
	nan := float32(math.NaN())
	values := []float32{0.5, nan, 1, nan, -1}
	sort.SliceStable(values, func(i, j int) bool {
		return compareDesc(values[i], values[j]) < 0
	})

	assert.Equal(t, []float32{1, 0.5, -1}, values[:3])
	assert.True(t, math.IsNaN(float64(values[3])))
	assert.True(t, math.IsNaN(float64(values[4])))

	assert.Equal(t, 0, compareDesc(math.NaN(), math.NaN()))
	assert.Equal(t, 0, compareDesc(2.0, 2.0))
	assert.Equal(t, -1, compareDesc(3.0, 2.0))
	assert.Equal(t, 1, compareDesc(2.0, 3.0))
}
