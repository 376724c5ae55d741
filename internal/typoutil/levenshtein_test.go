package typoutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name  string
		a     string
		b     string
		limit int
		want  int
	}{
		{"identical", "hello", "hello", 2, 0},
		{"simple substitution", "kitten", "sitten", 2, 1},
		{"simple insertion", "apple", "applye", 2, 1},
		{"simple deletion", "banana", "banna", 2, 1},
		{"transposition counts once", "fox", "fxo", 2, 1},
		{"over the limit", "saturday", "sunday", 2, 3},
		{"length difference over the limit", "a", "abcd", 1, 2},
		{"unicode runes", "cliché", "cliche", 1, 1},
		{"empty side", "", "ab", 2, 2},
		{"transposed comment", "comemnts", "comments", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.a, tt.b, tt.limit))
		})
	}
}

func TestAutoFuzziness(t *testing.T) {
	assert.Equal(t, 0, AutoFuzziness("ox"))
	assert.Equal(t, 1, AutoFuzziness("fox"))
	assert.Equal(t, 1, AutoFuzziness("quick"))
	assert.Equal(t, 2, AutoFuzziness("elephant"))
}

func TestVariants(t *testing.T) {
	candidates := []string{"fox", "box", "fix", "foxes", "rabbit"}

	t.Run("exact only at distance zero", func(t *testing.T) {
		assert.Equal(t, map[string]int{"fox": 0}, Variants("fox", candidates, 0))
	})

	t.Run("one edit", func(t *testing.T) {
		got := Variants("fox", candidates, 1)
		assert.Equal(t, map[string]int{"fox": 0, "box": 1, "fix": 1}, got)
	})

	t.Run("two edits", func(t *testing.T) {
		got := Variants("fox", candidates, 2)
		assert.Contains(t, got, "foxes")
		assert.NotContains(t, got, "rabbit")
	})

	t.Run("empty term", func(t *testing.T) {
		assert.Empty(t, Variants("", candidates, 2))
	})
}
