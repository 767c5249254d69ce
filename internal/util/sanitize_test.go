package util

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeMessage(t *testing.T) {
	t.Parallel()

	t.Run("keeps formatting tags", func(t *testing.T) {
		got := SanitizeMessage(`<p>Happy <b>birthday</b> <em>Asha</em></p><ul><li>cake</li></ul>`)
		assert.Equal(t, `<p>Happy <b>birthday</b> <em>Asha</em></p><ul><li>cake</li></ul>`, got)
	})

	t.Run("drops scripts and handlers", func(t *testing.T) {
		got := SanitizeMessage(`<p onclick="steal()">Hi <script>alert(1)</script><b>there</b></p>`)
		assert.Equal(t, `<p>Hi <b>there</b></p>`, got)
	})

	t.Run("keeps safe images", func(t *testing.T) {
		got := SanitizeMessage(`<img src="https://cdn.example.com/cake.png" alt="cake" width="120" onerror="x()">`)
		assert.Contains(t, got, `src="https://cdn.example.com/cake.png"`)
		assert.Contains(t, got, `alt="cake"`)
		assert.Contains(t, got, `width="120"`)
		assert.NotContains(t, got, "onerror")
	})

	t.Run("rejects javascript urls", func(t *testing.T) {
		got := SanitizeMessage(`<img src="javascript:alert(1)"><a href="javascript:alert(1)">x</a>`)
		assert.NotContains(t, got, "javascript")
		assert.NotContains(t, got, "<a")
	})
}

func TestSanitizeTextField(t *testing.T) {
	t.Parallel()

	t.Run("strips tags and trims", func(t *testing.T) {
		assert.Equal(t, "Asha's friend", SanitizeTextField("  <b>Asha's</b> friend  "))
	})

	t.Run("removes invisible runes", func(t *testing.T) {
		assert.Equal(t, "jerk", SanitizeTextField("je\u200Brk\u0007"))
	})

	t.Run("truncates by runes", func(t *testing.T) {
		got := SanitizeTextField(strings.Repeat("é", 250))
		require.True(t, utf8.ValidString(got))
		assert.Equal(t, 200, utf8.RuneCountInString(got))
	})
}

func TestSanitizePlainTextKeepsNewlines(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "thank you\nso much", SanitizePlainText("<p>thank you</p>\nso much"))
}
