package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	InitHashSaltForTesting("test-salt-for-unit-tests-minimum-32-chars")
	os.Exit(m.Run())
}

func TestHashUserID(t *testing.T) {
	t.Run("produces consistent hash for same user ID", func(t *testing.T) {
		require.Equal(t, HashUserID("u-12345"), HashUserID("u-12345"))
	})

	t.Run("produces different hashes for different user IDs", func(t *testing.T) {
		require.NotEqual(t, HashUserID("u-12345"), HashUserID("u-67890"))
	})

	t.Run("produces 8 character hash", func(t *testing.T) {
		require.Len(t, HashUserID("u-12345"), 8)
	})

	t.Run("marks empty IDs", func(t *testing.T) {
		require.Equal(t, "<none>", HashUserID(""))
	})

	t.Run("changes hash when salt changes", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		hash1 := HashUserID("u-12345")
		hashSalt = "different-salt"
		hash2 := HashUserID("u-12345")

		require.NotEqual(t, hash1, hash2)
	})
}

func TestRedactToken(t *testing.T) {
	t.Parallel()

	require.Equal(t, "<empty>", RedactToken(""))
	require.Equal(t, "<redacted>", RedactToken("short"))
	require.Equal(t, "...wxyz", RedactToken("eyJhbGciOi.abcdwxyz"))
}

func TestRedactEmail(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a***@fin.local", RedactEmail("admin@fin.local"))
	require.Equal(t, "<8 chars>", RedactEmail("no-at-me"))
}

func TestSanitizeDescription(t *testing.T) {
	t.Run("redacts empty description", func(t *testing.T) {
		require.Equal(t, "<empty>", SanitizeDescription(""))
	})

	t.Run("preserves length information for debugging", func(t *testing.T) {
		result := SanitizeDescription("expensive dinner with clients")
		require.Contains(t, result, "4 words")
		require.Contains(t, result, "29 chars")
		require.NotContains(t, result, "dinner")
	})
}

func TestSanitizeText(t *testing.T) {
	t.Run("handles empty text", func(t *testing.T) {
		require.Equal(t, "<empty>", SanitizeText(""))
	})

	t.Run("hides short text", func(t *testing.T) {
		require.Equal(t, "<5 chars>", SanitizeText("hello"))
	})

	t.Run("shows prefix for long text", func(t *testing.T) {
		require.Equal(t, "sup...<19 chars>", SanitizeText("supermarket weekend"))
	})
}
