package utils_test

import (
	"testing"

	"github.com/jrsteele09/social-connect/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestFirstNonEmpty(t *testing.T) {
	require.Equal(t, "gateway says no", utils.FirstNonEmpty("", "  ", "gateway says no", "fallback"))
	require.Equal(t, "", utils.FirstNonEmpty("", " "))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", utils.Truncate("abc", 20))
	require.Equal(t, "abcde...", utils.Truncate("abcdefgh", 5))
}

func TestMaskSecret(t *testing.T) {
	require.Equal(t, "", utils.MaskSecret("", 4))
	require.Equal(t, "***", utils.MaskSecret("abc", 4))
	require.Equal(t, "***7890", utils.MaskSecret("token-1234567890", 4))
}
