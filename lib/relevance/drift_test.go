package relevance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTitleDrifted(t *testing.T) {
	t.Run("same product with seller noise", func(t *testing.T) {
		require.False(t, TitleDrifted(
			"Apple iPhone 15 (128GB) Black",
			"Apple iPhone 15 (128 GB) - Black (Renewed)",
		))
	})
	t.Run("replaced by a different product", func(t *testing.T) {
		require.True(t, TitleDrifted(
			"Apple iPhone 15 (128GB) Black",
			"404 Page Not Found",
		))
	})
	t.Run("no expectation means no drift", func(t *testing.T) {
		require.False(t, TitleDrifted("", "anything"))
	})
}
