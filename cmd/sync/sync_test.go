package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHeight(t *testing.T) {
	t.Run("unset means no override", func(t *testing.T) {
		assert.Nil(t, fromHeight("FROM_TEST_UNSET"))
	})

	t.Run("reads the height", func(t *testing.T) {
		t.Setenv("FROM_TEST", "123456")

		h := fromHeight("FROM_TEST")
		require.NotNil(t, h)
		assert.Equal(t, uint64(123456), *h)
	})

	t.Run("zero is a valid cold-start height", func(t *testing.T) {
		t.Setenv("FROM_TEST", "0")

		h := fromHeight("FROM_TEST")
		require.NotNil(t, h)
		assert.Equal(t, uint64(0), *h)
	})

	t.Run("heights beyond 32 bits", func(t *testing.T) {
		t.Setenv("FROM_TEST", "17179869184") // 2^34

		h := fromHeight("FROM_TEST")
		require.NotNil(t, h)
		assert.Equal(t, uint64(1)<<34, *h)
	})
}
