package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	assert.Equal(t, "deep-learning-for-x", Make("Deep Learning for X"))
	assert.Equal(t, "a-b-c", Make("  A--B__C!  "))
	assert.Equal(t, "hello-world-2", Make("Hello, World 2"))
	assert.Equal(t, "", Make("!!!"))
}

func TestMakeUnique(t *testing.T) {
	taken := map[string]bool{"foo": true, "foo-1": true}

	got, err := MakeUnique("Foo", func(c string) (bool, error) {
		return taken[c], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "foo-2", got)

	got, err = MakeUnique("Bar", func(c string) (bool, error) {
		return taken[c], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "bar", got)
}
