package kv

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func getHeaders() *Storage {
	return New().
		Add("Foo", "bar").
		Add("Hello", "World").
		Add("Lorem", "ipsum").
		Add("hello", "Pavlo")
}

func TestStorage(t *testing.T) {
	t.Run("case insensitive get", func(t *testing.T) {
		kv := getHeaders()
		value, found := kv.Get("HELLO")
		require.True(t, found)
		require.Equal(t, "World", value)
	})

	t.Run("preserves wire order", func(t *testing.T) {
		kv := getHeaders()
		var keys []string
		for k := range kv.Iter() {
			keys = append(keys, k)
		}

		require.Equal(t, []string{"Foo", "Hello", "Lorem", "hello"}, keys)
	})

	t.Run("values returns every match by fold", func(t *testing.T) {
		kv := getHeaders()
		require.Equal(t, []string{"World", "Pavlo"}, kv.Values("hello"))
	})

	t.Run("keys deduplicates by fold", func(t *testing.T) {
		kv := getHeaders()
		require.Equal(t, []string{"Foo", "Hello", "Lorem"}, kv.Keys())
	})

	t.Run("missing key", func(t *testing.T) {
		kv := getHeaders()
		_, found := kv.Get("absent")
		require.False(t, found)
		require.Equal(t, "fallback", kv.ValueOr("absent", "fallback"))
	})

	t.Run("has", func(t *testing.T) {
		kv := getHeaders()
		require.True(t, kv.Has("foo"))
		require.False(t, kv.Has("absent"))
	})

	t.Run("clear empties but keeps capacity", func(t *testing.T) {
		kv := getHeaders()
		capBefore := cap(kv.Expose())
		kv.Clear()
		require.True(t, kv.Empty())
		require.Equal(t, 0, kv.Len())
		require.Equal(t, capBefore, cap(kv.Expose()))
	})

	t.Run("clone is independent", func(t *testing.T) {
		kv := getHeaders()
		clone := kv.Clone()
		kv.Add("new", "entry")

		require.Equal(t, 4, clone.Len())
		require.Equal(t, 5, kv.Len())
	})
}
