package loopdriver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/sisyphus/internal/vars"
)

func TestRunFor_PublishesItemAndIndex(t *testing.T) {
	store := vars.New()
	var seen []any

	results := RunFor([]any{"a", "b", "c"}, store, func(overlay *vars.Store, item any, index int) (bool, []any) {
		v, _ := overlay.Get("item")
		idx, _ := overlay.Get("index")
		seen = append(seen, v)
		assert.Equal(t, index, idx)
		return true, nil
	})

	require.Len(t, results, 3)
	assert.Equal(t, []any{"a", "b", "c"}, seen)
	assert.True(t, AllPassed(results))
}

func TestRunWhile_StopsWhenConditionFalse(t *testing.T) {
	store := vars.New()
	store.Set(vars.LayerGlobal, "count", 0)

	results, err := RunWhile(store, func(s *vars.Store) bool {
		v, _ := s.Get("count")
		return v.(int) < 3
	}, func(overlay *vars.Store, index int) (bool, []any) {
		overlay.Set(vars.LayerGlobal, "count", index+1)
		return true, nil
	})

	require.NoError(t, err)
	assert.Len(t, results, 3)
	v, _ := store.Get("count")
	assert.Equal(t, 3, v)
}

func TestRunWhile_CeilingExceeded(t *testing.T) {
	store := vars.New()
	_, err := RunWhile(store, func(*vars.Store) bool { return true }, func(overlay *vars.Store, index int) (bool, []any) {
		return true, nil
	})
	require.Error(t, err)
}

func TestRunConcurrent_IsolatesWorkersAndMergesDeterministically(t *testing.T) {
	store := vars.New()

	results := RunConcurrent(5, 2, store, func(overlay *vars.Store, index int) (bool, []any) {
		overlay.Set(vars.LayerGlobal, "last_index", index)
		return index != 2, nil
	})

	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
	assert.False(t, AllPassed(results))

	v, ok := store.Get("last_index")
	assert.True(t, ok)
	assert.Equal(t, 4, v) // deterministic last-writer-wins by iteration index, index 4 merged last
}
