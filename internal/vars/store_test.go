package vars

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_PrecedenceOrder(t *testing.T) {
	s := New()
	s.Set(LayerEnvironment, "x", "env")
	s.Set(LayerConfig, "x", "config")
	s.Set(LayerEphemeral, "x", "ephemeral")
	s.Set(LayerGlobal, "x", "global")
	s.Set(LayerRow, "x", "row")

	v, ok := s.Get("x")
	assert.True(t, ok)
	assert.Equal(t, "row", v)

	s.ClearLayer(LayerRow)
	v, _ = s.Get("x")
	assert.Equal(t, "global", v)

	s.ClearLayer(LayerGlobal)
	v, _ = s.Get("x")
	assert.Equal(t, "ephemeral", v)
}

func TestStore_GetMissing(t *testing.T) {
	s := New()
	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestStore_GetPath(t *testing.T) {
	s := New()
	s.Set(LayerConfig, "user", map[string]any{"name": "ada", "address": map[string]any{"city": "london"}})

	v, ok := s.GetPath("user.name")
	assert.True(t, ok)
	assert.Equal(t, "ada", v)

	v, ok = s.GetPath("user.address.city")
	assert.True(t, ok)
	assert.Equal(t, "london", v)

	_, ok = s.GetPath("user.missing")
	assert.False(t, ok)
}

func TestStore_OverlayIsolation(t *testing.T) {
	s := New()
	s.Set(LayerGlobal, "x", "parent")

	o := s.Overlay()
	o.Set(LayerGlobal, "x", "worker")

	v, _ := s.Get("x")
	assert.Equal(t, "parent", v)
	v, _ = o.Get("x")
	assert.Equal(t, "worker", v)
}

func TestStore_MergeGlobalFrom(t *testing.T) {
	s := New()
	o := s.Overlay()
	o.Set(LayerGlobal, "written_by_worker", 42)

	s.MergeGlobalFrom(o)
	v, ok := s.Get("written_by_worker")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestStore_FlattenForResult(t *testing.T) {
	s := New()
	s.Set(LayerConfig, "a", 1)
	s.Set(LayerEnvironment, "b", 2)
	s.Set(LayerGlobal, "c", 3)
	s.Set(LayerRow, "d", 4)

	flat := s.FlattenForResult()
	assert.Equal(t, 2, flat["b"])
	assert.Equal(t, 3, flat["c"])
	assert.Equal(t, 4, flat["d"])
	_, hasConfig := flat["a"]
	assert.False(t, hasConfig)
}
