package tmpl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/sisyphus/internal/vars"
)

func fixedRenderer() *Renderer {
	return &Renderer{
		Clock:  FixedClock{At: time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)},
		Random: FixedRandom{Hex: "ab", UUIDValue: "00000000-0000-0000-0000-000000000000"},
	}
}

func TestRender_VariableLookup(t *testing.T) {
	store := vars.New()
	store.Set(vars.LayerGlobal, "name", "ada")

	r := fixedRenderer()
	v, err := r.Render("hello {{name}}", store)
	require.NoError(t, err)
	assert.Equal(t, "hello ada", v)
}

func TestRender_EntireStringReturnsNativeType(t *testing.T) {
	store := vars.New()
	store.Set(vars.LayerGlobal, "count", 42)

	r := fixedRenderer()
	v, err := r.Render("{{count}}", store)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRender_NestedPath(t *testing.T) {
	store := vars.New()
	store.Set(vars.LayerGlobal, "user", map[string]any{"name": "ada"})

	r := fixedRenderer()
	v, err := r.Render("{{user.name}}", store)
	require.NoError(t, err)
	assert.Equal(t, "ada", v)
}

func TestRender_MissingVariable(t *testing.T) {
	store := vars.New()
	r := fixedRenderer()
	_, err := r.Render("{{missing}}", store)
	assert.Error(t, err)
}

func TestRender_MapAndList(t *testing.T) {
	store := vars.New()
	store.Set(vars.LayerGlobal, "x", "val")

	r := fixedRenderer()
	v, err := r.Render(map[string]any{"a": "{{x}}", "b": []any{"{{x}}", "lit"}}, store)
	require.NoError(t, err)
	m := v.(map[string]any)
	assert.Equal(t, "val", m["a"])
	assert.Equal(t, []any{"val", "lit"}, m["b"])
}

func TestRender_Builtins(t *testing.T) {
	store := vars.New()
	r := fixedRenderer()

	v, err := r.Render("{{random(4)}}", store)
	require.NoError(t, err)
	assert.Equal(t, "abab", v)

	v, err = r.Render("{{random_uuid()}}", store)
	require.NoError(t, err)
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", v)

	v, err = r.Render("{{timestamp()}}", store)
	require.NoError(t, err)
	assert.Equal(t, int64(1785758400), v)

	v, err = r.Render("{{datetime(\"%Y-%m-%d\")}}", store)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-03", v)
}

func TestRender_RandomZeroLength(t *testing.T) {
	store := vars.New()
	r := fixedRenderer()
	v, err := r.Render("{{random(0)}}", store)
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestRender_Idempotence(t *testing.T) {
	store := vars.New()
	store.Set(vars.LayerGlobal, "x", "static")
	r := fixedRenderer()

	once, err := r.RenderString("value is {{x}}", store)
	require.NoError(t, err)
	twice, err := r.RenderString(once, store)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestResolveLayer_NestedReferences(t *testing.T) {
	store := vars.New()
	r := fixedRenderer()

	raw := map[string]any{
		"base_url": "http://mock",
		"full_url": "{{base_url}}/api",
	}
	err := r.ResolveLayer(raw, store, vars.LayerConfig)
	require.NoError(t, err)

	v, ok := store.Get("full_url")
	require.True(t, ok)
	assert.Equal(t, "http://mock/api", v)
}
