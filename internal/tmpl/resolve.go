package tmpl

import (
	"strconv"

	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

// maxResolvePasses bounds the repeated-pass resolution of nested
// references inside Config.variables (§4.2): each pass renders every
// value against the store, writes the results back, and reruns until a
// fixed point or the pass ceiling is hit.
const maxResolvePasses = 10

// ResolveLayer repeatedly renders every value in a raw variable map against
// store (which already carries lower-precedence layers), writing results
// into layer after each pass, until two consecutive passes agree or the
// pass ceiling is reached. VARIABLE_RENDER_ERROR is returned when a
// value still fails to render after that.
func (r *Renderer) ResolveLayer(raw map[string]any, store *vars.Store, layer vars.Layer) error {
	current := make(map[string]any, len(raw))
	for k, v := range raw {
		current[k] = v
	}
	store.SetMany(layer, current)

	for pass := 0; pass < maxResolvePasses; pass++ {
		next := make(map[string]any, len(current))
		changed := false
		for k, v := range current {
			rv, err := r.Render(v, store)
			if err != nil {
				// Unresolved references are expected mid-pass; only the
				// final pass's failure is reported to the caller.
				next[k] = v
				continue
			}
			if !deepEqual(rv, v) {
				changed = true
			}
			next[k] = rv
		}
		current = next
		store.SetMany(layer, current)
		if !changed {
			break
		}
	}

	for k, v := range current {
		if _, err := r.Render(v, store); err != nil {
			return &errs.EngineError{
				Kind:    errs.VariableRenderError,
				Message: "config variable could not be resolved within " + strconv.Itoa(maxResolvePasses) + " passes",
				Path:    "config.variables." + k,
			}
		}
	}
	return nil
}

func deepEqual(a, b any) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}
	return false
}

