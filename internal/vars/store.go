// Package vars implements the layered variable store described in the
// engine's resolution order: data-driven row parameters, global
// extractions, step-local ephemerals, config variables, environment
// variables, and built-in functions, highest layer wins.
package vars

import (
	"strings"
	"sync"
)

// Layer names a resolution-order layer, 1 (highest precedence) through 5.
type Layer int

const (
	LayerRow         Layer = 1 // current data-driven row parameters
	LayerGlobal      Layer = 2 // written by earlier step extractions (scope=global)
	LayerEphemeral   Layer = 3 // loop/poll iteration locals
	LayerConfig      Layer = 4 // Config.variables
	LayerEnvironment Layer = 5 // Config.environment.variables, and scope=environment extractions
)

// Store is a scoped key/value store. It is safe for concurrent reads;
// Snapshot and Overlay give concurrent fan-out workers isolated copies so
// writes never race across goroutines.
type Store struct {
	mu     sync.RWMutex
	layers map[Layer]map[string]any
}

// New builds an empty Store with all five layers initialized.
func New() *Store {
	s := &Store{layers: map[Layer]map[string]any{}}
	for _, l := range []Layer{LayerRow, LayerGlobal, LayerEphemeral, LayerConfig, LayerEnvironment} {
		s.layers[l] = map[string]any{}
	}
	return s
}

// Set writes name into the given layer.
func (s *Store) Set(layer Layer, name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers[layer][name] = value
}

// SetMany writes every entry of values into the given layer.
func (s *Store) SetMany(layer Layer, values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.layers[layer][k] = v
	}
}

// ClearLayer empties one layer. The loop drivers do not call it; each
// iteration gets a fresh Overlay instead.
func (s *Store) ClearLayer(layer Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers[layer] = map[string]any{}
}

// Get resolves name against the layers in precedence order (1 highest).
// The second return is false when no layer defines the name.
func (s *Store) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range []Layer{LayerRow, LayerGlobal, LayerEphemeral, LayerConfig, LayerEnvironment} {
		if v, ok := s.layers[l][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// GetPath resolves a dotted path (a.b.c) against a map-valued top-level
// variable. The first segment is resolved via Get; subsequent segments
// index into the nested map or list.
func (s *Store) GetPath(path string) (any, bool) {
	segs := strings.Split(path, ".")
	v, ok := s.Get(segs[0])
	if !ok {
		return nil, false
	}
	for _, seg := range segs[1:] {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return v, true
}

// Snapshot returns a deep-enough copy of every layer, keyed by layer, for
// inclusion in the final CaseResult document.
func (s *Store) Snapshot() map[Layer]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Layer]map[string]any, len(s.layers))
	for l, m := range s.layers {
		cp := make(map[string]any, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out[l] = cp
	}
	return out
}

// FlattenForResult merges layers 5, 2, and 1, a later layer overriding an
// earlier one on the same name, for the document's top-level `variables`
// snapshot (§4.15): environment variables and environment-scoped
// extractions, global extractions, and the active data-driven row.
func (s *Store) FlattenForResult() map[string]any {
	snap := s.Snapshot()
	out := map[string]any{}
	for _, l := range []Layer{LayerEnvironment, LayerGlobal, LayerRow} {
		for k, v := range snap[l] {
			out[k] = v
		}
	}
	return out
}

// Overlay returns a new Store seeded with a copy of the receiver's layers,
// for use by an isolated concurrent-fan-out worker or data-driven run. The
// overlay's writes never affect the parent; callers merge results back
// explicitly (deterministic last-writer-wins by iteration index).
func (s *Store) Overlay() *Store {
	snap := s.Snapshot()
	out := New()
	for l, m := range snap {
		out.SetMany(l, m)
	}
	return out
}

// MergeGlobalFrom copies the LayerGlobal and LayerEnvironment entries of
// src into the receiver, used by the concurrent/data-driven drivers to
// reconcile worker overlays back into the parent store on join.
func (s *Store) MergeGlobalFrom(src *Store) {
	snap := src.Snapshot()
	s.SetMany(LayerGlobal, snap[LayerGlobal])
	s.SetMany(LayerEnvironment, snap[LayerEnvironment])
}
