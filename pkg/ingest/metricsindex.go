// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

// MetricsIndex is C8: compile id (zero-attempt) -> every CompilationMetrics
// record seen for any attempt of that compilation. It fuels both the
// stack-trie coloring (§4.8) and the failure aggregator (§4.9).
type MetricsIndex struct {
	byId map[OptCompileId][]*CompilationMetrics
}

// NewMetricsIndex constructs an empty index.
func NewMetricsIndex() *MetricsIndex {
	return &MetricsIndex{byId: make(map[OptCompileId][]*CompilationMetrics)}
}

// Add appends m under id's zero-attempt key.
func (idx *MetricsIndex) Add(id OptCompileId, m *CompilationMetrics) {
	key := id.ZeroAttempt()
	idx.byId[key] = append(idx.byId[key], m)
}

// Get returns every metrics record stored under id's zero-attempt key.
func (idx *MetricsIndex) Get(id OptCompileId) ([]*CompilationMetrics, bool) {
	m, ok := idx.byId[id.ZeroAttempt()]
	return m, ok
}

// statusClass computes the CSS class a stack-trie terminal should use for
// id, per §4.8's precedence: missing > error > empty > break > ok.
func (idx *MetricsIndex) statusClass(id OptCompileId) string {
	metrics, ok := idx.Get(id)
	if !ok {
		return "status-missing"
	}
	for _, m := range metrics {
		if m.FailType != nil {
			return "status-error"
		}
	}
	for _, m := range metrics {
		if m.GraphOpCount != nil && *m.GraphOpCount == 0 {
			return "status-empty"
		}
	}
	for _, m := range metrics {
		if len(m.RestartReasons) > 0 {
			return "status-break"
		}
	}
	return "status-ok"
}

// StackIndex is the stack_index from §4.4's third post-step: the trimmed
// dynamo_start stack that led to each compile id, keyed by zero-attempt
// compile id, so the compilation-metrics page can show the originating
// stack (format_stack in the upstream implementation).
type StackIndex struct {
	byId map[OptCompileId]StackSummary
}

// NewStackIndex constructs an empty index.
func NewStackIndex() *StackIndex { return &StackIndex{byId: make(map[OptCompileId]StackSummary)} }

// Set records stack under id's zero-attempt key.
func (idx *StackIndex) Set(id OptCompileId, stack StackSummary) {
	idx.byId[id.ZeroAttempt()] = stack
}

// Get returns the stack stored under id's zero-attempt key.
func (idx *StackIndex) Get(id OptCompileId) (StackSummary, bool) {
	s, ok := idx.byId[id.ZeroAttempt()]
	return s, ok
}

// SymbolicShapeSpecializationIndex collects symbolic_shape_specialization
// records per compile id, consumed (drained) once by the
// compilation_metrics analyzer for the same compile id.
type SymbolicShapeSpecializationIndex struct {
	byId map[OptCompileId][]SymbolicShapeSpecialization
}

// NewSymbolicShapeSpecializationIndex constructs an empty index.
func NewSymbolicShapeSpecializationIndex() *SymbolicShapeSpecializationIndex {
	return &SymbolicShapeSpecializationIndex{byId: make(map[OptCompileId][]SymbolicShapeSpecialization)}
}

// Add appends spec under id (not zero-attempt: specializations are
// attributed to the literal compile id on their envelope).
func (idx *SymbolicShapeSpecializationIndex) Add(id OptCompileId, spec SymbolicShapeSpecialization) {
	idx.byId[id] = append(idx.byId[id], spec)
}

// TakeByZeroAttempt removes and returns every specialization recorded for
// id's zero-attempt key, mirroring the upstream RefCell::remove drain.
func (idx *SymbolicShapeSpecializationIndex) TakeByZeroAttempt(id OptCompileId) []SymbolicShapeSpecialization {
	key := id.ZeroAttempt()
	v := idx.byId[key]
	delete(idx.byId, key)
	return v
}
