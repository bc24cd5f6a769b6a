package operator

import (
	"sort"
	"sync"
)

// Factory builds an operator from its argument tokens. pipes holds the
// sub-pipelines that placeholder tokens in args refer to.
type Factory func(args []string, pipes []Operator) (Operator, error)

// Spec describes a registered operator.
type Spec struct {
	Name    string
	Long    string
	Summary string
	New     Factory
}

// Registry maps operator names, short and long, to their specs.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// Register adds an operator under its short and long names.
func (r *Registry) Register(spec Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.Name] = spec
	if spec.Long != "" {
		r.specs[spec.Long] = spec
	}
}

// Get retrieves an operator spec by short or long name.
func (r *Registry) Get(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[name]
	return s, ok
}

// List returns every registered operator once, sorted by short name.
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]Spec, 0, len(r.specs))
	for name, s := range r.specs {
		if name == s.Name {
			specs = append(specs, s)
		}
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

var (
	builtin     *Registry
	builtinOnce sync.Once
)

// Builtin returns the registry of the built-in operators.
func Builtin() *Registry {
	builtinOnce.Do(func() {
		builtin = NewRegistry()
		for _, s := range builtinSpecs() {
			builtin.Register(s)
		}
	})
	return builtin
}

func builtinSpecs() []Spec {
	return []Spec{
		{Name: ReadName, Long: "read", Summary: "read a table", New: newRead},
		{Name: WriteName, Long: "write", Summary: "write rows to a file or stdout", New: newWrite},
		{Name: FilterName, Long: "filter", Summary: "filter and project rows with expressions", New: newFilter},
		{Name: JoinName, Long: "join", Summary: "hash join two tables on key columns", New: newJoin},
		{Name: AggregateName, Long: "aggregate", Summary: "group rows and compute aggregates", New: newAggregate},
		{Name: BucketizeName, Long: "bucketize", Summary: "label connected components of a bipartite key graph", New: newBucketize},
		{Name: ClosureName, Long: "closure", Summary: "transitive closure of a parent/child relation", New: newClosure},
		{Name: SortName, Long: "sort", Summary: "stable multi-key sort", New: newSort},
		{Name: UnionName, Long: "union", Summary: "rows of both tables, right rows deduplicated by key", New: newSet(UnionName)},
		{Name: IntersectionName, Long: "intersection", Summary: "left rows whose key occurs on the right", New: newSet(IntersectionName)},
		{Name: DifferenceName, Long: "difference", Summary: "left rows whose key does not occur on the right", New: newSet(DifferenceName)},
		{Name: ExpandName, Long: "expand", Summary: "expand list-valued columns into rows", New: newExpand},
		{Name: PartitionName, Long: "partition", Summary: "split rows into files by a column value", New: newPartition},
	}
}
