// Package registry is the static tool inventory the agent loop consults
// for access-control classification: which tools exist, whether they run
// without approval (Auto), require it (Gated), or must never run
// (Forbidden), plus the capability/side-effect/resource metadata the UI
// and safety substrate use to describe and bound them.
//
// The registry is built once from a static catalog and is read-only for
// the lifetime of the process; extension registration exists only for
// tests.
package registry

// Classification is the access-control bucket a tool falls into.
type Classification int

const (
	// Auto tools execute without user approval.
	Auto Classification = iota
	// Gated tools require explicit user approval before execution.
	Gated
	// Forbidden tools must never execute.
	Forbidden
)

func (c Classification) String() string {
	switch c {
	case Auto:
		return "auto"
	case Gated:
		return "gated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Capability is one facet of what a tool can do to the system.
type Capability int

const (
	Read Capability = iota
	Write
	Delete
	Network
	Execute
	Filesystem
	Database
	System
	Analysis
)

// SideEffect is how far a tool's impact reaches.
type SideEffect int

const (
	// SideEffectNone is a pure read/analysis operation.
	SideEffectNone SideEffect = iota
	// SideEffectLocal mutates only local, recoverable state.
	SideEffectLocal
	// SideEffectMutating changes project state.
	SideEffectMutating
	// SideEffectExternal reaches outside the project (network, system).
	SideEffectExternal
)

// Resource is a coarse cost band used for scheduling/backoff decisions.
type Resource int

const (
	Light Resource = iota
	Medium
	Heavy
	Intensive
)

// Argument describes one named parameter a tool accepts.
type Argument struct {
	Name        string
	Type        string // "string", "integer", "boolean", "array", "object", "path", "pattern"
	Required    bool
	Description string
	Default     string
}

// Examples pairs usage strings with an example of their output, for the
// LLM-facing tool schema the system prompt renders.
type Examples struct {
	Usage  []string
	Output string
}

// Metadata is the complete description of one tool: its classification,
// capabilities, cost, and the timeout the executor enforces.
type Metadata struct {
	Name           string
	Description    string
	Classification Classification
	Capabilities   map[Capability]bool
	SideEffect     SideEffect
	Resource       Resource
	Available      bool
	MaxTimeoutMS   int64 // 0 means no declared limit
	Arguments      []Argument
	Examples       Examples
}

// HasCapability reports whether the tool declares cap.
func (m Metadata) HasCapability(cap Capability) bool { return m.Capabilities[cap] }

// IsReadOnly reports whether the tool reads without writing or deleting.
func (m Metadata) IsReadOnly() bool {
	return m.Capabilities[Read] && !m.Capabilities[Write] && !m.Capabilities[Delete]
}

// IsMutating reports whether the tool writes or deletes.
func (m Metadata) IsMutating() bool {
	return m.Capabilities[Write] || m.Capabilities[Delete]
}

// IsSafe reports whether the tool's side effects stay local or none.
func (m Metadata) IsSafe() bool {
	return m.SideEffect == SideEffectNone || m.SideEffect == SideEffectLocal
}

// Registry is the static, read-only tool inventory.
type Registry struct {
	tools map[string]Metadata
}

// New builds a registry from the default catalog (see catalog.go).
func New() *Registry {
	return &Registry{tools: defaultTools()}
}

// Empty builds a registry with no entries, for tests.
func Empty() *Registry {
	return &Registry{tools: map[string]Metadata{}}
}

// Register adds or replaces a tool's metadata. Exists for test fixtures;
// production registries are built once via New and never mutated.
func (r *Registry) Register(m Metadata) {
	r.tools[m.Name] = m
}

// Get returns a tool's metadata and whether it exists.
func (r *Registry) Get(name string) (Metadata, bool) {
	m, ok := r.tools[name]
	return m, ok
}

// Contains reports whether name is a known tool.
func (r *Registry) Contains(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Classification returns the classification for name, defaulting to
// Forbidden for an unknown tool — the registry fails closed.
func (r *Registry) Classification(name string) Classification {
	m, ok := r.tools[name]
	if !ok {
		return Forbidden
	}
	return m.Classification
}

// All returns every registered tool's metadata, in no particular order.
func (r *Registry) All() []Metadata {
	out := make([]Metadata, 0, len(r.tools))
	for _, m := range r.tools {
		out = append(out, m)
	}
	return out
}

// ByClassification returns every available tool with the given
// classification.
func (r *Registry) ByClassification(c Classification) []Metadata {
	var out []Metadata
	for _, m := range r.tools {
		if m.Classification == c && m.Available {
			out = append(out, m)
		}
	}
	return out
}

// ByCapability returns every tool declaring cap.
func (r *Registry) ByCapability(cap Capability) []Metadata {
	var out []Metadata
	for _, m := range r.tools {
		if m.Capabilities[cap] {
			out = append(out, m)
		}
	}
	return out
}

// ByResource returns every tool at the given resource band.
func (r *Registry) ByResource(res Resource) []Metadata {
	var out []Metadata
	for _, m := range r.tools {
		if m.Resource == res {
			out = append(out, m)
		}
	}
	return out
}

// AvailableToolNames returns the names of every tool marked Available.
func (r *Registry) AvailableToolNames() []string {
	var out []string
	for name, m := range r.tools {
		if m.Available {
			out = append(out, name)
		}
	}
	return out
}
