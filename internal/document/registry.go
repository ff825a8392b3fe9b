package document

// Registry assigns dense integer ids to external document identifiers in
// first-seen order. It is the only place documents are admitted to an index.
// A Registry is not safe for concurrent use; the build pipeline gives every
// block its own and folds them together at fan-in.
type Registry struct {
	ids   []string
	index map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// RegistryFrom rebuilds a registry from an ordered id list, as persisted in
// the index metadata.
func RegistryFrom(ids []string) *Registry {
	r := &Registry{
		ids:   make([]string, len(ids)),
		index: make(map[string]int, len(ids)),
	}
	copy(r.ids, ids)
	for i, id := range ids {
		r.index[id] = i
	}
	return r
}

// Register returns the internal id for externalID, appending it if unseen.
// The second result reports whether the id was newly added.
func (r *Registry) Register(externalID string) (int, bool) {
	if id, ok := r.index[externalID]; ok {
		return id, false
	}
	id := len(r.ids)
	r.ids = append(r.ids, externalID)
	r.index[externalID] = id
	return id, true
}

// Resolve returns the external id for an internal id.
func (r *Registry) Resolve(id int) (string, bool) {
	if id < 0 || id >= len(r.ids) {
		return "", false
	}
	return r.ids[id], true
}

func (r *Registry) Len() int {
	return len(r.ids)
}

// IDs returns the ordered external ids; index i holds the id for internal id i.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}
