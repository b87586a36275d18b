package extract

// EntityID addresses an entity in a Registry. IDs are stable for the life of
// the registry; relocation changes an entity's position, never its ID.
type EntityID int

type record struct {
	entity Entity
	live   bool

	// Class members, referenced by ID and rendered as positions on Snapshot.
	static   []EntityID
	instance []EntityID
}

// Registry stores the entities discovered in one file. Entities live in an
// arena; a secondary index maps each start position to at most one entity.
type Registry struct {
	arena []record
	index map[Position]EntityID

	exports    map[string]EntityID
	defaultID  EntityID
	hasDefault bool

	// locals binds declared names to entities so later re-exports of the
	// same name reach the original entity.
	locals map[string]EntityID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index:   make(map[Position]EntityID),
		exports: make(map[string]EntityID),
		locals:  make(map[string]EntityID),
	}
}

// Add stores e keyed by its start position and returns its ID. An entity
// already at that position is evicted.
func (r *Registry) Add(e Entity) EntityID {
	id := EntityID(len(r.arena))
	r.arena = append(r.arena, record{entity: e, live: true})
	r.claim(e.Range.Start, id)
	return id
}

// AddComment registers a detached comment. Registering the same position
// twice is a no-op.
func (r *Registry) AddComment(text string, rng Range) {
	if id, ok := r.index[rng.Start]; ok && r.arena[id].entity.Kind == KindComment {
		return
	}
	r.Add(Entity{Kind: KindComment, Range: rng, Doc: text})
}

// Entity returns the entity for id. The pointer stays valid until the next
// Add.
func (r *Registry) Entity(id EntityID) *Entity {
	return &r.arena[id].entity
}

// Live reports whether id is still addressable by position.
func (r *Registry) Live(id EntityID) bool {
	return id >= 0 && int(id) < len(r.arena) && r.arena[id].live
}

// At returns the ID of the entity starting at pos.
func (r *Registry) At(pos Position) (EntityID, bool) {
	id, ok := r.index[pos]
	return id, ok
}

// Relocate moves id to rng. The old position is released in the same step,
// so no stale key remains.
func (r *Registry) Relocate(id EntityID, rng Range) {
	rec := &r.arena[id]
	old := rec.entity.Range.Start
	if cur, ok := r.index[old]; ok && cur == id {
		delete(r.index, old)
	}
	rec.entity.Range = rng
	rec.live = true
	r.claim(rng.Start, id)
}

func (r *Registry) claim(pos Position, id EntityID) {
	if prev, ok := r.index[pos]; ok && prev != id {
		r.arena[prev].live = false
	}
	r.index[pos] = id
}

// AddMember appends member to the static or instance list of class.
func (r *Registry) AddMember(class, member EntityID, static bool) {
	rec := &r.arena[class]
	if static {
		rec.static = append(rec.static, member)
	} else {
		rec.instance = append(rec.instance, member)
	}
}

// Bind records that name is declared as id in file scope.
func (r *Registry) Bind(name string, id EntityID) {
	if name != "" {
		r.locals[name] = id
	}
}

// Local returns the entity bound to name.
func (r *Registry) Local(name string) (EntityID, bool) {
	id, ok := r.locals[name]
	return id, ok && r.Live(id)
}

// Export maps an export name to id.
func (r *Registry) Export(name string, id EntityID) {
	if name != "" {
		r.exports[name] = id
	}
}

// SetDefault designates id as the file's default export.
func (r *Registry) SetDefault(id EntityID) {
	r.defaultID = id
	r.hasDefault = true
}

// Snapshot renders the registry as FileMetadata. Class member and export
// references resolve to current positions; references to evicted entities
// are dropped.
func (r *Registry) Snapshot() *FileMetadata {
	md := NewFileMetadata()
	for id := range r.arena {
		rec := &r.arena[id]
		if !rec.live {
			continue
		}
		e := rec.entity
		switch e.Kind {
		case KindClass:
			e.StaticMembers = r.positions(rec.static)
			e.InstanceMembers = r.positions(rec.instance)
		case KindFunction:
			e.Params = nonNil(e.Params)
		}
		md.Put(&e)
	}

	if r.hasDefault && r.Live(r.defaultID) {
		md.Exports = Exports{HasDefault: true, Default: r.arena[r.defaultID].entity.Range.Start.Line}
	}
	md.Exports.Named = make(map[string]int, len(r.exports))
	for name, id := range r.exports {
		if r.Live(id) {
			md.Exports.Named[name] = r.arena[id].entity.Range.Start.Line
		}
	}
	return md
}

func (r *Registry) positions(ids []EntityID) []Position {
	out := make([]Position, 0, len(ids))
	for _, id := range ids {
		if r.Live(id) {
			out = append(out, r.arena[id].entity.Range.Start)
		}
	}
	return out
}
