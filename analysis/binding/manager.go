// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package binding

import (
	"fmt"
	"strings"

	"github.com/hooyq/taint-ana/analysis/cfg"
	"github.com/hooyq/taint-ana/internal/funcutil"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Identifier is the canonical key of a storage location, e.g. "x", "x.2" or "x.2(as 1).0"
type Identifier string

// Source is a provenance tag attached to the group of an identifier, e.g. "stdin" for a value read from outside
type Source string

// LocalState is the union-find entry of one identifier. Parent is the handle of the parent entry; an entry is a root
// iff it is its own parent. Only the Released flag of a root is meaningful.
type LocalState struct {
	ID       Identifier
	Released bool
	Parent   int
	Rank     uint32
	Tag      funcutil.Optional[Source]
	// ReleasedAt is the location where this exact identifier was released in the current lifetime of its group
	ReleasedAt funcutil.Optional[cfg.Location]
}

// Manager is the union-find structure of the identifiers of one function. Entries are stored in an arena and
// referred to by their handle (index in the arena).
//
// A Manager contains no pointers into shared storage: Fork returns a completely independent copy.
type Manager struct {
	states []LocalState
	index  map[Identifier]int
}

// NewManager returns an empty manager
func NewManager() *Manager {
	return &Manager{index: map[Identifier]int{}}
}

// Register creates a fresh root entry for id if it has not been registered yet, and does nothing otherwise.
// It returns true if the identifier was new.
func (m *Manager) Register(id Identifier, tag funcutil.Optional[Source]) bool {
	if _, ok := m.index[id]; ok {
		return false
	}
	h := len(m.states)
	m.states = append(m.states, LocalState{ID: id, Parent: h, Tag: tag})
	m.index[id] = h
	return true
}

// IsRegistered returns true if id has been registered
func (m *Manager) IsRegistered(id Identifier) bool {
	_, ok := m.index[id]
	return ok
}

// find walks the parent links from h to its root. The path contains every handle visited, h and the root included.
func (m *Manager) find(h int) (int, []int) {
	path := []int{h}
	for m.states[h].Parent != h {
		h = m.states[h].Parent
		path = append(path, h)
	}
	return h, path
}

func (m *Manager) compress(path []int, root int) {
	for _, h := range path {
		if h != root {
			m.states[h].Parent = root
		}
	}
}

// resolve returns the root of h and compresses the path to it
func (m *Manager) resolve(h int) int {
	root, path := m.find(h)
	m.compress(path, root)
	return root
}

// Find returns the root of the group of id and the path of identifiers from id to the root. The manager is not
// modified. It returns an error wrapping ErrUnregistered if id is unknown.
func (m *Manager) Find(id Identifier) (Identifier, []Identifier, error) {
	h, ok := m.index[id]
	if !ok {
		return "", nil, unregistered(id)
	}
	root, path := m.find(h)
	return m.states[root].ID, funcutil.Map(path, func(h int) Identifier { return m.states[h].ID }), nil
}

// Compress repoints every identifier of path that is not root directly to root. Unknown identifiers are ignored.
func (m *Manager) Compress(path []Identifier, root Identifier) {
	r, ok := m.index[root]
	if !ok {
		return
	}
	for _, id := range path {
		if h, ok := m.index[id]; ok && h != r {
			m.states[h].Parent = r
		}
	}
}

// Bind unions the groups of id1 and id2. The root of lower rank is attached under the root of higher rank; on a
// tie, the root of id2 is attached under the root of id1, whose rank increases. The tag of the merged group is the
// tag of id1's group if it has one, otherwise the tag of id2's group. The release flag of the surviving root is
// the flag of the merged group.
// If either identifier is not registered, Bind returns a *BindError and does nothing.
func (m *Manager) Bind(id1, id2 Identifier) error {
	h1, ok1 := m.index[id1]
	h2, ok2 := m.index[id2]
	if !ok1 || !ok2 {
		missing := id1
		if ok1 {
			missing = id2
		}
		return &BindError{ID1: id1, ID2: id2, Missing: missing}
	}
	r1 := m.resolve(h1)
	r2 := m.resolve(h2)
	if r1 == r2 {
		return nil
	}
	tag := funcutil.MaybeOr(m.states[r1].Tag, m.states[r2].Tag)
	var root int
	switch {
	case m.states[r1].Rank > m.states[r2].Rank:
		m.states[r2].Parent = r1
		root = r1
	case m.states[r2].Rank > m.states[r1].Rank:
		m.states[r1].Parent = r2
		root = r2
	default:
		m.states[r2].Parent = r1
		m.states[r1].Rank++
		root = r1
	}
	m.states[root].Tag = tag
	return nil
}

// Release marks the group of id as released
func (m *Manager) Release(id Identifier) error {
	h, ok := m.index[id]
	if !ok {
		return unregistered(id)
	}
	m.states[m.resolve(h)].Released = true
	return nil
}

// ReleaseAt marks the group of id as released, and records that id itself was released at loc
func (m *Manager) ReleaseAt(id Identifier, loc cfg.Location) error {
	if err := m.Release(id); err != nil {
		return err
	}
	m.states[m.index[id]].ReleasedAt = funcutil.Some(loc)
	return nil
}

// Unrelease clears the release flag of the group of id. The group starts a new lifetime: the release locations of
// all its members are forgotten.
func (m *Manager) Unrelease(id Identifier) error {
	h, ok := m.index[id]
	if !ok {
		return unregistered(id)
	}
	root := m.resolve(h)
	m.states[root].Released = false
	for i := range m.states {
		if m.states[i].ReleasedAt.IsSome() && m.resolve(i) == root {
			m.states[i].ReleasedAt = funcutil.None[cfg.Location]()
		}
	}
	return nil
}

// IsReleased returns true if the group of id is released. It returns false for unknown identifiers.
func (m *Manager) IsReleased(id Identifier) bool {
	h, ok := m.index[id]
	if !ok {
		return false
	}
	return m.states[m.resolve(h)].Released
}

// IsAliased returns true if id is not the root of its group, i.e. it has been bound into the group of another
// identifier.
func (m *Manager) IsAliased(id Identifier) bool {
	root, _, err := m.Find(id)
	return err == nil && root != id
}

// Group returns the root of the group of id and all the identifiers of the group, sorted.
func (m *Manager) Group(id Identifier) (Identifier, []Identifier, error) {
	h, ok := m.index[id]
	if !ok {
		return "", nil, unregistered(id)
	}
	root := m.resolve(h)
	var members []Identifier
	for i := range m.states {
		if m.resolve(i) == root {
			members = append(members, m.states[i].ID)
		}
	}
	slices.Sort(members)
	return m.states[root].ID, members, nil
}

// ReleasedAt returns where id itself was released in the current lifetime of its group, if it was.
func (m *Manager) ReleasedAt(id Identifier) funcutil.Optional[cfg.Location] {
	h, ok := m.index[id]
	if !ok {
		return funcutil.None[cfg.Location]()
	}
	return m.states[h].ReleasedAt
}

// Tag returns the provenance tag of the group of id
func (m *Manager) Tag(id Identifier) funcutil.Optional[Source] {
	h, ok := m.index[id]
	if !ok {
		return funcutil.None[Source]()
	}
	root, _ := m.find(h)
	return m.states[root].Tag
}

// SetTag sets the provenance tag of the group of id, registering id if needed
func (m *Manager) SetTag(id Identifier, tag Source) {
	m.Register(id, funcutil.None[Source]())
	root := m.resolve(m.index[id])
	m.states[root].Tag = funcutil.Some(tag)
}

// State returns a copy of the entry of id
func (m *Manager) State(id Identifier) (LocalState, bool) {
	h, ok := m.index[id]
	if !ok {
		return LocalState{}, false
	}
	return m.states[h], true
}

// Fork returns a deep copy of the manager
func (m *Manager) Fork() *Manager {
	return &Manager{
		states: slices.Clone(m.states),
		index:  maps.Clone(m.index),
	}
}

// Len returns the number of registered identifiers
func (m *Manager) Len() int {
	return len(m.states)
}

// Identifiers returns all the registered identifiers, sorted
func (m *Manager) Identifiers() []Identifier {
	return funcutil.SortedKeys(m.index)
}

// String dumps the entries of the manager, one per line, sorted by identifier.
func (m *Manager) String() string {
	var b strings.Builder
	for _, id := range m.Identifiers() {
		s := m.states[m.index[id]]
		root, _ := m.find(m.index[id])
		fmt.Fprintf(&b, "id: %s, root: %s, parent: %s, released: %t, rank: %d, tag: %s\n",
			s.ID, m.states[root].ID, m.states[s.Parent].ID, m.states[root].Released, s.Rank, s.Tag)
	}
	return b.String()
}
