// Package refresolver implements a bidirectional name<->digest table,
// populated as a build runs from each bundle's "name" meta property
// under language "en".
package refresolver

import (
	"fmt"

	"ocabuild.dev/oca/pkg/history"
)

// Table is a bidirectional name<->digest index. The zero value is not
// usable; construct with New.
type Table struct {
	byName   map[string]string
	byDigest map[string]string
}

// New returns an empty Table.
func New() *Table {
	return &Table{byName: map[string]string{}, byDigest: map[string]string{}}
}

// Bind records that name refers to digest. Re-binding a name to a new
// digest drops the old digest's reverse entry, so the last bind for a
// given name always wins. Binding a digest to a new name replaces its
// reverse entry but leaves the old name resolving to that digest.
func (t *Table) Bind(name, digest string) {
	if prev, ok := t.byName[name]; ok {
		delete(t.byDigest, prev)
	}
	t.byName[name] = digest
	t.byDigest[digest] = name
}

// ObserveMeta extracts a "name" binding from a build's English meta
// properties, if present.
func (t *Table) ObserveMeta(meta map[string]map[string]string, digest string) {
	en, ok := meta["en"]
	if !ok {
		return
	}
	if name, ok := en["name"]; ok && name != "" {
		t.Bind(name, digest)
	}
}

// Resolve looks up the digest bound to name. Resolution failure is the
// caller's cue to raise UnknownReference.
func (t *Table) Resolve(name string) (string, error) {
	digest, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("no binding for name %q", name)
	}
	return digest, nil
}

// Name looks up the symbolic name bound to digest, if any.
func (t *Table) Name(digest string) (string, bool) {
	name, ok := t.byDigest[digest]
	return name, ok
}

// Persist writes every binding to store's "references" namespace, one
// entry per name.
func (t *Table) Persist(store history.Store) error {
	for name, digest := range t.byName {
		if err := store.Insert(history.ReferenceNamespace, name, []byte(digest)); err != nil {
			return fmt.Errorf("refresolver: persist %q: %w", name, err)
		}
	}
	return nil
}

// Load resolves name directly from store's "references" namespace,
// bypassing the in-memory table, so bindings persisted by an earlier
// process can be read back. Facade resolves From references through its
// in-memory Table, not through Load.
func Load(store history.Store, name string) (string, error) {
	v, ok, err := store.Get(history.ReferenceNamespace, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no binding for name %q", name)
	}
	return string(v), nil
}
