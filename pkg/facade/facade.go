// Package facade wraps the pure core (pkg/oca, pkg/dsl, pkg/builddriver)
// with storage-backed orchestration: running a build and persisting its
// history in one call, fetching a previously built bundle back out by
// digest, and rendering a bundle back to its DSL surface for the
// ocafile round-trip.
package facade

import (
	"encoding/json"
	"fmt"

	internaldsl "ocabuild.dev/oca/internal/dsl"
	"ocabuild.dev/oca/internal/ocaerr"
	"ocabuild.dev/oca/pkg/builddriver"
	"ocabuild.dev/oca/pkg/dsl"
	"ocabuild.dev/oca/pkg/history"
	"ocabuild.dev/oca/pkg/model"
	"ocabuild.dev/oca/pkg/oca"
	"ocabuild.dev/oca/pkg/refresolver"
)

// Facade is the orchestration entry point a CLI or embedding host
// drives: it owns the reference table across builds and a storage
// backend, and exposes build/get operations in terms of bundle digests
// rather than raw commands or boxes.
type Facade struct {
	Store history.Store
	Refs  *refresolver.Table
}

// New returns a Facade backed by store, with a fresh in-memory
// reference table.
func New(store history.Store) *Facade {
	return &Facade{Store: store, Refs: refresolver.New()}
}

// bundleLoader adapts Facade's storage to dsl.BundleLoader.
type bundleLoader struct{ store history.Store }

func (l bundleLoader) LoadBundle(digestValue string) (*model.OCABundle, error) {
	raw, ok, err := l.store.Get(history.BundleNamespace, digestValue)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no bundle cached under digest %s", digestValue)
	}
	var bundle model.OCABundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("decode cached bundle %s: %w", digestValue, err)
	}
	return &bundle, nil
}

// Build runs commands against either an empty builder state or the
// state of an existing cached bundle, driving the build and writing its
// history in one call -- unlike the side-effect-free builddriver.Run it
// wraps. On success it resolves dependencies, persists the build's step
// chain, records any "name" meta binding, and returns the finished
// bundle.
func (f *Facade) Build(startFrom *model.OCABundle, commands []dsl.Command) (*model.OCABundle, error) {
	var initial *oca.Box
	var err error
	if startFrom != nil {
		initial, err = oca.FromBundle(startFrom)
		if err != nil {
			return nil, fmt.Errorf("facade: seed from starting bundle: %w", err)
		}
	} else {
		initial = oca.New()
	}

	env := dsl.Env{Loader: bundleLoader{f.Store}, Resolver: f.Refs}
	result, err := builddriver.Run(initial, commands, env)
	if err != nil {
		return nil, err
	}

	if err := f.resolveDependencies(result.Bundle); err != nil {
		return nil, err
	}
	if err := history.WriteChain(f.Store, result.Chain); err != nil {
		return nil, err
	}

	box, err := oca.FromBundle(result.Bundle)
	if err != nil {
		return nil, fmt.Errorf("facade: re-derive builder state for meta binding: %w", err)
	}
	f.Refs.ObserveMeta(box.Meta, result.Bundle.Digest)
	if err := f.Refs.Persist(f.Store); err != nil {
		return nil, err
	}

	return result.Bundle, nil
}

// resolveDependencies confirms that every digest-reference form an
// EntryCode or Entry overlay carries actually resolves to something in
// storage before a build is considered finished.
func (f *Facade) resolveDependencies(bundle *model.OCABundle) error {
	for _, ov := range bundle.Overlays {
		switch o := ov.(type) {
		case *model.EntryCodeOverlay:
			for name, ec := range o.Attributes_ {
				if !ec.IsRef() {
					continue
				}
				if _, ok, err := f.Store.Get(history.ObjectNamespace, ec.Ref); err != nil {
					return fmt.Errorf("facade: resolve entry-code dependency for %q: %w", name, err)
				} else if !ok {
					return fmt.Errorf("%w: entry-code reference %q for attribute %q", ocaerr.ErrUnknownReference, ec.Ref, name)
				}
			}
		case *model.EntryOverlay:
			for name, e := range o.Attributes_ {
				if !e.IsRef() {
					continue
				}
				if _, ok, err := f.Store.Get(history.ObjectNamespace, e.Ref); err != nil {
					return fmt.Errorf("facade: resolve entry dependency for %q: %w", name, err)
				} else if !ok {
					return fmt.Errorf("%w: entry reference %q for attribute %q", ocaerr.ErrUnknownReference, e.Ref, name)
				}
			}
		}
	}
	return nil
}

// GetOCABundle fetches a previously built bundle by its digest.
func (f *Facade) GetOCABundle(saidValue string) (*model.OCABundle, error) {
	return bundleLoader{f.Store}.LoadBundle(saidValue)
}

// GetOCABundleOCAFile fetches a bundle and renders it back to the
// textual DSL surface, the "ocafile round-trip".
func (f *Facade) GetOCABundleOCAFile(saidValue string) (string, error) {
	bundle, err := f.GetOCABundle(saidValue)
	if err != nil {
		return "", err
	}
	return internaldsl.Render(bundle), nil
}
