package core

import (
	"go/types"
	"path/filepath"
	"runtime"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestPersistentStoreImplementationsHardening ensures only the persistence
// backends provide concrete domain.PersistentStore implementations. A new
// backend needs an explicit update of the allowed list.
func TestPersistentStoreImplementationsHardening(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes, Tests: true}
	pkgs, err := packages.Load(cfg, "venueflow/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	var persistentStore *types.Interface
	for _, p := range pkgs {
		if p.PkgPath != "venueflow/pkg/domain" || p.Types == nil {
			continue
		}
		obj := p.Types.Scope().Lookup("PersistentStore")
		if obj == nil {
			t.Fatalf("domain.PersistentStore not found")
		}
		iface, ok := obj.Type().Underlying().(*types.Interface)
		if !ok {
			t.Fatalf("domain.PersistentStore is not an interface")
		}
		persistentStore = iface
		break
	}
	if persistentStore == nil {
		t.Fatalf("failed to resolve PersistentStore interface")
	}

	// sqlite, postgres and objectstore embed the memory store and persist
	// its snapshots.
	allowed := map[string]struct{}{
		"venueflow/internal/infra/persistence/memory":      {},
		"venueflow/internal/infra/persistence/sqlite":      {},
		"venueflow/internal/infra/persistence/postgres":    {},
		"venueflow/internal/infra/persistence/objectstore": {},
	}
	found := make(map[string]struct{})
	var unexpected []string
	for _, p := range pkgs {
		if p.Types == nil || p.Types.Scope() == nil {
			continue
		}
		for _, name := range p.Types.Scope().Names() {
			named, ok := p.Types.Scope().Lookup(name).Type().(*types.Named)
			if !ok {
				continue
			}
			if _, ok := named.Underlying().(*types.Struct); !ok {
				continue
			}
			if !types.Implements(types.NewPointer(named), persistentStore) {
				continue
			}
			if _, ok := allowed[p.PkgPath]; !ok {
				unexpected = append(unexpected, p.PkgPath+"."+name)
				continue
			}
			found[p.PkgPath] = struct{}{}
		}
	}
	if len(unexpected) > 0 {
		_, file, line, _ := runtime.Caller(0)
		t.Fatalf("unexpected PersistentStore implementations (update allowed list intentionally if adding a new backend):\nfile=%s:%d\n%s", filepath.Base(file), line, unexpected)
	}
	for pkg := range allowed {
		if _, ok := found[pkg]; !ok {
			t.Errorf("expected %s to provide a PersistentStore", pkg)
		}
	}
}
