package classpath

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"classfinder/internal/shared/observability"
)

// Path is the session-scoped resolution state: the pending root stack, the
// resolvers realized so far in priority order, and the visited set. A Path
// builds each root's resolver at most once.
type Path struct {
	mu         sync.Mutex
	configured []string
	pending    []string
	visited    map[string]struct{}
	resolvers  []Resolver
	byID       map[string]Resolver
	closed     bool
}

// NewPath seeds a Path with roots in priority order. Roots are canonicalized
// but not opened until a lookup needs them.
func NewPath(roots []string) *Path {
	p := &Path{
		visited: make(map[string]struct{}),
		byID:    make(map[string]Resolver),
	}
	for _, r := range roots {
		p.configured = append(p.configured, Canonical(r))
	}
	for i := len(p.configured) - 1; i >= 0; i-- {
		p.pending = append(p.pending, p.configured[i])
	}
	return p
}

// Configured returns the canonical identities of the seed roots.
func (p *Path) Configured() []string {
	out := make([]string, len(p.configured))
	copy(out, p.configured)
	return out
}

// next realizes the next pending root. It returns false once the stack is
// exhausted or the Path is closed. Callers hold p.mu.
func (p *Path) next() (Resolver, bool) {
	if p.closed {
		return nil, false
	}
	for len(p.pending) > 0 {
		id := p.pending[len(p.pending)-1]
		p.pending = p.pending[:len(p.pending)-1]
		if _, seen := p.visited[id]; seen {
			continue
		}
		p.visited[id] = struct{}{}

		r, err := openResolver(id)
		if err != nil {
			observability.RootsSkippedTotal.Inc()
			slog.Debug("skipping unavailable root", "root", id, "error", err)
			continue
		}
		observability.RootsOpenedTotal.WithLabelValues(r.Root().Kind.String()).Inc()
		p.resolvers = append(p.resolvers, r)
		p.byID[id] = r

		if a, ok := r.(*ArchiveResolver); ok {
			extra := a.ExtraRoots()
			for i := len(extra) - 1; i >= 0; i-- {
				p.pending = append(p.pending, extra[i])
			}
		}
		return r, true
	}
	return nil, false
}

// Locate returns the first location of name in priority order. Roots beyond
// the one that resolves name are left unrealized.
func (p *Path) Locate(name string) (Location, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return Location{}, false
	}

	for _, r := range p.resolvers {
		if loc, ok := r.Resolve(name); ok {
			return loc, true
		}
	}
	for {
		r, ok := p.next()
		if !ok {
			return Location{}, false
		}
		if loc, ok := r.Resolve(name); ok {
			return loc, true
		}
	}
}

// FindAll expands every root and returns each location of name, in the
// order resolvers were realized.
func (p *Path) FindAll(name string) []Location {
	var out []Location
	for _, r := range p.Resolvers() {
		if loc, ok := r.Resolve(name); ok {
			out = append(out, loc)
		}
	}
	return out
}

// Resolvers forces full expansion and returns every realized resolver.
func (p *Path) Resolvers() []Resolver {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}

	for {
		if _, ok := p.next(); !ok {
			break
		}
	}
	out := make([]Resolver, len(p.resolvers))
	copy(out, p.resolvers)
	return out
}

// Open returns the bytes behind loc.
func (p *Path) Open(loc Location) (io.ReadCloser, error) {
	r, ok := p.resolver(loc.Root.ID)
	if !ok {
		return nil, fmt.Errorf("root %s is not realized", loc.Root.ID)
	}
	return r.Open(loc.Name)
}

// Stat returns the version attributes of loc.
func (p *Path) Stat(loc Location) (Info, error) {
	r, ok := p.resolver(loc.Root.ID)
	if !ok {
		return Info{}, fmt.Errorf("root %s is not realized", loc.Root.ID)
	}
	return r.Stat(loc.Name)
}

func (p *Path) resolver(id string) (Resolver, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.byID[id]
	return r, ok
}

// OriginStack returns the chain of roots leading to the root that provides
// name: a configured root, the archives whose manifests declared the next
// link, and finally the providing root. It is empty when name is not found.
func (p *Path) OriginStack(name string) []Root {
	loc, ok := p.Locate(name)
	if !ok {
		return nil
	}

	seen := make(map[string]struct{})
	var walk func(id string, chain []Root) []Root
	walk = func(id string, chain []Root) []Root {
		if _, dup := seen[id]; dup {
			return nil
		}
		seen[id] = struct{}{}
		r, ok := p.resolver(id)
		if !ok {
			return nil
		}
		chain = append(chain[:len(chain):len(chain)], r.Root())
		if id == loc.Root.ID {
			return chain
		}
		if a, ok := r.(*ArchiveResolver); ok {
			for _, extra := range a.ExtraRoots() {
				if found := walk(extra, chain); found != nil {
					return found
				}
			}
		}
		return nil
	}
	for _, id := range p.configured {
		if found := walk(id, nil); found != nil {
			return found
		}
	}
	return nil
}

// Close releases every archive handle. Lookups after Close find nothing
// and open no further roots.
func (p *Path) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var errs []error
	for _, r := range p.resolvers {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", r.Root().ID, err))
		}
	}
	return errors.Join(errs...)
}
