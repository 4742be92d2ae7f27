package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "classfinder/internal/core/errors"
	"classfinder/internal/engine/classfile"
	"classfinder/internal/engine/classpath"
	"classfinder/internal/engine/universe"
	"classfinder/internal/shared/observability"
)

const defaultCacheSize = 4096

// PermissionPolicy decides what happens when a module cannot be read for
// lack of permission. Strict sessions fail the query; lenient sessions
// treat the module as absent.
type PermissionPolicy struct {
	Strict bool
}

type Options struct {
	Roots []string
	// CacheSize bounds the number of parsed modules kept in memory.
	CacheSize int
	// Workers bounds concurrent root scans during enumeration.
	Workers         int
	Permissions     PermissionPolicy
	LegacyConflicts bool
}

// Session is one resolution session over a fixed root list. Rebuilding
// means closing the session and creating a new one.
type Session struct {
	ID   string
	opts Options
	path *classpath.Path

	modules *lru.Cache[string, *classfile.Descriptor]
	// denied holds strict-policy permission failures for the session.
	denied sync.Map

	indexMu   sync.Mutex
	full      *universe.Index
	versioned *universe.Index
}

func NewSession(opts Options) (*Session, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, *classfile.Descriptor](size)
	if err != nil {
		return nil, fmt.Errorf("create module cache: %w", err)
	}
	s := &Session{
		ID:      uuid.NewString(),
		opts:    opts,
		path:    classpath.NewPath(opts.Roots),
		modules: cache,
	}
	slog.Debug("session created", "session", s.ID, "roots", len(opts.Roots))
	return s, nil
}

// Close releases every archive handle held by the session.
func (s *Session) Close() error {
	return s.path.Close()
}

func (s *Session) observe(ctx context.Context, query string, attrs ...attribute.KeyValue) (context.Context, func()) {
	attrs = append(attrs, attribute.String("session", s.ID))
	ctx, span := observability.Tracer.Start(ctx, "Session."+query, trace.WithAttributes(attrs...))
	start := time.Now()
	return ctx, func() {
		observability.QueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
		span.End()
	}
}

// describe locates and parses a module, caching hits and misses in the
// LRU. Malformed modules read as absent. A permission failure is returned
// only under a strict policy and is remembered for the rest of the session.
func (s *Session) describe(name string) (*classfile.Descriptor, error) {
	if d, ok := s.modules.Get(name); ok {
		return d, nil
	}
	if err, ok := s.denied.Load(name); ok {
		return nil, err.(error)
	}
	d, err := s.load(name)
	if err != nil {
		s.denied.Store(name, err)
		return nil, err
	}
	s.modules.Add(name, d)
	return d, nil
}

func (s *Session) load(name string) (*classfile.Descriptor, error) {
	loc, ok := s.path.Locate(classpath.ModuleFileName(name))
	if !ok {
		return nil, nil
	}
	rc, err := s.path.Open(loc)
	if err != nil {
		return nil, s.permissionError(name, loc, err)
	}
	defer rc.Close()

	d, err := classfile.ReadFrom(rc)
	if err != nil {
		if perr := s.permissionError(name, loc, err); perr != nil {
			return nil, perr
		}
		slog.Debug("treating unreadable module as absent", "name", name, "location", loc.String(), "error", err)
		return nil, nil
	}
	return d, nil
}

// permissionError maps err to a PERMISSION_DENIED error when the policy is
// strict and err stems from missing permissions; otherwise it returns nil.
func (s *Session) permissionError(name string, loc classpath.Location, err error) error {
	if !errors.Is(err, fs.ErrPermission) {
		slog.Debug("module unavailable", "name", name, "location", loc.String(), "error", err)
		return nil
	}
	if !s.opts.Permissions.Strict {
		slog.Debug("permission denied, treating module as absent", "name", name, "location", loc.String())
		return nil
	}
	wrapped := apperrors.Wrap(err, apperrors.CodePermissionDenied, "read module")
	wrapped = apperrors.AddContext(wrapped, apperrors.CtxName, name)
	return apperrors.AddContext(wrapped, apperrors.CtxRoot, loc.Root.ID)
}

// index returns the full universe index, building it on first use.
func (s *Session) index(ctx context.Context) (*universe.Index, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if s.full != nil {
		return s.full, nil
	}
	ix, err := universe.Enumerate(ctx, s.path, nil, universe.Options{Workers: s.opts.Workers})
	if err != nil {
		return nil, fmt.Errorf("enumerate modules: %w", err)
	}
	s.full = ix
	return ix, nil
}

// versionedIndex is index with version attributes attached to every entry.
func (s *Session) versionedIndex(ctx context.Context) (*universe.Index, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if s.versioned != nil {
		return s.versioned, nil
	}
	ix, err := universe.Enumerate(ctx, s.path, nil, universe.Options{Versions: true, Workers: s.opts.Workers})
	if err != nil {
		return nil, fmt.Errorf("enumerate versioned modules: %w", err)
	}
	s.versioned = ix
	return ix, nil
}

// resourceName accepts either a qualified module name or a resource name
// containing '/'.
func resourceName(name string) string {
	if strings.Contains(name, "/") || strings.HasSuffix(name, ".class") {
		return strings.TrimPrefix(name, "/")
	}
	return classpath.ModuleFileName(name)
}
