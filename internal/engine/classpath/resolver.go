package classpath

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	apperrors "classfinder/internal/core/errors"
)

// Resolver answers whether one root contains a resource. The only
// implementations are *DirectoryResolver and *ArchiveResolver.
type Resolver interface {
	Root() Root
	Resolve(name string) (Location, bool)
	Open(name string) (io.ReadCloser, error)
	Stat(name string) (Info, error)
	Close() error
}

// Location identifies exactly one found resource.
type Location struct {
	Root Root
	Name string
}

func (l Location) String() string {
	if l.Root.Kind == KindArchive {
		return l.Root.ID + "!/" + l.Name
	}
	return filepath.Join(l.Root.ID, filepath.FromSlash(l.Name))
}

// Info carries the attributes used for version comparison. CRC32 is zero
// when the root cannot supply one.
type Info struct {
	Size     int64
	Modified time.Time
	CRC32    uint32
}

// openResolver realizes the resolver for a canonical root identity.
func openResolver(id string) (Resolver, error) {
	kind, err := statKind(id)
	if err != nil {
		return nil, apperrors.AddContext(
			apperrors.Wrap(err, apperrors.CodeRootUnavailable, "stat root"), apperrors.CtxRoot, id)
	}
	switch kind {
	case KindDirectory:
		return &DirectoryResolver{root: Root{ID: id, Kind: KindDirectory}}, nil
	case KindArchive:
		return OpenArchive(id)
	default:
		return nil, fmt.Errorf("root %s has unknown kind %d", id, kind)
	}
}
