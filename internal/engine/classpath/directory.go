package classpath

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DirectoryResolver resolves resources below a directory root.
type DirectoryResolver struct {
	root Root
}

func (d *DirectoryResolver) Root() Root {
	return d.root
}

// file maps a slash-separated resource name to a path below the root. Names
// that would escape the root are rejected.
func (d *DirectoryResolver) file(name string) (string, bool) {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "", false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", false
		}
	}
	return filepath.Join(d.root.ID, filepath.FromSlash(name)), true
}

func (d *DirectoryResolver) Resolve(name string) (Location, bool) {
	file, ok := d.file(name)
	if !ok {
		return Location{}, false
	}
	info, err := os.Stat(file)
	if err != nil || !info.Mode().IsRegular() {
		return Location{}, false
	}
	return Location{Root: d.root, Name: strings.TrimPrefix(name, "/")}, true
}

func (d *DirectoryResolver) Open(name string) (io.ReadCloser, error) {
	file, ok := d.file(name)
	if !ok {
		return nil, fmt.Errorf("resource %q escapes root %s", name, d.root.ID)
	}
	return os.Open(file)
}

func (d *DirectoryResolver) Stat(name string) (Info, error) {
	file, ok := d.file(name)
	if !ok {
		return Info{}, fmt.Errorf("resource %q escapes root %s", name, d.root.ID)
	}
	info, err := os.Stat(file)
	if err != nil {
		return Info{}, err
	}
	return Info{Size: info.Size(), Modified: info.ModTime()}, nil
}

func (d *DirectoryResolver) Close() error {
	return nil
}
