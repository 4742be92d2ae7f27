package classpath

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

const manifestName = "META-INF/MANIFEST.MF"

// ArchiveResolver resolves resources inside a zip or jar archive. The
// archive handle stays open until Close.
type ArchiveResolver struct {
	root  Root
	rc    *zip.ReadCloser
	files map[string]*zip.File
	order []*zip.File
	extra []string
}

// OpenArchive opens the archive at id and reads its manifest class path.
func OpenArchive(id string) (*ArchiveResolver, error) {
	rc, err := zip.OpenReader(id)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", id, err)
	}
	a := &ArchiveResolver{
		root:  Root{ID: id, Kind: KindArchive},
		rc:    rc,
		files: make(map[string]*zip.File, len(rc.File)),
	}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if _, dup := a.files[f.Name]; dup {
			continue
		}
		a.files[f.Name] = f
		a.order = append(a.order, f)
	}
	if mf, ok := a.files[manifestName]; ok {
		a.extra = a.readManifestClassPath(mf)
	}
	return a, nil
}

func (a *ArchiveResolver) Root() Root {
	return a.root
}

// Files returns the archive's non-directory entries in archive order.
func (a *ArchiveResolver) Files() []*zip.File {
	return a.order
}

// ExtraRoots returns the canonical identities declared by the manifest's
// Class-Path attribute, in declaration order.
func (a *ArchiveResolver) ExtraRoots() []string {
	return a.extra
}

func (a *ArchiveResolver) Resolve(name string) (Location, bool) {
	name = strings.TrimPrefix(name, "/")
	if _, ok := a.files[name]; !ok {
		return Location{}, false
	}
	return Location{Root: a.root, Name: name}, true
}

func (a *ArchiveResolver) Open(name string) (io.ReadCloser, error) {
	f, ok := a.files[strings.TrimPrefix(name, "/")]
	if !ok {
		return nil, fmt.Errorf("%s: no entry %q", a.root.ID, name)
	}
	return f.Open()
}

func (a *ArchiveResolver) Stat(name string) (Info, error) {
	f, ok := a.files[strings.TrimPrefix(name, "/")]
	if !ok {
		return Info{}, fmt.Errorf("%s: no entry %q", a.root.ID, name)
	}
	return EntryInfo(f), nil
}

func (a *ArchiveResolver) Close() error {
	return a.rc.Close()
}

// EntryInfo reports the stored size, timestamp and checksum of an entry.
func EntryInfo(f *zip.File) Info {
	return Info{
		Size:     int64(f.UncompressedSize64),
		Modified: f.Modified,
		CRC32:    f.CRC32,
	}
}

func (a *ArchiveResolver) readManifestClassPath(f *zip.File) []string {
	r, err := f.Open()
	if err != nil {
		slog.Debug("unreadable manifest", "root", a.root.ID, "error", err)
		return nil
	}
	defer r.Close()

	value, err := ManifestClassPath(r)
	if err != nil {
		slog.Debug("unreadable manifest", "root", a.root.ID, "error", err)
		return nil
	}
	return resolveClassPath(filepath.Dir(a.root.ID), value)
}

// ManifestClassPath returns the Class-Path attribute of the manifest's main
// section, with continuation lines folded. It returns "" when absent.
func ManifestClassPath(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			break // end of main section
		}
		if strings.HasPrefix(line, " ") && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), "Class-Path") {
			return strings.TrimSpace(value), nil
		}
	}
	return "", nil
}

// resolveClassPath turns space separated relative URLs into canonical root
// identities below base. Non-file URLs are ignored.
func resolveClassPath(base, value string) []string {
	var out []string
	for _, token := range strings.Fields(value) {
		p := token
		if u, err := url.Parse(token); err == nil && len(u.Scheme) != 1 {
			if u.Scheme != "" && u.Scheme != "file" {
				slog.Debug("ignoring non-file class path entry", "entry", token)
				continue
			}
			p = u.Path
		}
		if p == "" {
			continue
		}
		if !filepath.IsAbs(filepath.FromSlash(p)) {
			p = filepath.Join(base, filepath.FromSlash(p))
		}
		out = append(out, Canonical(p))
	}
	return out
}
