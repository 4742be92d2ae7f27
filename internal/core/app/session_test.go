package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "classfinder/internal/core/errors"
	"classfinder/internal/engine/classfile/classfiletest"
	"classfinder/internal/engine/classpath"
	"classfinder/internal/engine/classpath/classpathtest"
)

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	s, err := NewSession(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSession_SupertypesAcrossRoots(t *testing.T) {
	dirA := classpathtest.Dir(t, classpathtest.File{
		"com/x/Foo.class": classpathtest.Class("com.x.Foo", "com.x.Bar"),
	})
	dirB := classpathtest.Dir(t, classpathtest.File{
		"com/x/Bar.class": classpathtest.Class("com.x.Bar", ""),
	})
	s := newTestSession(t, Options{Roots: []string{dirA, dirB}})

	got, err := s.Supertypes(context.Background(), "com.x.Foo", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.x.Bar", "java.lang.Object"}, got)

	got, err = s.Supertypes(context.Background(), "com.x.Foo", "com.x")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.x.Bar"}, got)
}

func TestSession_Lookup(t *testing.T) {
	dir := classpathtest.Dir(t, classpathtest.File{
		"com/x/Foo.class":      classpathtest.Class("com.x.Foo", ""),
		"com/x/FooBar.class":   classpathtest.Class("com.x.FooBar", ""),
		"com/x/sub/Foo.class":  classpathtest.Class("com.x.sub.Foo", ""),
		"org/y/Other.class":    classpathtest.Class("org.y.Other", ""),
		"META-INF/readme.txt":  []byte("hello"),
	})
	s := newTestSession(t, Options{Roots: []string{dir}})
	ctx := context.Background()

	names, err := s.LookupModules(ctx, "Foo*")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.x.Foo", "com.x.FooBar", "com.x.sub.Foo"}, names)

	names, err = s.LookupModules(ctx, "com.x.Foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.x.Foo"}, names)

	names, err = s.LookupModules(ctx, "com.x.Missing")
	require.NoError(t, err)
	assert.Empty(t, names)

	groups, err := s.LookupModulesWithLocations(ctx, "com.x.*")
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "com.x.Foo", groups[0].Name)
	assert.Len(t, groups[0].Locations, 1)

	pkg, err := s.PackageModules(ctx, "com.x", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.x.Foo", "com.x.FooBar"}, pkg)

	pkg, err = s.PackageModules(ctx, "com.x", false)
	require.NoError(t, err)
	assert.Len(t, pkg, 3)

	loc, ok := s.LocateResource("META-INF/readme.txt")
	require.True(t, ok)
	assert.Equal(t, classpath.Canonical(dir), loc.Root.ID)
	assert.Len(t, s.FindResources("/META-INF/readme.txt"), 1)
}

func TestSession_DuplicatesAndConflicts(t *testing.T) {
	var roots []string
	for i, stamp := range []time.Time{
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	} {
		dir := classpathtest.Dir(t, classpathtest.File{
			"com/x/X.class": []byte(fmt.Sprintf("%0*d", i+1, 0)),
			"com/x/Z.class": []byte("same"),
		})
		require.NoError(t, os.Chtimes(filepath.Join(dir, "com/x/X.class"), stamp, stamp))
		roots = append(roots, dir)
	}
	s := newTestSession(t, Options{Roots: roots})
	ctx := context.Background()

	dups, err := s.Duplicates(ctx, "X")
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Len(t, dups[0].Locations, 3)

	dups, err = s.Duplicates(ctx, "")
	require.NoError(t, err)
	assert.Len(t, dups, 2)

	conflicts, err := s.Conflicts(ctx, "com.x.*", false)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "com.x.X", conflicts[0].Name)

	conflicts, err = s.Conflicts(ctx, "com.x.*", true)
	require.NoError(t, err)
	assert.Len(t, conflicts, 2)

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.ID, sum.SessionID)
	assert.Equal(t, 3, sum.Roots)
	assert.Equal(t, 2, sum.Modules)
	assert.Equal(t, 2, sum.Duplicates)
	assert.Equal(t, 1, sum.Conflicts)
}

func TestSession_LegacyConflicts(t *testing.T) {
	a := classpathtest.Dir(t, classpathtest.File{"com/x/Z.class": []byte("same")})
	b := classpathtest.Dir(t, classpathtest.File{"com/x/Z.class": []byte("same")})
	s := newTestSession(t, Options{Roots: []string{a, b}, LegacyConflicts: true})

	conflicts, err := s.Conflicts(context.Background(), "", false)
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)
}

func TestSession_DependenciesSkipMalformed(t *testing.T) {
	dir := classpathtest.Dir(t, classpathtest.File{
		"com/x/A.class":      classfiletest.New("com/x/A").Field("b", "Lcom/x/B;").Field("c", "Lcom/x/Broken;").Bytes(),
		"com/x/B.class":      classpathtest.Class("com.x.B", ""),
		"com/x/Broken.class": []byte("garbage"),
	})
	s := newTestSession(t, Options{Roots: []string{dir}})

	found, unresolved, err := s.Dependencies(context.Background(), "com.x.A")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.x.A", "com.x.B"}, found)
	assert.Equal(t, []string{"com.x.Broken", "java.lang.Object"}, unresolved)

	d1, err := s.describe("com.x.B")
	require.NoError(t, err)
	d2, err := s.describe("com.x.B")
	require.NoError(t, err)
	assert.Same(t, d1, d2)
}

func TestSession_References(t *testing.T) {
	dir := classpathtest.Dir(t, classpathtest.File{
		"com/x/User.class": classfiletest.New("com/x/User").
			MethodRef("com/y/Svc", "call", "()V").
			FieldRef("com/y/Conf", "LIMIT", "I").
			String("jdbc:h2:mem").
			Bytes(),
		"com/y/Svc.class": classfiletest.New("com/y/Svc").Method("call", "()V").Bytes(),
	})
	s := newTestSession(t, Options{Roots: []string{dir}})
	ctx := context.Background()

	refs, err := s.ReferencedBy(ctx, "com.y.Svc", "com.x")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.x.User"}, refs)

	refs, err = s.ReferencedByMethod(ctx, "com.y.Svc.call", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.x.User", "com.y.Svc"}, refs)

	refs, err = s.ReferencedByField(ctx, "com.y.Conf.LIMIT", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.x.User"}, refs)

	_, err = s.ReferencedByMethod(ctx, "call", "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidQuery))

	subs, err := s.Subtypes(ctx, "com.y.Svc", "")
	require.NoError(t, err)
	assert.Empty(t, subs)

	consts, err := s.Constants(ctx, "jdbc", "")
	require.NoError(t, err)
	assert.Equal(t, []ConstantMatch{{Name: "com.x.User", Strings: []string{"jdbc:h2:mem"}}}, consts)
}

func TestSession_CyclesAndDependencyPath(t *testing.T) {
	dir := classpathtest.Dir(t, classpathtest.File{
		"com/x/A.class": classfiletest.New("com/x/A").Field("b", "Lcom/x/B;").Bytes(),
		"com/x/B.class": classfiletest.New("com/x/B").Field("a", "Lcom/x/A;").Bytes(),
		"com/x/C.class": classfiletest.New("com/x/C").Field("a", "Lcom/x/A;").Bytes(),
	})
	s := newTestSession(t, Options{Roots: []string{dir}})
	ctx := context.Background()

	cycles, err := s.Cycles(ctx, "com.x")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"com.x.A", "com.x.B"}}, cycles)

	path, ok, err := s.DependencyPath(ctx, "com.x.C", "com.x.B")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"com.x.C", "com.x.A", "com.x.B"}, path)

	_, ok, err = s.DependencyPath(ctx, "com.x.A", "com.x.C")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_OriginStackAndRoots(t *testing.T) {
	base := t.TempDir()
	inner := classpathtest.Jar(t, filepath.Join(base, "lib", "inner.jar"),
		classpathtest.File{"com/y/Deep.class": classpathtest.Class("com.y.Deep", "")}, "")
	outer := classpathtest.Jar(t, filepath.Join(base, "outer.jar"),
		classpathtest.File{"com/x/Top.class": classpathtest.Class("com.x.Top", "")}, "lib/inner.jar")
	s := newTestSession(t, Options{Roots: []string{outer}})
	ctx := context.Background()

	stack, err := s.OriginStack(ctx, "com.y.Deep")
	require.NoError(t, err)
	require.Len(t, stack, 2)
	assert.Equal(t, classpath.Canonical(outer), stack[0].ID)
	assert.Equal(t, classpath.Canonical(inner), stack[1].ID)

	stack, err = s.OriginStack(ctx, "com/y/Deep.class")
	require.NoError(t, err)
	assert.Len(t, stack, 2)

	stack, err = s.OriginStack(ctx, "com.none.Missing")
	require.NoError(t, err)
	assert.Empty(t, stack)

	roots := s.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, classpath.KindArchive, roots[1].Kind)
}

func TestSession_PermissionPolicy(t *testing.T) {
	denied := &fs.PathError{Op: "open", Path: "/x/A.class", Err: fs.ErrPermission}
	loc := classpath.Location{Root: classpath.Root{ID: "/x"}, Name: "A.class"}

	lenient := newTestSession(t, Options{})
	assert.NoError(t, lenient.permissionError("A", loc, denied))

	strict := newTestSession(t, Options{Permissions: PermissionPolicy{Strict: true}})
	err := strict.permissionError("A", loc, denied)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePermissionDenied))
	assert.ErrorIs(t, err, fs.ErrPermission)

	assert.NoError(t, strict.permissionError("A", loc, fs.ErrNotExist))
}

func TestSession_PermissionFailureCached(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file modes do not deny access here")
	}
	dir := classpathtest.Dir(t, classpathtest.File{
		"com/x/Locked.class": classpathtest.Class("com.x.Locked", ""),
	})
	file := filepath.Join(dir, "com", "x", "Locked.class")
	require.NoError(t, os.Chmod(file, 0))
	t.Cleanup(func() { _ = os.Chmod(file, 0o644) })

	s := newTestSession(t, Options{Roots: []string{dir}, Permissions: PermissionPolicy{Strict: true}})
	_, err := s.describe("com.x.Locked")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePermissionDenied))

	require.NoError(t, os.Chmod(file, 0o644))
	_, again := s.describe("com.x.Locked")
	assert.Same(t, err, again)
}

func TestSession_UniqueIDs(t *testing.T) {
	a := newTestSession(t, Options{})
	b := newTestSession(t, Options{})
	assert.NotEqual(t, a.ID, b.ID)
	assert.Empty(t, a.Roots())
}
