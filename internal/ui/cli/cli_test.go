package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"classfinder/internal/core/app"
	"classfinder/internal/data/history"
	"classfinder/internal/engine/classpath"
	"classfinder/internal/engine/classpath/classpathtest"
)

// syncBuffer is a bytes.Buffer safe for the watcher goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr syncBuffer
	code := Run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	return classpathtest.Dir(t, classpathtest.File{
		"com/x/Foo.class":    classpathtest.Class("com.x.Foo", "com.x.Base", "java.io.Serializable"),
		"com/x/Base.class":   classpathtest.Class("com.x.Base", ""),
		"com/x/sub/S.class":  classpathtest.Class("com.x.sub.S", "com.x.Foo"),
		"META-INF/notes.txt": []byte("notes"),
	})
}

func TestRun_Find(t *testing.T) {
	dir := fixtureDir(t)
	want := filepath.Join(classpath.Canonical(dir), "com", "x", "Foo.class")

	code, out, stderr := run(t, "", "--classpath", dir, "find", "com.x.Foo")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(out, want) {
		t.Fatalf("expected %s in output:\n%s", want, out)
	}

	code, out, _ = run(t, "", "--classpath", dir, "find", "META-INF/notes.txt")
	if code != 0 || !strings.Contains(out, "notes.txt") {
		t.Fatalf("resource lookup failed: %d %s", code, out)
	}

	code, _, stderr = run(t, "", "--classpath", dir, "find", "com.x.Missing")
	if code != 1 {
		t.Fatalf("expected exit 1 for missing module, got %d", code)
	}
	if !strings.Contains(stderr, "com.x.Missing not found") {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
}

func TestRun_ClasspathFromStdin(t *testing.T) {
	dir := fixtureDir(t)

	code, out, stderr := run(t, dir+"\n", "roots")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(out, classpath.Canonical(dir)) || !strings.Contains(out, "directory") {
		t.Fatalf("expected stdin root in output:\n%s", out)
	}

	code, _, stderr = run(t, "", "roots")
	if code != 2 {
		t.Fatalf("expected usage exit for empty class path, got %d (%s)", code, stderr)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	dir := fixtureDir(t)
	for name, args := range map[string][]string{
		"missing arg":  {"--classpath", dir, "find"},
		"extra args":   {"--classpath", dir, "roots", "x"},
		"unknown flag": {"--classpath", dir, "--bogus", "roots"},
	} {
		t.Run(name, func(t *testing.T) {
			if code, _, stderr := run(t, "", args...); code != 2 {
				t.Fatalf("expected exit 2, got %d: %s", code, stderr)
			}
		})
	}
}

func TestRun_HierarchyQueries(t *testing.T) {
	dir := fixtureDir(t)

	code, out, stderr := run(t, "", "--classpath", dir, "super", "com.x.sub.S")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{"com.x.Foo", "com.x.Base", "java.io.Serializable", "java.lang.Object"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in supertypes:\n%s", want, out)
		}
	}

	code, out, _ = run(t, "", "--classpath", dir, "sub", "com.x.Base")
	if code != 0 || !strings.Contains(out, "com.x.Foo") || !strings.Contains(out, "com.x.sub.S") {
		t.Fatalf("unexpected subtypes (%d):\n%s", code, out)
	}

	code, out, _ = run(t, "", "--classpath", dir, "package", "com.x", "--direct")
	if code != 0 || strings.Contains(out, "com.x.sub.S") || !strings.Contains(out, "com.x.Base") {
		t.Fatalf("unexpected direct package listing (%d):\n%s", code, out)
	}

	code, out, _ = run(t, "", "--classpath", dir, "group", "Fo?", "--names")
	if code != 0 || !strings.Contains(out, "com.x.Foo") || strings.Contains(out, "com.x.Base") {
		t.Fatalf("unexpected group output (%d):\n%s", code, out)
	}

	code, out, _ = run(t, "", "--classpath", dir, "depend", "com.x.sub.S")
	if code != 0 || !strings.Contains(out, "Unresolved") || !strings.Contains(out, "java.lang.Object") {
		t.Fatalf("unexpected dependency output (%d):\n%s", code, out)
	}
}

func TestRun_InvalidQuery(t *testing.T) {
	dir := fixtureDir(t)

	code, _, stderr := run(t, "", "--classpath", dir, "mref", "noDot")
	if code != 2 {
		t.Fatalf("expected usage exit 2, got %d", code)
	}
	if !strings.Contains(stderr, "not a qualified method name") {
		t.Fatalf("unexpected stderr: %s", stderr)
	}

	code, _, stderr = run(t, "", "--classpath", dir, "-v", "fref", "noDot")
	if code != 2 {
		t.Fatalf("expected usage exit 2 for fref, got %d", code)
	}
	if !strings.Contains(stderr, "INVALID_QUERY") {
		t.Fatalf("verbose errors should carry the code: %s", stderr)
	}
}

func TestRun_DuplicatesAndConflicts(t *testing.T) {
	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	a := classpathtest.Dir(t, classpathtest.File{
		"com/x/Foo.class":  classpathtest.Class("com.x.Foo", ""),
		"com/x/Same.class": classpathtest.Class("com.x.Same", ""),
	})
	b := classpathtest.Dir(t, classpathtest.File{
		"com/x/Foo.class":  classpathtest.Class("com.x.Foo", "", "java.io.Serializable"),
		"com/x/Same.class": classpathtest.Class("com.x.Same", ""),
	})
	for _, dir := range []string{a, b} {
		for _, name := range []string{"com/x/Foo.class", "com/x/Same.class"} {
			if err := os.Chtimes(filepath.Join(dir, name), older, older); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := os.Chtimes(filepath.Join(b, "com/x/Foo.class"), newer, newer); err != nil {
		t.Fatal(err)
	}
	cp := a + string(os.PathListSeparator) + b

	code, out, stderr := run(t, "", "--classpath", cp, "duplicate")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(out, "com.x.Foo") || !strings.Contains(out, "com.x.Same") {
		t.Fatalf("expected both duplicates:\n%s", out)
	}

	_, out, _ = run(t, "", "--classpath", cp, "conflict")
	if !strings.Contains(out, "com.x.Foo") || strings.Contains(out, "com.x.Same") {
		t.Fatalf("expected only the differing module:\n%s", out)
	}
	if !strings.Contains(out, "2020-01-03T00:00:00Z") {
		t.Fatalf("expected version timestamp in output:\n%s", out)
	}

	_, out, _ = run(t, "", "--classpath", cp, "conflictset", "--all")
	if !strings.Contains(out, classpath.Canonical(a)) || !strings.Contains(out, "com.x.Same") {
		t.Fatalf("unexpected conflict sets:\n%s", out)
	}

	_, out, _ = run(t, "", "--classpath", cp, "duplicateset", "Foo")
	if !strings.Contains(out, classpath.Canonical(b)) || strings.Contains(out, "com.x.Same") {
		t.Fatalf("unexpected duplicate sets:\n%s", out)
	}
}

func TestRun_OriginThroughManifest(t *testing.T) {
	tmp := t.TempDir()
	lib := filepath.Join(tmp, "lib.jar")
	classpathtest.Jar(t, lib, classpathtest.File{
		"com/y/Lib.class": classpathtest.Class("com.y.Lib", ""),
	}, "")
	appJar := filepath.Join(tmp, "app.jar")
	classpathtest.Jar(t, appJar, classpathtest.File{
		"com/y/App.class": classpathtest.Class("com.y.App", ""),
	}, "lib.jar")

	code, out, stderr := run(t, "", "--classpath", appJar, "origin", "com.y.Lib")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	appIdx := strings.Index(out, classpath.Canonical(appJar))
	libIdx := strings.Index(out, classpath.Canonical(lib))
	if appIdx < 0 || libIdx < 0 || appIdx > libIdx {
		t.Fatalf("expected app.jar then lib.jar:\n%s", out)
	}

	code, _, _ = run(t, "", "--classpath", appJar, "origin", "com.y.Nope")
	if code != 1 {
		t.Fatalf("expected exit 1 for unknown origin, got %d", code)
	}
}

func TestRun_StringsAndReferences(t *testing.T) {
	dir := fixtureDir(t)

	code, out, stderr := run(t, "", "--classpath", dir, "ref", "com.x.Base")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(out, "com.x.Foo") {
		t.Fatalf("expected com.x.Foo to reference com.x.Base:\n%s", out)
	}

	code, out, _ = run(t, "", "--classpath", dir, "strings", "nothing-matches")
	if code != 0 || !strings.Contains(out, "(0)") {
		t.Fatalf("expected empty constants report (%d):\n%s", code, out)
	}
}

func TestRun_CyclesAndWhy(t *testing.T) {
	dir := fixtureDir(t)

	code, out, stderr := run(t, "", "--classpath", dir, "why", "com.x.sub.S", "com.x.Base")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(out, "com.x.sub.S -> com.x.Foo -> com.x.Base") {
		t.Fatalf("unexpected chain:\n%s", out)
	}

	code, _, stderr = run(t, "", "--classpath", dir, "why", "com.x.Base", "com.x.sub.S")
	if code != 1 || !strings.Contains(stderr, "does not depend on") {
		t.Fatalf("expected exit 1 for unrelated modules, got %d: %s", code, stderr)
	}

	code, out, _ = run(t, "", "--classpath", dir, "cycles", "com.x")
	if code != 0 || !strings.Contains(out, "Cycles") || !strings.Contains(out, "(0)") {
		t.Fatalf("expected no cycles (%d):\n%s", code, out)
	}
}

func TestRun_ConfigAndHistory(t *testing.T) {
	dir := fixtureDir(t)
	cfgDir := t.TempDir()
	cfgPath := filepath.Join(cfgDir, "classfinder.toml")
	body := "classpath = [" + quote(dir) + "]\n\n[history]\npath = \"state/history.db\"\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, stderr := run(t, "", "--config", cfgPath, "history", "--record")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(out, "History") {
		t.Fatalf("expected trend output:\n%s", out)
	}

	report := filepath.Join(t.TempDir(), "out", "trend.json")
	code, _, stderr = run(t, "", "--config", cfgPath, "history", "--record", "-o", report)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	raw, err := os.ReadFile(report)
	if err != nil {
		t.Fatal(err)
	}
	var decoded history.TrendReport
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.ScanCount != 2 || decoded.Points[1].ModuleCount != 3 {
		t.Fatalf("unexpected trend report: %+v", decoded)
	}
	if _, err := os.Stat(filepath.Join(cfgDir, "state", "history.db")); err != nil {
		t.Fatalf("history path should resolve against the config dir: %v", err)
	}

	code, _, _ = run(t, "", "--config", cfgPath, "history", "--since", "yesterday")
	if code != 2 {
		t.Fatalf("expected usage exit for bad --since, got %d", code)
	}
}

func TestRun_Summary(t *testing.T) {
	dir := fixtureDir(t)
	code, out, stderr := run(t, "", "--classpath", dir, "summary")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(out, "modules     3") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}

func TestRun_Watch(t *testing.T) {
	dir := fixtureDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- Run(ctx, []string{"--classpath", dir, "watch"}, strings.NewReader(""), &stdout, &stderr)
	}()

	waitFor(t, func() bool { return strings.Count(stdout.String(), "Session ") >= 1 })
	time.Sleep(100 * time.Millisecond)

	classFile := filepath.Join(dir, "com", "x", "Extra.class")
	if err := os.WriteFile(classFile, classpathtest.Class("com.x.Extra", ""), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return strings.Contains(stdout.String(), "modules     4") })

	cancel()
	select {
	case code := <-done:
		if code != 0 {
			t.Fatalf("watch exited %d: %s", code, stderr.String())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestObservabilityServer_Handler(t *testing.T) {
	var current *app.Session
	srv := NewObservabilityServer("127.0.0.1:0", app.NewHealthService(func() *app.Session { return current }))
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a session, got %d", rec.Code)
	}

	s, err := app.NewSession(app.Options{Roots: []string{fixtureDir(t)}})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	current = s

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), s.ID) {
		t.Fatalf("unexpected health response %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "classfinder_") {
		t.Fatalf("unexpected metrics response %d", rec.Code)
	}

	limited := false
	for i := 0; i < 40; i++ {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected rate limiting for a single client")
	}
}

func TestObservabilityServer_StartStop(t *testing.T) {
	srv := NewObservabilityServer("127.0.0.1:0", app.NewHealthService(nil))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if err := srv.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
}
