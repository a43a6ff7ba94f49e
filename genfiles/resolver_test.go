package genfiles

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeGenerated(t *testing.T, root, project, config, tfm, assembly, typeName, hint string) string {
	t.Helper()
	dir := filepath.Join(root, project, "obj", config, tfm, "generated", assembly, typeName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, hint)
	if err := os.WriteFile(path, []byte("// generated"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func genURI(project, assembly, typeName, hint string) string {
	return "bridgels-generated://" + project + "/" + hint +
		"?assemblyName=" + assembly + "&typeName=" + typeName + "&hintName=" + hint
}

func TestResolvePrefersDebugConfiguration(t *testing.T) {
	root := t.TempDir()
	debug := writeGenerated(t, root, "App", "Debug", "net8.0", "Foo", "Bar", "Baz.g.cs")
	writeGenerated(t, root, "App", "Release", "net8.0", "Foo", "Bar", "Baz.g.cs")

	r := NewResolver("bridgels-generated", []string{root}, nil)
	path, ok := r.Resolve(genURI("App", "Foo", "Bar", "Baz.g.cs"))
	if !ok {
		t.Fatal("resolution should succeed")
	}
	if path != debug {
		t.Fatalf("Debug candidate should win, got: %s", path)
	}
}

func TestResolveIdempotentAndCached(t *testing.T) {
	root := t.TempDir()
	want := writeGenerated(t, root, "App", "Debug", "net8.0", "Foo", "Bar", "Baz.g.cs")

	r := NewResolver("bridgels-generated", []string{root}, nil)
	uri := genURI("App", "Foo", "Bar", "Baz.g.cs")

	first, ok := r.Resolve(uri)
	if !ok || first != want {
		t.Fatalf("first resolve should yield %s, got %s (%v)", want, first, ok)
	}
	scansAfterFirst := r.Scans()

	second, ok := r.Resolve(uri)
	if !ok || second != first {
		t.Fatalf("second resolve should match first, got %s (%v)", second, ok)
	}
	if r.Scans() != scansAfterFirst {
		t.Fatalf("second resolve should be served from cache, scans went %d -> %d", scansAfterFirst, r.Scans())
	}
}

func TestResolveCacheInvalidatedWhenFileVanishes(t *testing.T) {
	root := t.TempDir()
	path := writeGenerated(t, root, "App", "Debug", "net8.0", "Foo", "Bar", "Baz.g.cs")

	r := NewResolver("bridgels-generated", []string{root}, nil)
	uri := genURI("App", "Foo", "Bar", "Baz.g.cs")
	if _, ok := r.Resolve(uri); !ok {
		t.Fatal("initial resolve should succeed")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	r.HandleFileEvent(path, true)
	r.staleAfter = time.Hour // keep the index; only the cache entry must go

	if _, ok := r.Resolve(uri); ok {
		t.Fatal("resolve should fail after the file disappears")
	}
}

func TestResolveProjectIdentifierDisambiguates(t *testing.T) {
	root := t.TempDir()
	wantA := writeGenerated(t, root, "ProjectA", "Debug", "net8.0", "Foo", "Bar", "Baz.g.cs")
	writeGenerated(t, root, "ProjectB", "Debug", "net8.0", "Foo", "Bar", "Baz.g.cs")

	r := NewResolver("bridgels-generated", []string{root}, nil)
	path, ok := r.Resolve(genURI("ProjectA", "Foo", "Bar", "Baz.g.cs"))
	if !ok {
		t.Fatal("project id substring should disambiguate")
	}
	if path != wantA {
		t.Fatalf("should pick the ProjectA candidate but got: %s", path)
	}
}

func TestResolveAmbiguousRefuses(t *testing.T) {
	root := t.TempDir()
	writeGenerated(t, root, "ProjectA", "Debug", "net8.0", "Foo", "Bar", "Baz.g.cs")
	writeGenerated(t, root, "ProjectB", "Debug", "net8.0", "Foo", "Bar", "Baz.g.cs")

	r := NewResolver("bridgels-generated", []string{root}, nil)
	// The project id matches neither candidate path.
	if _, ok := r.Resolve(genURI("Unrelated", "Foo", "Bar", "Baz.g.cs")); ok {
		t.Fatal("ambiguous resolution should refuse to choose")
	}
}

func TestResolveForeignSchemeUntouched(t *testing.T) {
	r := NewResolver("bridgels-generated", nil, nil)
	if _, ok := r.Resolve("file:///tmp/x.cs"); ok {
		t.Fatal("file URIs are not ours to rewrite")
	}
}

func TestIncrementalAddAndRemove(t *testing.T) {
	root := t.TempDir()
	r := NewResolver("bridgels-generated", []string{root}, nil)
	r.Rescan()
	r.staleAfter = time.Hour

	path := writeGenerated(t, root, "App", "Debug", "net8.0", "Foo", "Bar", "New.g.cs")
	r.HandleFileEvent(path, false)

	got, ok := r.Resolve(genURI("App", "Foo", "Bar", "New.g.cs"))
	if !ok || got != path {
		t.Fatalf("incremental add should be resolvable, got %s (%v)", got, ok)
	}

	r.HandleFileEvent(path, true)
	if _, ok := r.Resolve(genURI("App", "Foo", "Bar", "New.g.cs")); ok {
		t.Fatal("incremental remove should drop the entry")
	}
}

func TestUnparseableEventTriggersRescan(t *testing.T) {
	root := t.TempDir()
	r := NewResolver("bridgels-generated", []string{root}, nil)
	r.Rescan()
	r.staleAfter = time.Hour
	before := r.Scans()

	// Inside a generated tree but not in the assembly/type/hint layout.
	odd := filepath.Join(root, "App", "obj", "Debug", "net8.0", "generated", "stray.tmp")
	r.HandleFileEvent(odd, false)

	if r.Scans() != before+1 {
		t.Fatalf("unparseable event under the tree should rescan, scans went %d -> %d", before, r.Scans())
	}

	// Unrelated paths stay noise.
	r.HandleFileEvent(filepath.Join(root, "README.md"), false)
	if r.Scans() != before+1 {
		t.Fatal("unrelated paths should not trigger rescans")
	}
}

func TestNewestWinsAmongNonDebugConfigurations(t *testing.T) {
	root := t.TempDir()
	older := writeGenerated(t, root, "App", "Release", "net8.0", "Foo", "Bar", "Baz.g.cs")
	newer := writeGenerated(t, root, "App", "Staging", "net8.0", "Foo", "Bar", "Baz.g.cs")
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	r := NewResolver("bridgels-generated", []string{root}, nil)
	path, ok := r.Resolve(genURI("App", "Foo", "Bar", "Baz.g.cs"))
	if !ok {
		t.Fatal("configuration variants of one file should collapse, not be ambiguous")
	}
	if path != newer {
		t.Fatalf("most recently written candidate should win, got: %s", path)
	}
}

func TestDistinctTargetFrameworksAreAmbiguous(t *testing.T) {
	root := t.TempDir()
	writeGenerated(t, root, "App", "Release", "net8.0", "Foo", "Bar", "Baz.g.cs")
	writeGenerated(t, root, "App", "Release", "net9.0", "Foo", "Bar", "Baz.g.cs")

	r := NewResolver("bridgels-generated", []string{root}, nil)
	if _, ok := r.Resolve(genURI("App", "Foo", "Bar", "Baz.g.cs")); ok {
		t.Fatal("distinct TFM candidates should refuse resolution")
	}
}
