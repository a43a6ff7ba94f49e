// Package genfiles resolves synthetic generated-source URIs of the form
//
//	scheme://projectId/path?assemblyName=...&typeName=...&hintName=...
//
// to real files under build output directories laid out as
//
//	.../obj/<Configuration>/<TFM>/generated/<assembly>/<type>/<hintFile>
package genfiles

import (
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultStaleAfter is how long the index is trusted before a wholesale
// rescan on the next lookup.
const DefaultStaleAfter = 30 * time.Second

// Entry is one on-disk candidate for a generated file.
type Entry struct {
	Path      string
	IsDebug   bool
	LastWrite time.Time
}

type key struct {
	assembly string
	typeName string
	hint     string
}

// Resolver maintains the exact-URI cache and the composite-key index over
// build output directories.
type Resolver struct {
	scheme string
	logger *log.Logger

	mu         sync.Mutex
	roots      []string
	byURI      map[string]string
	index      map[key][]Entry
	lastScan   time.Time
	staleAfter time.Duration
	scans      int64

	watcher *watcher
}

// NewResolver is
func NewResolver(scheme string, roots []string, logger *log.Logger) *Resolver {
	return &Resolver{
		scheme:     scheme,
		logger:     logger,
		roots:      roots,
		byURI:      make(map[string]string),
		index:      make(map[key][]Entry),
		staleAfter: DefaultStaleAfter,
	}
}

// SetRoots replaces the scan roots and invalidates everything derived from
// them; the next lookup rebuilds the index.
func (r *Resolver) SetRoots(roots []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roots = append([]string(nil), roots...)
	r.byURI = make(map[string]string)
	r.index = make(map[key][]Entry)
	r.lastScan = time.Time{}
}

// Scans reports how many full index scans have run.
func (r *Resolver) Scans() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scans
}

// Resolve maps a synthetic URI to a real path. The second return is false
// when the URI is not ours to rewrite or resolution is ambiguous; callers
// leave the URI untransformed in that case.
func (r *Resolver) Resolve(rawURI string) (string, bool) {
	u, err := url.Parse(rawURI)
	if err != nil || u.Scheme != r.scheme {
		return "", false
	}

	r.mu.Lock()
	cached, ok := r.byURI[rawURI]
	r.mu.Unlock()
	if ok {
		if _, err := os.Stat(cached); err == nil {
			return cached, true
		}
		r.mu.Lock()
		delete(r.byURI, rawURI)
		r.mu.Unlock()
	}

	r.refreshIfStale()

	q := u.Query()
	k := key{
		assembly: q.Get("assemblyName"),
		typeName: q.Get("typeName"),
		hint:     filepath.Base(q.Get("hintName")),
	}
	if k.assembly == "" || k.hint == "" {
		return "", false
	}

	r.mu.Lock()
	candidates := append([]Entry(nil), r.index[k]...)
	r.mu.Unlock()
	if len(candidates) == 0 {
		return "", false
	}

	path, ok := choose(candidates, u.Host)
	if !ok {
		if r.logger != nil {
			r.logger.Printf("genfiles: %d ambiguous candidates for %s, leaving URI untransformed", len(candidates), rawURI)
		}
		return "", false
	}

	r.mu.Lock()
	r.byURI[rawURI] = path
	r.mu.Unlock()
	return path, true
}

// choose applies the selection policy: collapse configuration variants of
// the same logical file (Debug preferred, then newest), then require either
// a unique candidate containing the project id or a unique candidate
// overall.
func choose(candidates []Entry, projectID string) (string, bool) {
	groups := make(map[string]Entry)
	var order []string
	for _, e := range candidates {
		g := configInsensitivePath(e.Path)
		cur, ok := groups[g]
		if !ok {
			groups[g] = e
			order = append(order, g)
			continue
		}
		if better(e, cur) {
			groups[g] = e
		}
	}

	winners := make([]Entry, 0, len(order))
	for _, g := range order {
		winners = append(winners, groups[g])
	}

	if projectID != "" {
		var matched []Entry
		for _, e := range winners {
			if strings.Contains(e.Path, projectID) {
				matched = append(matched, e)
			}
		}
		if len(matched) == 1 {
			return matched[0].Path, true
		}
	}
	if len(winners) == 1 {
		return winners[0].Path, true
	}
	return "", false
}

func better(a, b Entry) bool {
	if a.IsDebug != b.IsDebug {
		return a.IsDebug
	}
	return a.LastWrite.After(b.LastWrite)
}

// configInsensitivePath removes the configuration segment so Debug/Release
// variants of one generated file group together.
func configInsensitivePath(path string) string {
	elems := strings.Split(filepath.ToSlash(path), "/")
	for i := 0; i+4 < len(elems); i++ {
		if elems[i] == "obj" && containsAt(elems, i+3, "generated") {
			trimmed := append(append([]string{}, elems[:i+1]...), elems[i+2:]...)
			return strings.Join(trimmed, "/")
		}
	}
	return filepath.ToSlash(path)
}

func containsAt(elems []string, i int, want string) bool {
	return i < len(elems) && elems[i] == want
}

// refreshIfStale rescans the roots when the index has gone stale. The scan
// runs against a copy of the roots without holding the lock.
func (r *Resolver) refreshIfStale() {
	r.mu.Lock()
	stale := time.Since(r.lastScan) > r.staleAfter
	r.mu.Unlock()
	if stale {
		r.Rescan()
	}
}

// Rescan rebuilds the composite-key index wholesale.
func (r *Resolver) Rescan() {
	r.mu.Lock()
	roots := append([]string(nil), r.roots...)
	r.mu.Unlock()

	fresh := make(map[key][]Entry)
	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				return nil
			}
			k, entry, ok := parseGeneratedPath(path)
			if !ok {
				return nil
			}
			if info, err := d.Info(); err == nil {
				entry.LastWrite = info.ModTime()
			}
			fresh[k] = append(fresh[k], entry)
			return nil
		})
	}

	r.mu.Lock()
	r.index = fresh
	r.byURI = make(map[string]string)
	r.lastScan = time.Now()
	r.scans++
	r.mu.Unlock()
}

// HandleFileEvent applies one file-system change to the index. An event
// under the roots that cannot be parsed into a valid key forces a full
// rescan instead of being ignored.
func (r *Resolver) HandleFileEvent(path string, deleted bool) {
	k, entry, ok := parseGeneratedPath(path)
	if !ok {
		if r.underGeneratedTree(path) {
			r.Rescan()
		}
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.index[k]
	if deleted {
		kept := entries[:0]
		for _, e := range entries {
			if e.Path != path {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(r.index, k)
		} else {
			r.index[k] = kept
		}
		for uri, p := range r.byURI {
			if p == path {
				delete(r.byURI, uri)
			}
		}
		return
	}

	if info, err := os.Stat(path); err == nil {
		entry.LastWrite = info.ModTime()
	} else {
		return
	}
	for i, e := range entries {
		if e.Path == path {
			entries[i] = entry
			r.index[k] = entries
			return
		}
	}
	r.index[k] = append(entries, entry)
}

// underGeneratedTree reports whether path sits inside a generated output
// tree, meaning a parse failure is worth a rescan rather than noise from an
// unrelated file.
func (r *Resolver) underGeneratedTree(path string) bool {
	p := filepath.ToSlash(path)
	return strings.Contains(p, "/obj/") && strings.Contains(p, "/generated/")
}

// parseGeneratedPath extracts the composite key from a path shaped like
// .../obj/<Configuration>/<TFM>/generated/<assembly>/<type>/<hintFile>.
func parseGeneratedPath(path string) (key, Entry, bool) {
	elems := strings.Split(filepath.ToSlash(path), "/")
	for i := len(elems) - 1; i >= 0; i-- {
		if elems[i] != "generated" {
			continue
		}
		// obj/<Config>/<TFM> must precede, assembly/type/hint must follow.
		if i < 3 || elems[i-3] != "obj" {
			continue
		}
		if len(elems) != i+4 {
			continue
		}
		config := elems[i-2]
		return key{
				assembly: elems[i+1],
				typeName: elems[i+2],
				hint:     elems[i+3],
			}, Entry{
				Path:    path,
				IsDebug: strings.EqualFold(config, "Debug"),
			}, true
	}
	return key{}, Entry{}, false
}
