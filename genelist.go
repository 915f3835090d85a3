package flotilla

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"

	"github.com/BenLubar/memoize"
	"github.com/carbocation/pfx"
)

// ListLoader resolves names of feature lists (usually gene symbols) to the ids
// they contain. A name is either a key of the configured named lists or is
// itself a location. Each location is fetched once; later lookups, including
// failed ones, are served from the cache. A fetch cut short by its context is
// not cached.
type ListLoader struct {
	loader *Loader
	named  map[string]string
	entry  func(string) *listEntry
}

// listEntry holds the outcome of fetching one location.
type listEntry struct {
	mu   sync.Mutex
	done bool
	ids  []string
	err  error
}

func NewListLoader(loader *Loader, named map[string]string) *ListLoader {
	if loader == nil {
		loader = defaultLoader
	}

	ll := &ListLoader{
		loader: loader,
		named:  named,
	}
	ll.entry = memoize.Memoize(func(string) *listEntry { return &listEntry{} }).(func(string) *listEntry)

	return ll
}

// Lookup returns the ids of the named list. ok is false when name is neither
// a configured list nor a readable location.
func (ll *ListLoader) Lookup(ctx context.Context, name string) (ids []string, ok bool, err error) {
	location, exists := ll.named[name]
	if !exists {
		if !looksLikeLocation(name) {
			return nil, false, nil
		}
		location = name
	}

	ids, err = ll.fetch(ctx, location)
	if err != nil {
		return nil, true, &LoadError{Location: location, Err: err}
	}

	return ids, true, nil
}

func (ll *ListLoader) fetch(ctx context.Context, location string) ([]string, error) {
	e := ll.entry(location)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done {
		return e.ids, e.err
	}

	ids, err := ll.fetchUncached(ctx, location)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	e.ids, e.err, e.done = ids, err, true

	return ids, err
}

func looksLikeLocation(name string) bool {
	for _, prefix := range []string{"http://", "https://", "gs://"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	info, err := os.Stat(ExpandHome(name))
	return err == nil && !info.IsDir()
}

// fetchUncached reads one id per line. Only the first tab- or comma-delimited
// field of a line is used, and lines starting with # are skipped.
func (ll *ListLoader) fetchUncached(ctx context.Context, location string) ([]string, error) {
	rc, err := ll.loader.open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, err := MaybeDecompress(rc)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0)
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(c rune) bool { return c == '\t' || c == ',' })
		if len(fields) == 0 {
			continue
		}
		id := strings.TrimSpace(fields[0])
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, pfx.Err(scanner.Err())
}
