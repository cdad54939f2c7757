package lang

import (
	"errors"
	"strconv"
	"sync"
	"testing"
)

func TestCache_Parse(t *testing.T) {
	c := NewCache()

	first, err := c.Parse(t.Context(), `return 1;`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	second, err := c.Parse(t.Context(), `return 1;`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if first != second {
		t.Errorf("expected the cached AST to be reused")
	}

	// The depth limit is part of the key.
	other, err := c.Parse(t.Context(), `return 1;`, WithMaxDepth(8))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if other == first {
		t.Errorf("expected a separate entry for different options")
	}

	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d", c.Len())
	}
}

func TestCache_Errors(t *testing.T) {
	c := NewCache()

	for range 2 {
		if _, err := c.Parse(t.Context(), `return (;`); !errors.Is(err, ErrSyntax) {
			t.Errorf("expected cached ErrSyntax, got %v", err)
		}
	}

	if c.Len() != 1 {
		t.Errorf("expected failed parse to be cached once, got %d", c.Len())
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[*AST]struct{}{}
	)

	for range 32 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			ast, err := c.Parse(t.Context(), `return div { "shared" };`)
			if err != nil {
				t.Error(err)

				return
			}

			mu.Lock()
			seen[ast] = struct{}{}
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(seen) != 1 {
		t.Errorf("expected one shared AST, got %d", len(seen))
	}
}

func TestRuntime_SharedCache(t *testing.T) {
	c := NewCache()

	a := New(nil, WithCache(c))
	b := New(nil, WithCache(c))

	for _, rt := range []*Runtime{a, b} {
		if _, err := rt.Evaluate(t.Context(), `return 1;`, nil); err != nil {
			t.Fatalf("evaluate error: %v", err)
		}
	}

	if c.Len() != 1 {
		t.Errorf("expected runtimes to share one entry, got %d", c.Len())
	}
}

func TestCache_Limit(t *testing.T) {
	c := NewCacheLimit(2)

	for _, src := range []string{`return 1;`, `return 2;`, `return 3;`, `return 4;`} {
		if _, err := c.Parse(t.Context(), src); err != nil {
			t.Fatalf("parse error: %v", err)
		}

		if n := c.Len(); n > 2 {
			t.Fatalf("cache grew to %d entries past its limit", n)
		}
	}

	// The newest source survives eviction.
	first, _ := c.Parse(t.Context(), `return 4;`)
	second, _ := c.Parse(t.Context(), `return 4;`)

	if first != second {
		t.Errorf("expected the newest source to stay cached")
	}

	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}
}

func TestRuntime_NestedSourcesNotCached(t *testing.T) {
	c := NewCache()
	rt := New(testRegistry(), WithCache(c))

	for i := range 3 {
		src := `return t::eval("return @v + ` + strconv.Itoa(i) + `;");`
		if _, err := rt.Evaluate(t.Context(), src, nil); err != nil {
			t.Fatalf("evaluate error: %v", err)
		}
	}

	if c.Len() != 3 {
		t.Errorf("expected only the 3 top-level sources cached, got %d", c.Len())
	}
}
