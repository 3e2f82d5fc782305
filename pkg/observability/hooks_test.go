package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

// recorder implements every hook interface and remembers what it saw.
type recorder struct {
	NoopHTTPHooks
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) OnVisit(_ context.Context, ref string, _ int)       { r.add("visit " + ref) }
func (r *recorder) OnRedirect(_ context.Context, from, to string)      { r.add("redirect " + from + " " + to) }
func (r *recorder) OnComplete(context.Context, int, time.Duration, error) { r.add("complete") }
func (r *recorder) OnCacheWrite(_ context.Context, slot string, _ int) { r.add("write " + slot) }
func (r *recorder) OnCacheAlias(_ context.Context, slot, target string) {
	r.add("alias " + slot + " " + target)
}

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	c := NoopCrawlHooks{}
	c.OnVisit(ctx, "https://cdn.example/lib.mjs", 1)
	c.OnRedirect(ctx, "https://cdn.example/old.mjs", "https://cdn.example/new.mjs")
	c.OnComplete(ctx, 3, time.Second, nil)

	k := NoopCacheHooks{}
	k.OnCacheWrite(ctx, "/p/node_modules/.https/x.mjs", 1024)
	k.OnCacheAlias(ctx, "/p/node_modules/.https/old.mjs", "/p/node_modules/.https/new.mjs")

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "cdn.example", "/lib.mjs")
	h.OnResponse(ctx, "GET", "cdn.example", "/lib.mjs", 200, time.Second)
	h.OnError(ctx, "GET", "cdn.example", "/lib.mjs", nil)
}

func TestRegistry(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	if _, ok := Crawl().(NoopCrawlHooks); !ok {
		t.Error("Crawl() should default to NoopCrawlHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should default to NoopCacheHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should default to NoopHTTPHooks")
	}

	rec := &recorder{}
	SetCrawlHooks(rec)
	SetCacheHooks(rec)
	SetHTTPHooks(rec)

	ctx := context.Background()
	Crawl().OnVisit(ctx, "file:///p/app.mjs", 0)
	Crawl().OnRedirect(ctx, "https://cdn.example/old.mjs", "https://cdn.example/new.mjs")
	Cache().OnCacheWrite(ctx, "new.mjs", 10)
	Cache().OnCacheAlias(ctx, "old.mjs", "new.mjs")
	Crawl().OnComplete(ctx, 2, time.Millisecond, nil)

	want := []string{
		"visit file:///p/app.mjs",
		"redirect https://cdn.example/old.mjs https://cdn.example/new.mjs",
		"write new.mjs",
		"alias old.mjs new.mjs",
		"complete",
	}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %q, want %q", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, rec.events[i], want[i])
		}
	}

	Reset()
	if _, ok := Crawl().(NoopCrawlHooks); !ok {
		t.Error("Reset() should restore NoopCrawlHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	t.Cleanup(Reset)
	rec := &recorder{}
	SetCrawlHooks(rec)
	SetCrawlHooks(nil)

	if Crawl() != rec {
		t.Error("SetCrawlHooks(nil) should be ignored")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	t.Cleanup(Reset)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetCrawlHooks(&recorder{})
		}()
		go func() {
			defer wg.Done()
			Crawl().OnVisit(context.Background(), "https://cdn.example/lib.mjs", 1)
		}()
	}
	wg.Wait()
}
