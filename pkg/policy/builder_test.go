package policy

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/matzehuels/httpsvendor/pkg/errors"
)

func resolveTable(paths map[string]string, calls map[string]int) ResolveFunc {
	return func(slot string) (string, error) {
		if calls != nil {
			calls[slot]++
		}
		p, ok := paths[slot]
		if !ok {
			return "", stderrors.New("no such slot")
		}
		return p, nil
	}
}

func TestBuilderFinalize(t *testing.T) {
	b := NewBuilder("file:///project/")
	if err := b.RecordResource("a.mjs", Hash("sha256-A")); err != nil {
		t.Fatal(err)
	}
	if err := b.RecordResource("b.mjs", Hash("sha256-B")); err != nil {
		t.Fatal(err)
	}
	b.RecordDependency("a.mjs", "./b.mjs", Pending("b.mjs"))
	b.RecordDependency("a.mjs", "./old.mjs", Pending("old.mjs"))
	b.RecordDependency("a.mjs", "data:text/javascript,", Literal("data:text/javascript,"))
	b.RecordScopeDependency("https://x/a.mjs", Pending("a.mjs"))
	b.RecordScopeDependency("https://x/old.mjs", Pending("old.mjs"))

	calls := map[string]int{}
	p, err := b.Finalize(resolveTable(map[string]string{
		"a.mjs":   "./cache/a.mjs",
		"b.mjs":   "./cache/b.mjs",
		"old.mjs": "./cache/b.mjs",
	}, calls))
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if len(p.Resources) != 2 {
		t.Fatalf("resources = %d, want 2", len(p.Resources))
	}
	a := p.Resources["./cache/a.mjs"]
	if a == nil {
		t.Fatal("resource ./cache/a.mjs missing")
	}
	if a.Integrity.String() != "sha256-A" || a.Cascade {
		t.Errorf("a = %+v", a)
	}
	want := map[string]string{
		"./b.mjs":               "./cache/b.mjs",
		"./old.mjs":             "./cache/b.mjs",
		"data:text/javascript,": "data:text/javascript,",
	}
	for k, v := range want {
		if a.Dependencies[k] != v {
			t.Errorf("a.Dependencies[%q] = %q, want %q", k, a.Dependencies[k], v)
		}
	}
	if b := p.Resources["./cache/b.mjs"]; b == nil || len(b.Dependencies) != 0 || b.Dependencies == nil {
		t.Errorf("b = %+v, want empty non-nil dependencies", b)
	}

	s := p.Scopes["file:///project/"]
	if s == nil || !s.Integrity || !s.Cascade {
		t.Fatalf("scope = %+v", s)
	}
	if s.Dependencies["https://x/old.mjs"] != "./cache/b.mjs" {
		t.Errorf("scope old.mjs = %q", s.Dependencies["https://x/old.mjs"])
	}

	for slot, n := range calls {
		if n != 1 {
			t.Errorf("slot %s resolved %d times, want 1", slot, n)
		}
	}
}

func TestBuilderFinalizeOnce(t *testing.T) {
	b := NewBuilder("file:///p/")
	if _, err := b.Finalize(resolveTable(nil, nil)); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if _, err := b.Finalize(resolveTable(nil, nil)); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("second Finalize err = %v, want INTERNAL_ERROR", err)
	}
	if err := b.RecordResource("x", Trusted); err == nil {
		t.Error("RecordResource after Finalize succeeded")
	}
}

func TestBuilderFinalizeUnresolved(t *testing.T) {
	b := NewBuilder("file:///p/")
	b.RecordScopeDependency("https://x/a.mjs", Pending("missing.mjs"))
	_, err := b.Finalize(resolveTable(map[string]string{}, nil))
	if err == nil || !strings.Contains(err.Error(), "missing.mjs") {
		t.Errorf("err = %v, want mention of missing.mjs", err)
	}
}

func TestBuilderRecordErrors(t *testing.T) {
	b := NewBuilder("file:///p/")
	if err := b.RecordResource("", Trusted); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty slot err = %v", err)
	}
	if err := b.RecordResource("a", Trusted); err != nil {
		t.Fatal(err)
	}
	if err := b.RecordResource("a", Trusted); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("duplicate err = %v", err)
	}
	if err := b.RecordDependency("nope", "./x", Literal("x")); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("unknown resource err = %v", err)
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
}

func TestBuilderFirstBindingWins(t *testing.T) {
	b := NewBuilder("file:///p/")
	b.RecordScopeDependency("https://x/a.mjs", Literal("first"))
	b.RecordScopeDependency("https://x/a.mjs", Literal("second"))
	p, err := b.Finalize(resolveTable(nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Scopes["file:///p/"].Dependencies["https://x/a.mjs"]; got != "first" {
		t.Errorf("binding = %q, want first", got)
	}
}

func TestTarget(t *testing.T) {
	if !Pending("s").IsPending() || Pending("s").Slot() != "s" {
		t.Error("Pending target not pending")
	}
	if Literal("v").IsPending() || Literal("v").String() != "v" {
		t.Error("Literal target misreported")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	p := &Policy{
		Resources: map[string]*Resource{
			"./a.mjs": {Integrity: Hash("sha256-x"), Dependencies: map[string]string{"./b.mjs?a<b": "./b.mjs"}},
			"./l.mjs": {Integrity: Trusted, Dependencies: map[string]string{}},
		},
		Scopes: map[string]*Scope{
			"file:///p/": {Integrity: true, Dependencies: map[string]string{}, Cascade: true},
		},
	}
	var buf bytes.Buffer
	if err := WriteJSON(p, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"integrity": true`) {
		t.Errorf("trusted integrity not encoded as true:\n%s", out)
	}
	if !strings.Contains(out, `"./b.mjs?a<b"`) {
		t.Errorf("HTML escaping applied:\n%s", out)
	}
	if !strings.Contains(out, "\n  \"resources\"") {
		t.Errorf("not indented by two spaces:\n%s", out)
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Resources["./l.mjs"].Integrity.IsTrusted() {
		t.Error("trusted integrity lost")
	}
	if got.Resources["./a.mjs"].Integrity != Hash("sha256-x") {
		t.Errorf("integrity = %v", got.Resources["./a.mjs"].Integrity)
	}
}

func TestIntegrityUnmarshalInvalid(t *testing.T) {
	for _, in := range []string{`false`, `1`, `""`} {
		var i Integrity
		if err := i.UnmarshalJSON([]byte(in)); err == nil {
			t.Errorf("UnmarshalJSON(%s) succeeded", in)
		}
	}
}
