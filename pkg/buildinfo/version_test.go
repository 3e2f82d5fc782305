package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	for _, want := range []string{Version, Commit, Date} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestUserAgent(t *testing.T) {
	if got, want := UserAgent(), "httpsvendor/"+Version; got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}

func TestTemplate(t *testing.T) {
	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} version: "+Version) {
		t.Errorf("Template() = %q", tmpl)
	}
	if !strings.HasSuffix(tmpl, "\n") {
		t.Errorf("Template() = %q, want trailing newline", tmpl)
	}
}
