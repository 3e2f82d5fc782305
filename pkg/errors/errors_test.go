package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  New(ErrCodeContentType, "unknown content type %q for %s", "text/html", "https://cdn.example/page.mjs"),
			want: `CONTENT_TYPE: unknown content type "text/html" for https://cdn.example/page.mjs`,
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeNetwork, errors.New("connection reset"), "fetch %s", "https://cdn.example/lib.mjs"),
			want: "NETWORK_ERROR: fetch https://cdn.example/lib.mjs: connection reset",
		},
		{
			name: "source location",
			err:  New(ErrCodeDynamicImport, "%s:%d: import() argument is not a string literal", "app.mjs", 3),
			want: "DYNAMIC_IMPORT: app.mjs:3: import() argument is not a string literal",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapUnwraps(t *testing.T) {
	err := Wrap(ErrCodeTimeout, context.DeadlineExceeded, "fetch https://cdn.example/slow.mjs")

	if errors.Unwrap(err) != context.DeadlineExceeded {
		t.Errorf("Unwrap() = %v, want context.DeadlineExceeded", errors.Unwrap(err))
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("errors.Is(err, context.DeadlineExceeded) = false, want true")
	}
}

func TestIs(t *testing.T) {
	violation := New(ErrCodeSecurityViolation, "https://cdn.example/a.mjs may not depend on http://cdn.example/b.mjs")

	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", violation, ErrCodeSecurityViolation, true},
		{"other code", violation, ErrCodeUnsupportedScheme, false},
		{"fmt wrapped", fmt.Errorf("crawl: %w", violation), ErrCodeSecurityViolation, true},
		{"outer code wins", Wrap(ErrCodeInternal, violation, "resolve"), ErrCodeInternal, true},
		{"inner code hidden", Wrap(ErrCodeInternal, violation, "resolve"), ErrCodeSecurityViolation, false},
		{"plain error", errors.New("plain"), ErrCodeNetwork, false},
		{"nil", nil, ErrCodeNetwork, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"coded", New(ErrCodeRedirectLoop, "https://cdn.example/a.mjs: redirect loop"), ErrCodeRedirectLoop},
		{"fmt wrapped", fmt.Errorf("run: %w", New(ErrCodeParse, "app.mjs:1")), ErrCodeParse},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeFileNotFound, "read file:///p/app.mjs"), "read file:///p/app.mjs"},
		{"with cause", Wrap(ErrCodeNetwork, errors.New("connection reset"), "fetch https://cdn.example/lib.mjs"), "fetch https://cdn.example/lib.mjs: connection reset"},
		{"plain", errors.New("plain error"), "plain error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
