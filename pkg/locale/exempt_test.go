package locale_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tonyc-ship/latios-oss-sub001/pkg/locale"
)

func TestExempt(t *testing.T) {
	t.Parallel()

	ex := locale.DefaultExclusions()

	tests := []struct {
		path string
		want bool
	}{
		{"/api/search", true},
		{"/api", true},
		{"/_next/static/chunk.js", true},
		{"/_next/image", true},
		{"/static/logo", true},
		{"/favicon.ico", true},
		{"/robots.txt", true},
		{"/docs/v1.2", true},
		{"/", false},
		{"/search", false},
		{"/summaries/123", false},
		{"", false},
		{"search", false},
		{"api/search", false},
		{"favicon.ico", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, ex.Exempt(tt.path))
		})
	}
}

func TestExemptCustomRules(t *testing.T) {
	t.Parallel()

	ex := locale.Exclusions{nil, locale.HasPrefix("/healthz")}
	require.True(t, ex.Exempt("/healthz"))
	require.False(t, ex.Exempt("/api/search"))
	require.False(t, locale.Exclusions(nil).Exempt("/anything.css"))
}

func TestExemptDotProperty(t *testing.T) {
	t.Parallel()

	ex := locale.DefaultExclusions()
	rapid.Check(t, func(t *rapid.T) {
		before := rapid.String().Draw(t, "before")
		after := rapid.String().Draw(t, "after")
		if !ex.Exempt(before + "." + after) {
			t.Fatalf("path with dot %q was not exempt", before+"."+after)
		}
	})
}
