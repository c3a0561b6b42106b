package slug_test

import (
	"testing"

	"github.com/jrsteele09/go-realm-auth/internal/slug"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"master":           "master",
		"My Realm":         "my-realm",
		"  Café  Crème!! ": "cafe-creme",
		"ACME__Corp--2024": "acme-corp-2024",
		"":                 "",
		"***":              "",
	}
	for in, want := range cases {
		require.Equal(t, want, slug.Make(in), in)
	}
}
