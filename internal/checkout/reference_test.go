package checkout

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uuidV4Pattern = regexp.MustCompile(
	`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestNewReferenceIsCanonicalV4(t *testing.T) {
	for i := 0; i < 100; i++ {
		ref := NewReference()
		require.True(t, uuidV4Pattern.MatchString(ref), "reference %q is not a canonical v4 uuid", ref)
	}
}

func TestNewReferenceIsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		ref := NewReference()
		_, dup := seen[ref]
		assert.False(t, dup, "duplicate reference %q", ref)
		seen[ref] = struct{}{}
	}
}
