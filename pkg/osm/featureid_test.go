package osm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureID(t *testing.T) {
	tests := []struct {
		typ  string
		ref  int64
		want string
		ok   bool
	}{
		{typ: "node", ref: 123, want: "node/123", ok: true},
		{typ: "way", ref: 45, want: "way/45", ok: true},
		{typ: "relation", ref: 6, want: "relation/6", ok: true},
		{typ: "area", ref: 7, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			id, ok := FeatureID(tt.typ, tt.ref)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, id.String())
			}
		})
	}
}

func TestParseFeatureID(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		for _, s := range []string{"node/1", "way/987654321", "relation/42"} {
			id, err := ParseFeatureID(s)
			require.NoError(t, err)
			assert.Equal(t, s, id.String())
		}
	})

	t.Run("case insensitive type", func(t *testing.T) {
		id, err := ParseFeatureID(" Node/5 ")
		require.NoError(t, err)
		assert.Equal(t, "node/5", id.String())
	})

	t.Run("rejects malformed ids", func(t *testing.T) {
		for _, s := range []string{"", "does-not-exist", "node/", "node/abc", "node/-3", "node/0", "node/1/2", "node/+7", "shop/12", "12", "node/9223372036854775807"} {
			_, err := ParseFeatureID(s)
			assert.Error(t, err, s)
		}
	})
}
