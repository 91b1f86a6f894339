package zjuam

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveDeterministic(t *testing.T) {
	ts, err := NewTokenSource()
	require.NoError(t, err)

	a := ts.Derive("1234567890", "secret")
	b := ts.Derive("1234567890", "secret")
	assert.Equal(t, a, b)

	raw, err := base64.StdEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestDeriveDistinctCredentials(t *testing.T) {
	ts, err := NewTokenSource()
	require.NoError(t, err)

	seen := make(map[string]string)
	for i := 0; i < 50; i++ {
		for _, password := range []string{"pw", "pw2"} {
			username := fmt.Sprintf("%d", 1000000000+i)
			token := ts.Derive(username, password)
			prev, dup := seen[token]
			assert.False(t, dup, "token collision between %q and %s/%s", prev, username, password)
			seen[token] = username + "/" + password
		}
	}
}

func TestDeriveUnpredictableAcrossInstances(t *testing.T) {
	a, err := NewTokenSource()
	require.NoError(t, err)
	b, err := NewTokenSource()
	require.NoError(t, err)

	assert.NotEqual(t, a.Derive("1234567890", "secret"), b.Derive("1234567890", "secret"))
}
