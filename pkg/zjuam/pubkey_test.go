package zjuam

import (
	"encoding/json"
	"math/big"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// small RSA key (p=61, q=53): n=3233, e=17, d=2753
var testKey = &PublicKey{
	Modulus:  big.NewInt(3233),
	Exponent: big.NewInt(17),
}

func TestPublicKeyUnmarshal(t *testing.T) {
	var key PublicKey
	err := json.Unmarshal([]byte(`{"modulus":"ca1","exponent":"11"}`), &key)
	require.NoError(t, err)
	assert.Equal(t, int64(3233), key.Modulus.Int64())
	assert.Equal(t, int64(17), key.Exponent.Int64())

	err = json.Unmarshal([]byte(`{"modulus":"xyz","exponent":"11"}`), &key)
	assert.Error(t, err)
}

func TestEncryptPasswordRoundTrip(t *testing.T) {
	// password "a" is 0x61 = 97, below the toy modulus
	encrypted := EncryptPassword("a", testKey)

	c, ok := new(big.Int).SetString(encrypted, 16)
	require.True(t, ok)

	d := big.NewInt(2753)
	m := new(big.Int).Exp(c, d, testKey.Modulus)
	assert.Equal(t, int64(97), m.Int64())
}

func TestEncryptPasswordBareHex(t *testing.T) {
	encrypted := EncryptPassword("a", testKey)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]+$`), encrypted)
}
