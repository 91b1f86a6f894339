package zjuam

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// PublicKey is the textbook-RSA key the provider serves at
// /cas/v2/getPubKey, with modulus and exponent as bare hex strings.
type PublicKey struct {
	Modulus  *big.Int
	Exponent *big.Int
}

func (k *PublicKey) UnmarshalJSON(data []byte) error {
	var raw struct {
		Modulus  string `json:"modulus"`
		Exponent string `json:"exponent"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	mod, ok := new(big.Int).SetString(raw.Modulus, 16)
	if !ok {
		return fmt.Errorf("modulus is not hex: %q", raw.Modulus)
	}
	exp, ok := new(big.Int).SetString(raw.Exponent, 16)
	if !ok {
		return fmt.Errorf("exponent is not hex: %q", raw.Exponent)
	}
	k.Modulus = mod
	k.Exponent = exp
	return nil
}

// EncryptPassword reproduces the provider's non-standard password scheme:
// the UTF-8 bytes interpreted as a big-endian integer, raised to the public
// exponent modulo the modulus, rendered as bare lowercase hex digits with no
// padding restored. This is exactly what the provider's API expects and
// carries no confidentiality guarantee beyond that contract.
func EncryptPassword(password string, key *PublicKey) string {
	m := new(big.Int).SetBytes([]byte(password))
	c := new(big.Int).Exp(m, key.Exponent, key.Modulus)
	return c.Text(16)
}
