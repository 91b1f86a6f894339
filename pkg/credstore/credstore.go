// Package credstore loads operator-curated credentials that callers unlock
// with a passphrase instead of the raw username/password. The table is read
// once at startup and immutable afterwards.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/ksuid"
)

// PrivateCredential is one entry of the credential file. A nil passphrase
// asks for one to be generated; an empty string is a configuration error.
type PrivateCredential struct {
	Passphrase     *string `json:"passphrase"`
	RequireConfirm bool    `json:"require_confirm"`
	Username       string  `json:"username" validate:"required"`
	Password       string  `json:"password" validate:"required"`
}

type Store struct {
	creds    map[string]PrivateCredential
	approver Approver
}

// Load reads the credential file at path. A missing file yields an empty
// store. Generated passphrases are reported to the operator exactly once,
// here.
func Load(path string, approver Approver) (*Store, error) {
	s := &Store{
		creds:    make(map[string]PrivateCredential),
		approver: approver,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("Credential file not found, passphrase access disabled", "path", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	var list []PrivateCredential
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("unmarshal credential file %s: %w", path, err)
	}

	validate := validator.New()
	for i, cred := range list {
		if err := validate.Struct(cred); err != nil {
			return nil, fmt.Errorf("credential entry %d: %w", i, err)
		}
		if cred.Passphrase != nil && *cred.Passphrase == "" {
			return nil, fmt.Errorf("credential entry %d (%s): passphrase must not be empty", i, cred.Username)
		}

		passphrase := ""
		if cred.Passphrase != nil {
			passphrase = *cred.Passphrase
		} else {
			passphrase = ksuid.New().String()
			slog.Info("Generated passphrase", "username", cred.Username, "passphrase", passphrase)
		}

		if _, dup := s.creds[passphrase]; dup {
			return nil, fmt.Errorf("credential entry %d (%s): duplicate passphrase", i, cred.Username)
		}
		s.creds[passphrase] = cred
	}

	slog.Info("Loaded private credentials", "path", path, "count", len(s.creds))
	return s, nil
}

// Resolve maps a passphrase to its credential, running the interactive
// approval gate when the entry demands it. The second return value is false
// when the passphrase is unknown or approval was not given.
func (s *Store) Resolve(passphrase string) (PrivateCredential, bool) {
	cred, ok := s.creds[passphrase]
	if !ok {
		return PrivateCredential{}, false
	}
	if cred.RequireConfirm {
		if s.approver == nil || !s.approver.Approve(cred.Username) {
			slog.Warn("Denied access", "username", cred.Username)
			return PrivateCredential{}, false
		}
	}
	slog.Info("Approved access", "username", cred.Username)
	return cred, true
}
