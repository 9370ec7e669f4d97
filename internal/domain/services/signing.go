package services

import (
	"fmt"
	"os"

	"github.com/ochairo/mvnpub/internal/config"
	"github.com/ochairo/mvnpub/internal/domain/entities"
)

// ResolveSigningCredential finds the signing key configured for this run.
// The key id comes from the signing.keyId property or GPG_KEY_ID; without it
// the result wraps entities.ErrMissingCredential and signing is skipped.
// With a key id, missing or unreadable key material is a hard error.
func ResolveSigningCredential(s *config.Settings) (*entities.SigningCredential, error) {
	keyID := s.Lookup(config.PropSigningKeyID, config.EnvSigningKeyID)
	if keyID == "" {
		return nil, fmt.Errorf("%w: neither %s property nor %s is set",
			entities.ErrMissingCredential, config.PropSigningKeyID, config.EnvSigningKeyID)
	}

	cred := &entities.SigningCredential{
		KeyID:      keyID,
		SecretKey:  s.Lookup(config.PropSigningKey, config.EnvSigningKey),
		Passphrase: s.Lookup(config.PropSigningPassword, config.EnvSigningPassword),
	}

	if cred.SecretKey == "" {
		keyFile := s.Lookup(config.PropSigningKeyFile, config.EnvSigningKeyFile)
		if keyFile == "" {
			return nil, fmt.Errorf("signing key %s is configured but no secret key was provided (%s or %s)",
				keyID, config.EnvSigningKey, config.EnvSigningKeyFile)
		}
		//nolint:gosec // G304: key file path is user configuration
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read signing key file: %w", err)
		}
		cred.SecretKey = string(data)
	}

	return cred, nil
}
