package gpg

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces"
)

// Signer writes armored detached signatures (<file>.asc) for every artifact
type Signer struct {
	logger interfaces.Logger
}

// NewSigner creates a signer
func NewSigner(logger interfaces.Logger) *Signer {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &Signer{logger: logger}
}

// SigningKey is a decrypted key ready to sign
type SigningKey struct {
	Entity *openpgp.Entity
	// KeyID selects the subkey when the credential names one
	KeyID uint64
}

// LoadSigningKey reads the armored secret key of cred, selects the entity
// whose primary key or subkey matches cred.KeyID and decrypts it
func LoadSigningKey(cred *entities.SigningCredential) (*SigningKey, error) {
	if strings.TrimSpace(cred.SecretKey) == "" {
		return nil, fmt.Errorf("no secret key material for key %s", cred.KeyID)
	}

	keyring, err := openpgp.ReadArmoredKeyRing(strings.NewReader(cred.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("failed to read secret key: %w", err)
	}

	want := normalizeKeyID(cred.KeyID)
	for _, entity := range keyring {
		if entity.PrivateKey == nil {
			continue
		}
		if matchesKeyID(entity.PrimaryKey, want) {
			if err := decrypt(entity.PrivateKey, cred.Passphrase); err != nil {
				return nil, err
			}
			for _, sub := range entity.Subkeys {
				if sub.PrivateKey != nil {
					if err := decrypt(sub.PrivateKey, cred.Passphrase); err != nil {
						return nil, err
					}
				}
			}
			return &SigningKey{Entity: entity}, nil
		}
		for _, sub := range entity.Subkeys {
			if sub.PrivateKey == nil || !matchesKeyID(sub.PublicKey, want) {
				continue
			}
			if err := decrypt(sub.PrivateKey, cred.Passphrase); err != nil {
				return nil, err
			}
			return &SigningKey{Entity: entity, KeyID: sub.PublicKey.KeyId}, nil
		}
	}
	return nil, fmt.Errorf("no secret key matching key id %s", cred.KeyID)
}

// normalizeKeyID strips an 0x prefix and upper-cases the id
func normalizeKeyID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(strings.TrimPrefix(id, "0x"), "0X")
	return strings.ToUpper(strings.ReplaceAll(id, " ", ""))
}

// matchesKeyID accepts the short (8), long (16) and fingerprint (40) forms
func matchesKeyID(pk *packet.PublicKey, id string) bool {
	if pk == nil {
		return false
	}
	switch len(id) {
	case 8:
		return pk.KeyIdShortString() == id
	case 16:
		return pk.KeyIdString() == id
	default:
		return fmt.Sprintf("%X", pk.Fingerprint) == id
	}
}

func decrypt(pk *packet.PrivateKey, passphrase string) error {
	if !pk.Encrypted {
		return nil
	}
	if passphrase == "" {
		return fmt.Errorf("secret key %s is protected and no passphrase was provided", pk.KeyIdString())
	}
	if err := pk.Decrypt([]byte(passphrase)); err != nil {
		return fmt.Errorf("failed to decrypt secret key %s: %w", pk.KeyIdString(), err)
	}
	return nil
}

// Sign signs every artifact of set and moves it from UNSIGNED to SIGNED.
// Each signature is verified against the signing key before it is recorded.
func (s *Signer) Sign(ctx context.Context, set *entities.ArtifactSet, cred *entities.SigningCredential) error {
	if set.State == entities.Signed {
		return fmt.Errorf("artifact set %s is already signed", set.Coordinates)
	}

	key, err := LoadSigningKey(cred)
	if err != nil {
		return err
	}

	config := &packet.Config{SigningKeyId: key.KeyID}
	verifier := NewVerifier(key.Entity)

	for _, artifact := range set.Artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		sigPath := artifact.Path + ".asc"
		if err := signFile(key.Entity, artifact.Path, sigPath, config); err != nil {
			return err
		}
		if _, err := verifier.Verify(artifact.Path, sigPath); err != nil {
			return fmt.Errorf("signature of %s does not verify: %w", artifact.FileName(), err)
		}
		artifact.Signature = sigPath
	}

	set.State = entities.Signed
	s.logger.Info("artifacts signed",
		interfaces.F("key", cred.KeyID),
		interfaces.F("count", len(set.Artifacts)))
	return nil
}

func signFile(entity *openpgp.Entity, path, sigPath string, config *packet.Config) error {
	//nolint:gosec // G304: path is an assembled artifact
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer in.Close()

	//nolint:gosec // G304: signature path is derived from the artifact path
	out, err := os.Create(sigPath)
	if err != nil {
		return fmt.Errorf("failed to create signature file: %w", err)
	}
	if err := openpgp.ArmoredDetachSign(out, entity, in, config); err != nil {
		//nolint:errcheck,gosec // Already failing
		out.Close()
		return fmt.Errorf("failed to sign %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write signature file: %w", err)
	}
	return nil
}
