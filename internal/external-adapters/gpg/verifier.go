// Package gpg signs and verifies publication files with OpenPGP.
package gpg

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const armoredSignaturePrefix = "-----BEGIN PGP SIGNATURE---"

// Verifier checks detached .asc signatures against a keyring using
// ProtonMail's go-crypto, the maintained fork of golang.org/x/crypto/openpgp
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a verifier over the given keys
func NewVerifier(keys ...*openpgp.Entity) *Verifier {
	return &Verifier{keyring: append(make(openpgp.EntityList, 0, len(keys)), keys...)}
}

// ImportKeyFromFile adds the keys of an armored or binary key file.
// Secret key exports are accepted; only their public halves are used.
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for GPG key import
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}

	keys, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		keys, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to read key %s: %w", keyPath, err)
		}
	}
	if len(keys) == 0 {
		return fmt.Errorf("no keys found in %s", keyPath)
	}

	v.keyring = append(v.keyring, keys...)
	return nil
}

// KeyIDs returns the long ids of the primary keys in the keyring, sorted
func (v *Verifier) KeyIDs() []string {
	ids := make([]string, 0, len(v.keyring))
	for _, e := range v.keyring {
		ids = append(ids, e.PrimaryKey.KeyIdString())
	}
	sort.Strings(ids)
	return ids
}

// Verify checks the detached signature at sigPath over filePath and returns
// the long key id of the signing entity
func (v *Verifier) Verify(filePath, sigPath string) (string, error) {
	if len(v.keyring) == 0 {
		return "", fmt.Errorf("no GPG keys imported")
	}

	//nolint:gosec // G304: sigPath is a signature written next to an artifact
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return "", fmt.Errorf("failed to open signature file: %w", err)
	}

	//nolint:gosec // G304: filePath is an assembled artifact
	data, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open data file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer data.Close()

	var signer *openpgp.Entity
	if bytes.HasPrefix(bytes.TrimSpace(sig), []byte(armoredSignaturePrefix)) {
		signer, err = openpgp.CheckArmoredDetachedSignature(v.keyring, data, bytes.NewReader(sig), nil)
	} else {
		signer, err = openpgp.CheckDetachedSignature(v.keyring, data, bytes.NewReader(sig), nil)
	}
	if err != nil {
		return "", fmt.Errorf("signature verification failed: %w", err)
	}
	return signer.PrimaryKey.KeyIdString(), nil
}
