package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/mvnpub/internal/domain-adapters/gateways"
	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces"
	"github.com/ochairo/mvnpub/internal/domain/services"
	"github.com/ochairo/mvnpub/internal/external-adapters/gpg"
)

func runVerify(_ context.Context, args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	common := registerCommon(fs)
	keyFile := fs.String("key", "", "Public key file for signature verification (defaults to the configured signing key)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: mvnpub verify <file>... [options]

Verify the checksum sidecars (.md5, .sha1, .sha256, .sha512) and the
detached .asc signature of assembled artifacts.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  mvnpub verify build/mvnpub/lib-1.0.0.jar
  mvnpub verify -key release-key.asc build/mvnpub/*.jar build/mvnpub/*.pom
`)
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: at least one file is required\n\n")
		fs.Usage()
		return exitUsage
	}

	a, err := newApp(common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer a.logger.Sync()

	verifier, err := loadVerifier(a, *keyFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}

	failed := 0
	for _, path := range fs.Args() {
		if err := verifyFile(path, verifier); err != nil {
			fmt.Printf("❌ %s: %v\n", filepath.Base(path), err)
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("\n%d of %d files failed verification\n", failed, fs.NArg())
		return exitFailure
	}
	return exitOK
}

// loadVerifier imports keyFile, or falls back to the public half of the
// configured signing key. A nil verifier means signatures are not checked.
func loadVerifier(a *app, keyFile string) (*gpg.Verifier, error) {
	if keyFile != "" {
		verifier := gpg.NewVerifier()
		if err := verifier.ImportKeyFromFile(keyFile); err != nil {
			return nil, err
		}
		a.logger.Debug("imported verification keys", interfaces.F("keys", strings.Join(verifier.KeyIDs(), ",")))
		return verifier, nil
	}

	cred, err := services.NewSettingsCredentials(a.settings).SigningCredential()
	if errors.Is(err, entities.ErrMissingCredential) {
		a.logger.Warn("no key available, signatures are not verified")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	key, err := gpg.LoadSigningKey(cred)
	if err != nil {
		return nil, err
	}
	return gpg.NewVerifier(key.Entity), nil
}

func verifyFile(path string, verifier *gpg.Verifier) error {
	checked, err := gateways.VerifyChecksums(path)
	if err != nil {
		return err
	}
	if len(checked) == 0 {
		return fmt.Errorf("no checksum files found")
	}

	signature := "not checked"
	if _, statErr := os.Stat(path + ".asc"); statErr == nil && verifier != nil {
		keyID, err := verifier.Verify(path, path+".asc")
		if err != nil {
			return err
		}
		signature = "verified (key " + keyID + ")"
	} else if statErr != nil {
		signature = "missing"
	}

	fmt.Printf("✅ %s: %s, signature %s\n", filepath.Base(path), strings.Join(checked, ", "), signature)
	return nil
}
