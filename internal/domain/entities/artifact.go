package entities

import "path/filepath"

// Artifact is one file of a publication
type Artifact struct {
	Classifier string // "", "sources", "javadoc"
	Extension  string // "jar", "pom"
	Path       string
	Signature  string   // path of the .asc file once signed
	Checksums  []string // paths of .md5/.sha1/.sha256/.sha512 sidecars
}

// FileName returns the base name of the artifact file
func (a *Artifact) FileName() string {
	return filepath.Base(a.Path)
}

// SignatureState is the signer's two-state machine
type SignatureState string

// Signature states
const (
	Unsigned SignatureState = "UNSIGNED"
	Signed   SignatureState = "SIGNED"
)

// ArtifactSet is the ordered set of files produced for one publication
type ArtifactSet struct {
	Coordinates Coordinates
	Artifacts   []*Artifact
	State       SignatureState
	OutputDir   string
}

// Files returns every file to upload: artifacts, signatures and checksums
func (s *ArtifactSet) Files() []string {
	var files []string
	for _, a := range s.Artifacts {
		files = append(files, a.Path)
		if a.Signature != "" {
			files = append(files, a.Signature)
		}
		files = append(files, a.Checksums...)
	}
	return files
}

// Find returns the artifact with the given classifier and extension
func (s *ArtifactSet) Find(classifier, extension string) *Artifact {
	for _, a := range s.Artifacts {
		if a.Classifier == classifier && a.Extension == extension {
			return a
		}
	}
	return nil
}

// SigningCredential identifies the key used to sign a publication
type SigningCredential struct {
	KeyID      string
	SecretKey  string // armored secret key block
	Passphrase string
}

// Deployment is a registry's record of an upload
type Deployment struct {
	ID        string
	State     string
	Target    PublishTarget
	Published bool
	Files     int
	// Messages carries validation errors reported by the registry
	Messages []string
}
