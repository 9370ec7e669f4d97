package services

import (
	"path"

	"github.com/ochairo/mvnpub/internal/domain/entities"
)

// FileName returns artifact-version[-classifier].extension
func FileName(c entities.Coordinates, classifier, extension string) string {
	name := c.Artifact + "-" + c.Version
	if classifier != "" {
		name += "-" + classifier
	}
	return name + "." + extension
}

// VersionDir returns group/path/artifact/version
func VersionDir(c entities.Coordinates) string {
	return path.Join(c.GroupPath(), c.Artifact, c.Version)
}

// RepositoryPath returns the slash-separated path of a file in Maven repository layout
func RepositoryPath(c entities.Coordinates, classifier, extension string) string {
	return path.Join(VersionDir(c), FileName(c, classifier, extension))
}
