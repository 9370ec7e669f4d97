package services

import (
	"github.com/ochairo/mvnpub/internal/config"
	"github.com/ochairo/mvnpub/internal/domain/entities"
	"github.com/ochairo/mvnpub/internal/domain/interfaces/gateways"
)

// SettingsCredentials resolves the credentials of a run from build settings
type SettingsCredentials struct {
	settings *config.Settings
}

// NewSettingsCredentials creates a credential source over s
func NewSettingsCredentials(s *config.Settings) *SettingsCredentials {
	return &SettingsCredentials{settings: s}
}

// SigningCredential see ResolveSigningCredential
func (c *SettingsCredentials) SigningCredential() (*entities.SigningCredential, error) {
	return ResolveSigningCredential(c.settings)
}

// RegistryCredentials returns the credentials for a publish target.
// Properties win over environment variables.
func (c *SettingsCredentials) RegistryCredentials(target entities.PublishTarget) gateways.Credentials {
	if target == entities.TargetRepository {
		return gateways.Credentials{
			Username: c.settings.Lookup(config.PropRepositoryUsername, config.EnvRepositoryUsername),
			Password: c.settings.Lookup(config.PropRepositoryPassword, config.EnvRepositoryPassword),
		}
	}
	return gateways.Credentials{
		Username: c.settings.Lookup(config.PropCentralUsername, config.EnvCentralUsername),
		Password: c.settings.Lookup(config.PropCentralPassword, config.EnvCentralPassword),
		Token:    c.settings.Lookup(config.PropCentralToken, config.EnvCentralToken),
	}
}
