package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ochairo/mvnpub/internal/config"
	"github.com/ochairo/mvnpub/internal/domain-adapters/gateways"
	"github.com/ochairo/mvnpub/internal/domain-adapters/repositories"
	orchestrators "github.com/ochairo/mvnpub/internal/domain-orchestrators"
	"github.com/ochairo/mvnpub/internal/domain/entities"
	registry "github.com/ochairo/mvnpub/internal/domain/interfaces/gateways"
	"github.com/ochairo/mvnpub/internal/domain/services"
	"github.com/ochairo/mvnpub/internal/external-adapters/gpg"
	"github.com/ochairo/mvnpub/internal/external-adapters/hcl"
	"github.com/ochairo/mvnpub/internal/external-adapters/yaml"
	"github.com/ochairo/mvnpub/internal/external-adapters/zaplog"
)

// app holds what every command needs: settings, logger, descriptor loader
type app struct {
	settings    *config.Settings
	logger      *zaplog.Logger
	descriptors *repositories.FileDescriptorRepository
}

func newApp(flags *commonFlags) (*app, error) {
	logger, err := zaplog.New(zaplog.Options{Verbose: flags.verbose, JSON: flags.logJSON})
	if err != nil {
		return nil, err
	}

	home, _ := os.UserHomeDir()
	work, _ := os.Getwd()
	settings, err := config.Load(config.LoadOptions{
		HomeDir:   home,
		WorkDir:   work,
		File:      flags.properties,
		Overrides: flags.overrides,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}

	return &app{
		settings:    settings,
		logger:      logger,
		descriptors: newDescriptorRepository(),
	}, nil
}

func newDescriptorRepository() *repositories.FileDescriptorRepository {
	yamlParser := yaml.NewDescriptorParser()
	return repositories.NewFileDescriptorRepository(map[string]repositories.DescriptorParser{
		".yml":  yamlParser,
		".yaml": yamlParser,
		".hcl":  hcl.NewDescriptorParser(),
	})
}

// orchestrator wires the full pipeline
func (a *app) orchestrator() *orchestrators.PublishOrchestrator {
	executor := gateways.NewScriptExecutor(a.logger)
	downloader := gateways.NewDownloader(nil, a.logger)

	home, _ := os.UserHomeDir()
	roots := a.settings.List(config.PropToolchainPaths, config.EnvToolchainPaths)
	roots = append(roots, gateways.DefaultToolchainRoots(home)...)

	return orchestrators.NewPublishOrchestrator(orchestrators.PublishOrchestratorDeps{
		Descriptors: a.descriptors,
		Toolchains:  gateways.NewToolchainSelector(roots, a.settings.Env(config.EnvJavaHome), a.logger),
		Resolver:    gateways.NewDependencyResolver(downloader, a.settings.CacheDir(), a.logger),
		Steps:       gateways.NewStepRunner(executor, a.logger),
		Tests:       gateways.NewTestRunner(executor, a.logger),
		Assembler:   gateways.NewAssembler(gateways.NewPackager(a.logger), a.logger),
		Signer:      gpg.NewSigner(a.logger),
		Checksums:   gateways.NewChecksumGenerator(a.logger),
		Credentials: services.NewSettingsCredentials(a.settings),
		Registries:  a.registryFor,
		Logger:      a.logger,
	})
}

// registryFor selects the gateway of the descriptor's publish target.
// central.url and repository.url settings override the descriptor URL.
func (a *app) registryFor(desc *entities.PublicationDescriptor) (registry.RegistryGateway, error) {
	switch desc.Publish.Target {
	case entities.TargetCentral:
		url := a.settings.Lookup(config.PropCentralPortalURL, config.EnvCentralPortalURL)
		if url == "" {
			url = desc.Publish.URL
		}
		return gateways.NewCentralPortalGateway(url, nil, a.logger), nil
	case entities.TargetRepository:
		url := a.settings.Lookup(config.PropRepositoryURL, config.EnvRepositoryURL)
		if url == "" {
			url = desc.Publish.URL
		}
		return gateways.NewMavenRepositoryGateway(url, desc.Publish.AllowOverwrite, nil, a.logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown publish target %q", entities.ErrInvalidDescriptor, desc.Publish.Target)
	}
}

// central returns the Central Portal gateway configured by the settings
func (a *app) central() *gateways.CentralPortalGateway {
	url := a.settings.Lookup(config.PropCentralPortalURL, config.EnvCentralPortalURL)
	return gateways.NewCentralPortalGateway(url, nil, a.logger)
}

// exitCode maps pipeline errors to process exit codes
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, entities.ErrAuthentication), errors.Is(err, entities.ErrMissingCredential):
		return exitUsage
	default:
		return exitFailure
	}
}
