package sitekit

import "github.com/goliatone/go-sitekit/internal/runtimeconfig"

var (
	ErrDefaultLanguageRequired    = runtimeconfig.ErrDefaultLanguageRequired
	ErrDefaultLanguageNotListed   = runtimeconfig.ErrDefaultLanguageNotListed
	ErrFreshnessWindowInvalid     = runtimeconfig.ErrFreshnessWindowInvalid
	ErrFetchTimeoutInvalid        = runtimeconfig.ErrFetchTimeoutInvalid
	ErrStorageProviderUnknown     = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDSNRequired         = runtimeconfig.ErrStorageDSNRequired
	ErrCacheTTLInvalid            = runtimeconfig.ErrCacheTTLInvalid
	ErrMarkdownExtensionUnknown   = runtimeconfig.ErrMarkdownExtensionUnknown
	ErrImporterFeatureRequired    = runtimeconfig.ErrImporterFeatureRequired
	ErrImporterContentDirRequired = runtimeconfig.ErrImporterContentDirRequired
	ErrLoggingProviderRequired    = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config           = runtimeconfig.Config
	NavigationConfig = runtimeconfig.NavigationConfig
	ResolverConfig   = runtimeconfig.ResolverConfig
	RenderingConfig  = runtimeconfig.RenderingConfig
	MarkdownConfig   = runtimeconfig.MarkdownConfig
	StorageConfig    = runtimeconfig.StorageConfig
	CacheConfig      = runtimeconfig.CacheConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
	ImporterConfig   = runtimeconfig.ImporterConfig
	ServerConfig     = runtimeconfig.ServerConfig
	Features         = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

const (
	StorageMemory   = runtimeconfig.StorageMemory
	StorageSQLite   = runtimeconfig.StorageSQLite
	StoragePostgres = runtimeconfig.StoragePostgres
)
