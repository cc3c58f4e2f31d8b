package config

// Version is the Parley binary version.
// Set at build time via: -ldflags "-X github.com/parleyhq/parley/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
