// Package config loads and validates application configuration for the
// COT data gateway.
//
// Configuration is layered: COT_-prefixed environment variables and struct
// defaults are applied first, then an optional YAML file (config.yaml, or
// the path in COT_CONFIG_FILE) fills any fields left unset. The loaded
// configuration is validated before use; a service with an invalid port,
// upstream URL, or non-positive TTL refuses to start rather than limping.
package config
