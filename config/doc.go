// Package config provides configuration loading and validation for dirserve.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (DIRSERVE_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with DIRSERVE_ prefix:
//   - server.port → DIRSERVE_SERVER_PORT
//   - serve.path → DIRSERVE_SERVE_PATH
//   - upload.enabled → DIRSERVE_UPLOAD_ENABLED
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: bind host and port
//   - Serve: served directory path and traversal policy (symlinks, dotfiles)
//   - Archive: whether on-the-fly archive downloads are enabled
//   - Upload: whether uploads are enabled and may overwrite
//   - Auth: basic-auth accounts, inline or from a file
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Served path must be set
//   - Log level must be debug, info, warn, or error
package config
