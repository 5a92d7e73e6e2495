// Package config handles loading and validating sHome bridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//   - Credential normalisation (password hashing, device ID generation)
//
// Security Considerations:
//   - Sensitive values (account password, broker credentials, tokens) should
//     be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - The plaintext account password is discarded after hashing; only the
//     SHA-512 digest is kept in memory and sent to the API
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.SHome.Credential.Username)
package config
