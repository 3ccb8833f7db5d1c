// Package configs loads and saves the Coffer configuration file.
//
// Configuration lives in coffer.toml. Lookup order:
//
//   - the --config flag
//   - $COFFER_CONFIG
//   - the nearest coffer.toml in the working directory or its parents
//   - $XDG_CONFIG_HOME/coffer/coffer.toml
//
// A missing file is not an error; defaults apply. Every key can be
// overridden from the environment with a COFFER_ prefix and dots replaced
// by underscores:
//
//	COFFER_STORAGE_BACKEND=redis
//	COFFER_REDIS_ADDR=cache:6379
//	COFFER_SESSION_IDLE_TIMEOUT=5m
//
// # Sections
//
//	[storage]    backend, data_dir, bolt_path, retry_attempts
//	[session]    idle_timeout
//	[crypto]     encrypt, install_salt, argon2_time, argon2_memory_kib, argon2_threads
//	[redis]      addr, password, db, prefix
//	[firestore]  project_id, credentials_file, collection
//
// Load reads through viper. Save writes through BurntSushi/toml with
// owner-only permissions, since the file carries the installation salt.
package configs
