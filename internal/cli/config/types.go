// Package config provides configuration management for the Sequent CLI.
//
// Configuration is layered: defaults, then an optional sequent.yaml file,
// then SEQUENT_* environment variables, then explicit CLI flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	ProofsDir   string `koanf:"proofs_dir"`
	StatePath   string `koanf:"state_path"`
	Parallelism int    `koanf:"parallelism"`
	Verbose     bool   `koanf:"verbose"`
	LogFormat   string `koanf:"log_format"`
	NoState     bool   `koanf:"no_state"`

	// ProjectRoot is the directory relative paths resolve against.
	// Derived at load time, never read from the config file.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultProofsDir = "proofs"
	DefaultStateFile = ".sequent/state.db"
	DefaultLogFormat = "text"
)
