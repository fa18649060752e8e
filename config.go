package graphsync

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Config represents the .graphsync.yaml configuration file.
type Config struct {
	// Connections maps a connection name to its credentials.
	Connections map[string]*ConnectionSpec `yaml:"connections"`

	// Targets are the mapped export targets.
	Targets []TargetConfig `yaml:"targets"`

	// StateFile stores the last applied setup state, relative to the config file.
	// Defaults to .graphsync.state.yaml.
	StateFile string `yaml:"state_file,omitempty"`

	// Dir is the directory the config was loaded from.
	Dir string `yaml:"-"`
}

// ConnectionSpec holds Neo4j connection settings.
type ConnectionSpec struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	// DB is the database name; empty means DefaultDatabase.
	DB string `yaml:"db,omitempty"`
}

// Database returns the configured database name or DefaultDatabase.
func (c ConnectionSpec) Database() string {
	if c.DB == "" {
		return DefaultDatabase
	}

	return c.DB
}

// TargetConfig configures one export target.
type TargetConfig struct {
	Name         string        `yaml:"name"`
	Connection   string        `yaml:"connection"`
	Mapping      MappingConfig `yaml:"mapping"`
	KeyFields    []FieldSchema `yaml:"key_fields"`
	ValueFields  []FieldSchema `yaml:"value_fields,omitempty"`
	IndexOptions IndexOptions  `yaml:"index_options,omitempty"`
}

// ConnectionRef returns the auth reference of the target's connection.
func (t *TargetConfig) ConnectionRef() AuthEntryReference {
	if t.Connection == "" {
		return AuthEntryReference{Key: DefaultConnection}
	}

	return AuthEntryReference{Key: t.Connection}
}

// EnvConfig holds settings read from the environment.
type EnvConfig struct {
	URI      string `env:"GRAPHSYNC_URI"`
	User     string `env:"GRAPHSYNC_USER"`
	Password string `env:"GRAPHSYNC_PASSWORD"`
	DB       string `env:"GRAPHSYNC_DB"`
	LogLevel string `env:"GRAPHSYNC_LOG_LEVEL" env-default:"info"`
}

// ReadEnv reads EnvConfig from the process environment.
func ReadEnv() (EnvConfig, error) {
	var env EnvConfig

	if err := cleanenv.ReadEnv(&env); err != nil {
		return EnvConfig{}, fmt.Errorf("graphsync: reading environment: %w", err)
	}

	return env, nil
}

// ApplyEnv overlays non-empty environment settings onto the default connection,
// creating it when the environment supplies a URI.
func (c *Config) ApplyEnv(env EnvConfig) {
	conn, ok := c.Connections[DefaultConnection]
	if !ok {
		if env.URI == "" {
			return
		}

		if c.Connections == nil {
			c.Connections = make(map[string]*ConnectionSpec)
		}

		conn = &ConnectionSpec{}
		c.Connections[DefaultConnection] = conn
	}

	if env.URI != "" {
		conn.URI = env.URI
	}

	if env.User != "" {
		conn.User = env.User
	}

	if env.Password != "" {
		conn.Password = env.Password
	}

	if env.DB != "" {
		conn.DB = env.DB
	}
}

// AuthRegistry builds a registry holding every configured connection.
func (c *Config) AuthRegistry() *AuthRegistry {
	reg := NewAuthRegistry()

	for name, conn := range c.Connections {
		if conn != nil {
			reg.Add(name, *conn)
		}
	}

	return reg
}

// Target returns the target with the given name.
func (c *Config) Target(name string) (*TargetConfig, error) {
	for i := range c.Targets {
		if c.Targets[i].Name == name {
			return &c.Targets[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, name)
}

// StatePath returns the absolute path of the setup state file.
func (c *Config) StatePath() string {
	name := c.StateFile
	if name == "" {
		name = DefaultStateFileName
	}

	if filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(c.Dir, name)
}

// LoadConfig finds and loads the nearest .graphsync.yaml walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.Dir = filepath.Dir(path)

	return cfg, nil
}

// ParseConfig decodes and validates a config document.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config

	err := yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(cfg.Targets))

	for _, t := range cfg.Targets {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: target without name", ErrInvalidMapping)
		}

		if seen[t.Name] {
			return nil, fmt.Errorf("%w: duplicate target %q", ErrInvalidMapping, t.Name)
		}

		seen[t.Name] = true

		if _, err := t.Mapping.Mapping(); err != nil {
			return nil, fmt.Errorf("target %q: %w", t.Name, err)
		}

		if len(t.KeyFields) == 0 {
			return nil, fmt.Errorf("%w: target %q has no key fields", ErrInvalidMapping, t.Name)
		}
	}

	return &cfg, nil
}
