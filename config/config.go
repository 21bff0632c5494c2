// Package config handles jedy.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/dhamidi/jedy/vm"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "jedy.toml"

// Config is the contents of a jedy.toml file.
type Config struct {
	ClassPath   []string `toml:"classpath"`
	JavaHome    string   `toml:"java-home"`
	LibraryPath []string `toml:"library-path"`
	Runtime     Runtime  `toml:"runtime"`
	Log         Log      `toml:"log"`

	// Dir is the directory relative paths resolve against (set at load time).
	Dir string `toml:"-"`
}

type Runtime struct {
	MaxDepth        int    `toml:"max-depth"`
	EntryMethod     string `toml:"entry-method"`
	EntryDescriptor string `toml:"entry-descriptor"`
}

type Log struct {
	Verbosity int    `toml:"verbosity"`
	Path      string `toml:"path"`
}

// Default is the configuration used when no jedy.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Runtime.MaxDepth <= 0 {
		c.Runtime.MaxDepth = vm.DefaultMaxDepth
	}
	if c.Runtime.EntryMethod == "" {
		c.Runtime.EntryMethod = "main"
	}
	if c.Runtime.EntryDescriptor == "" {
		c.Runtime.EntryDescriptor = vm.MainDescriptor
	}
}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find a jedy.toml file and loads it.
// Without one it returns Default().
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// ClassPathElements lists class-path entries in search order: classpath,
// then library-path, then the java.base module of java-home.
func (c *Config) ClassPathElements() []string {
	var elements []string
	for _, e := range c.ClassPath {
		elements = append(elements, c.resolve(e))
	}
	for _, e := range c.LibraryPath {
		elements = append(elements, c.resolve(e))
	}
	if c.JavaHome != "" {
		elements = append(elements, JavaBase(c.resolve(c.JavaHome)))
	}
	return elements
}

// JavaBase is the path of the java.base module inside a JDK.
func JavaBase(javaHome string) string {
	return filepath.Join(javaHome, "jmods", "java.base.jmod")
}

// LogPath is the configured log file, or "" for stderr.
func (c *Config) LogPath() string {
	if c.Log.Path == "" {
		return ""
	}
	return c.resolve(c.Log.Path)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}
