package langserver

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EngineConfig describes how to launch one backend engine subprocess.
type EngineConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
	Env     []string `yaml:"env,omitempty"`
}

// MarkupConfig describes the lazily started markup formatting engine and
// which editor language ids route to it.
type MarkupConfig struct {
	EngineConfig `yaml:",inline"`
	Languages    []string `yaml:"languages,omitempty"`
	VirtualExt   string   `yaml:"virtual-ext,omitempty"`
}

// ReadyPolicyWait is
const (
	ReadyPolicyWait = "wait"
	ReadyPolicyFast = "fast"
	ReadyPolicyFail = "fail"
)

// Config is
type Config struct {
	Version int `yaml:"version"`

	Primary EngineConfig `yaml:"primary"`
	Markup  MarkupConfig `yaml:"markup,omitempty"`

	// Solution or Projects pin the workspace target; when both are empty
	// the first solution file under the workspace root is used.
	Solution string   `yaml:"solution,omitempty"`
	Projects []string `yaml:"projects,omitempty"`

	ReadyPolicy      string   `yaml:"ready-policy,omitempty"`
	FastStartGrace   Duration `yaml:"fast-start-grace,omitempty"`
	ReadyWaitTimeout Duration `yaml:"ready-wait-timeout,omitempty"`
	RequestTimeout   Duration `yaml:"request-timeout,omitempty"`
	ReloadDebounce   Duration `yaml:"reload-debounce,omitempty"`

	NotificationCapacity int      `yaml:"notification-capacity,omitempty"`
	DiagnosticCategories []string `yaml:"diagnostic-categories,omitempty"`

	GeneratedScheme  string   `yaml:"generated-scheme,omitempty"`
	BuildOutputRoots []string `yaml:"build-output-roots,omitempty"`
	BuildFileGlobs   []string `yaml:"build-file-globs,omitempty"`

	// StderrFormats are errorformat patterns applied to the primary
	// engine's stderr output.
	StderrFormats []string `yaml:"stderr-formats,omitempty"`

	// Settings answers the engine's workspace/configuration pulls,
	// keyed by section name.
	Settings map[string]interface{} `yaml:"settings,omitempty"`

	DependencyPath string `yaml:"dependency-path,omitempty"`
	AutoFetch      bool   `yaml:"auto-fetch,omitempty"`

	LogFile  string `yaml:"log-file,omitempty"`
	LogLevel int    `yaml:"log-level,omitempty"`

	Filename  string    `yaml:"-"`
	LogWriter io.Writer `yaml:"-"`
}

// NewConfig returns a configuration with defaults applied; the engine
// command must still be supplied by the caller or a config file.
func NewConfig() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

// LoadConfig load configuration from file
func LoadConfig(yamlfile string) (*Config, error) {
	f, err := os.Open(yamlfile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var config Config
	if err := yaml.NewDecoder(f).Decode(&config); err != nil {
		return nil, fmt.Errorf("can not read configuration: %v", err)
	}
	config.Filename = yamlfile
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.ReadyPolicy == "" {
		c.ReadyPolicy = ReadyPolicyFast
	}
	if c.FastStartGrace == 0 {
		c.FastStartGrace = Duration(5 * time.Second)
	}
	if c.ReadyWaitTimeout == 0 {
		c.ReadyWaitTimeout = Duration(30 * time.Second)
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = Duration(15 * time.Second)
	}
	if c.ReloadDebounce == 0 {
		c.ReloadDebounce = Duration(500 * time.Millisecond)
	}
	if len(c.DiagnosticCategories) == 0 {
		c.DiagnosticCategories = []string{"syntax", "semantic", "analyzer-syntax", "analyzer-semantic"}
	}
	if c.GeneratedScheme == "" {
		c.GeneratedScheme = "bridgels-generated"
	}
	if len(c.BuildFileGlobs) == 0 {
		c.BuildFileGlobs = []string{
			"*.sln", "*.slnx", "*.csproj", "*.props", "*.targets",
			"packages.lock.json", "global.json", "nuget.config",
		}
	}
	if c.Markup.VirtualExt == "" {
		c.Markup.VirtualExt = "html"
	}
}
