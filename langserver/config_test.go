package langserver

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig()
	if c.ReadyPolicy != ReadyPolicyFast {
		t.Errorf("ready policy should default to fast, got %q", c.ReadyPolicy)
	}
	if time.Duration(c.FastStartGrace) != 5*time.Second {
		t.Errorf("fast-start grace default: %v", time.Duration(c.FastStartGrace))
	}
	if time.Duration(c.RequestTimeout) != 15*time.Second {
		t.Errorf("request timeout default: %v", time.Duration(c.RequestTimeout))
	}
	if time.Duration(c.ReloadDebounce) != 500*time.Millisecond {
		t.Errorf("reload debounce default: %v", time.Duration(c.ReloadDebounce))
	}
	if len(c.DiagnosticCategories) != 4 {
		t.Errorf("expected four diagnostic categories, got %v", c.DiagnosticCategories)
	}
	if c.GeneratedScheme == "" {
		t.Error("generated scheme must have a default")
	}
	if c.Markup.VirtualExt != "html" {
		t.Errorf("virtual extension default: %q", c.Markup.VirtualExt)
	}
	if len(c.BuildFileGlobs) == 0 {
		t.Error("build file globs must have defaults")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := `version: 1
primary:
  command: primary-engine
  args: ["--stdio"]
markup:
  command: markup-engine
  languages: ["razor"]
solution: App.sln
ready-policy: wait
ready-wait-timeout: 10s
request-timeout: 2s
reload-debounce: 250ms
diagnostic-categories: ["syntax", "semantic"]
settings:
  formatting:
    indentSize: 4
`
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadConfig(file)
	if err != nil {
		t.Fatal(err)
	}
	if c.Primary.Command != "primary-engine" {
		t.Errorf("primary command: %q", c.Primary.Command)
	}
	if len(c.Primary.Args) != 1 || c.Primary.Args[0] != "--stdio" {
		t.Errorf("primary args: %v", c.Primary.Args)
	}
	if c.Markup.Command != "markup-engine" {
		t.Errorf("markup command: %q", c.Markup.Command)
	}
	if len(c.Markup.Languages) != 1 || c.Markup.Languages[0] != "razor" {
		t.Errorf("markup languages: %v", c.Markup.Languages)
	}
	if c.Solution != "App.sln" {
		t.Errorf("solution: %q", c.Solution)
	}
	if c.ReadyPolicy != ReadyPolicyWait {
		t.Errorf("ready policy: %q", c.ReadyPolicy)
	}
	if time.Duration(c.ReadyWaitTimeout) != 10*time.Second {
		t.Errorf("ready wait timeout: %v", time.Duration(c.ReadyWaitTimeout))
	}
	if time.Duration(c.RequestTimeout) != 2*time.Second {
		t.Errorf("request timeout: %v", time.Duration(c.RequestTimeout))
	}
	if time.Duration(c.ReloadDebounce) != 250*time.Millisecond {
		t.Errorf("reload debounce: %v", time.Duration(c.ReloadDebounce))
	}
	if len(c.DiagnosticCategories) != 2 {
		t.Errorf("diagnostic categories: %v", c.DiagnosticCategories)
	}
	if c.Filename != file {
		t.Errorf("filename: %q", c.Filename)
	}
	if _, ok := c.Settings["formatting"]; !ok {
		t.Error("settings section missing")
	}
	if c.Markup.VirtualExt != "html" {
		t.Errorf("defaults should still apply, virtual ext: %q", c.Markup.VirtualExt)
	}
}
