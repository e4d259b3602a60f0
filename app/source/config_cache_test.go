package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/buildsignals/buildsignals/app/signal"
)

func writeSourceConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestConfigCache_LoadAndGet(t *testing.T) {
	dir := t.TempDir()
	writeSourceConfig(t, dir, "ask_hn", `
type: ask_hn
settings:
  enabled: true
  refresh_interval: 1800
  max_items: 25
validation:
  min_score: 30
  min_comments: 20
`)

	cc := NewConfigCache(dir)
	if err := cc.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	config, err := cc.GetConfig("ask_hn")
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}

	if config.Type != signal.SourceAskHN {
		t.Errorf("Expected type ask_hn, got %s", config.Type)
	}
	if !config.Settings.Enabled {
		t.Error("Expected source to be enabled")
	}
	if config.Settings.RefreshInterval != 1800 {
		t.Errorf("Expected refresh interval 1800, got %d", config.Settings.RefreshInterval)
	}
	if config.Settings.MaxItems != 25 {
		t.Errorf("Expected max items 25, got %d", config.Settings.MaxItems)
	}
	if config.Validation.MinScore != 30 || config.Validation.MinComments != 20 {
		t.Errorf("Expected validation thresholds 30/20, got %d/%d",
			config.Validation.MinScore, config.Validation.MinComments)
	}
}

func TestConfigCache_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeSourceConfig(t, dir, "github_trending", `
type: github_trending
settings:
  enabled: true
`)

	cc := NewConfigCache(dir)
	if err := cc.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	config, err := cc.GetConfig("github_trending")
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}

	if config.Settings.RefreshInterval != 3600 {
		t.Errorf("Expected default refresh interval 3600, got %d", config.Settings.RefreshInterval)
	}
	if config.Settings.MaxItems != 50 {
		t.Errorf("Expected default max items 50, got %d", config.Settings.MaxItems)
	}
	if config.Settings.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got %d", config.Settings.Timeout)
	}
}

func TestConfigCache_RejectsUnknownType(t *testing.T) {
	dir := t.TempDir()
	writeSourceConfig(t, dir, "bad", `
type: twitter
settings:
  enabled: true
`)

	cc := NewConfigCache(dir)
	if err := cc.Run(); err == nil {
		t.Error("Expected error for unknown source type")
	}
}

func TestConfigCache_RSSRequiresURL(t *testing.T) {
	dir := t.TempDir()
	writeSourceConfig(t, dir, "blog", `
type: rss
settings:
  enabled: true
`)

	cc := NewConfigCache(dir)
	if err := cc.Run(); err == nil {
		t.Error("Expected error for rss source without url")
	}
}

func TestConfigCache_EnabledConfigsAndThresholds(t *testing.T) {
	dir := t.TempDir()
	writeSourceConfig(t, dir, "ask_hn", `
type: ask_hn
settings:
  enabled: true
validation:
  min_score: 15
  min_comments: 10
`)
	writeSourceConfig(t, dir, "product_hunt", `
type: product_hunt
settings:
  enabled: false
`)

	cc := NewConfigCache(dir)
	if err := cc.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if cc.GetConfigCount() != 2 {
		t.Errorf("Expected 2 configs, got %d", cc.GetConfigCount())
	}

	enabled := cc.GetEnabledConfigs()
	if len(enabled) != 1 {
		t.Errorf("Expected 1 enabled config, got %d", len(enabled))
	}
	if _, ok := enabled["ask_hn"]; !ok {
		t.Error("Expected ask_hn to be enabled")
	}

	thresholds := cc.Thresholds()
	th, ok := thresholds[signal.SourceAskHN]
	if !ok {
		t.Fatal("Expected thresholds for ask_hn")
	}
	if th.MinScore != 15 || th.MinComments != 10 {
		t.Errorf("Expected thresholds 15/10, got %d/%d", th.MinScore, th.MinComments)
	}

	if _, ok := thresholds[signal.SourceProductHunt]; ok {
		t.Error("Sources without explicit thresholds should not appear")
	}
}
