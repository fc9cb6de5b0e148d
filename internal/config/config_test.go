package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults to a minimal config", func(t *testing.T) {
		path := writeConfig(t, "debug: true\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if !cfg.Debug {
			t.Error("debug not parsed")
		}
		if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
			t.Errorf("server defaults = %s:%d", cfg.Server.Host, cfg.Server.Port)
		}
		if cfg.Embedding.Dimensions != 384 {
			t.Errorf("dimensions default = %d", cfg.Embedding.Dimensions)
		}
		if cfg.Recommend.SemanticWeight != 0.6 || cfg.Recommend.LexicalWeight != 0.25 || cfg.Recommend.DomainWeight != 0.15 {
			t.Errorf("weight defaults = %v/%v/%v",
				cfg.Recommend.SemanticWeight, cfg.Recommend.LexicalWeight, cfg.Recommend.DomainWeight)
		}
		if cfg.Recommend.SameDocumentK != 3 || cfg.Recommend.CrossDocumentK != 3 {
			t.Errorf("k defaults = %d/%d", cfg.Recommend.SameDocumentK, cfg.Recommend.CrossDocumentK)
		}
		if cfg.Recommend.SnippetLength != 200 {
			t.Errorf("snippet length default = %d", cfg.Recommend.SnippetLength)
		}
	})

	t.Run("explicit values win over defaults", func(t *testing.T) {
		path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9090
recommend:
  semantic_weight: 0.5
  same_document_k: 5
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
			t.Errorf("server = %s:%d", cfg.Server.Host, cfg.Server.Port)
		}
		if cfg.Recommend.SemanticWeight != 0.5 {
			t.Errorf("semantic weight = %v", cfg.Recommend.SemanticWeight)
		}
		if cfg.Recommend.SameDocumentK != 5 {
			t.Errorf("same_document_k = %d", cfg.Recommend.SameDocumentK)
		}
	})

	t.Run("relative storage paths resolve against the config dir", func(t *testing.T) {
		path := writeConfig(t, `
storage:
  database_path: ./tsunagu.db
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		want := filepath.Join(filepath.Dir(path), "tsunagu.db")
		if cfg.Storage.DatabasePath != want {
			t.Errorf("database path = %q, want %q", cfg.Storage.DatabasePath, want)
		}
	})

	t.Run("watch recursive defaults to true when directories are set", func(t *testing.T) {
		path := writeConfig(t, `
watch:
  directories:
    - /tmp/docs
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if !cfg.Watch.RecursiveOrDefault() {
			t.Error("recursive should default to true")
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("Load of missing file should fail")
		}
	})

	t.Run("invalid yaml fails", func(t *testing.T) {
		path := writeConfig(t, "server: [not: a map\n")
		if _, err := Load(path); err == nil {
			t.Error("Load of invalid yaml should fail")
		}
	})
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Watch.Directories = []string{"/tmp/docs"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Save error: %v", err)
	}
	if len(loaded.Watch.Directories) != 1 || loaded.Watch.Directories[0] != "/tmp/docs" {
		t.Errorf("round-tripped directories = %v", loaded.Watch.Directories)
	}
}
