package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Queue.Stream != "CONTENT_CHANGES" {
		t.Errorf("Queue.Stream = %q, want CONTENT_CHANGES", cfg.Queue.Stream)
	}
	if cfg.Cache.SearchTTL != 300*time.Second {
		t.Errorf("Cache.SearchTTL = %v, want 300s", cfg.Cache.SearchTTL)
	}
	if cfg.Sync.RetryAttempts != 3 {
		t.Errorf("Sync.RetryAttempts = %d, want 3", cfg.Sync.RetryAttempts)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SHOWGRID_SERVER_PORT", "9999")
	t.Setenv("SHOWGRID_DATABASE_URL", "postgres://db.internal:5432/showgrid")
	t.Setenv("SHOWGRID_QUEUE_SUBJECT", "content.changes.staging")
	t.Setenv("SHOWGRID_CACHE_SEARCH_TTL", "120s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999 from SHOWGRID_SERVER_PORT", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://db.internal:5432/showgrid" {
		t.Errorf("Database.URL = %q, want env value", cfg.Database.URL)
	}
	if cfg.Queue.Subject != "content.changes.staging" {
		t.Errorf("Queue.Subject = %q, want env value", cfg.Queue.Subject)
	}
	if cfg.Cache.SearchTTL != 120*time.Second {
		t.Errorf("Cache.SearchTTL = %v, want 120s from env", cfg.Cache.SearchTTL)
	}
}

func TestLoadEnvOverridesLeaveOthersDefault(t *testing.T) {
	t.Setenv("SHOWGRID_SERVER_PORT", "9001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("Server.Port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Search.Index != "cms_content" {
		t.Errorf("Search.Index = %q, want default cms_content", cfg.Search.Index)
	}
	if cfg.Cache.FeaturedTTL != 600*time.Second {
		t.Errorf("Cache.FeaturedTTL = %v, want default 600s", cfg.Cache.FeaturedTTL)
	}
}
