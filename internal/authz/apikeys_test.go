package authz_test

import (
	"os"
	"path/filepath"
	"testing"

	"member-service/internal/authz"
)

func TestLoadAPIKeyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apikeys.json")
	content := `{
		"reporting-key": {
			"events": ["GET"],
			"auditlog": ["GET"]
		},
		"sync-key": {
			"events": ["GET", "POST", "PATCH"]
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	table, err := authz.LoadAPIKeyTable(path)
	if err != nil {
		t.Fatalf("LoadAPIKeyTable returned error: %v", err)
	}

	if len(table) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(table))
	}
	if !table["reporting-key"]["events"]["GET"] {
		t.Error("reporting-key should allow GET on events")
	}
	if table["reporting-key"]["events"]["POST"] {
		t.Error("reporting-key must not allow POST on events")
	}
	if !table["sync-key"]["events"]["PATCH"] {
		t.Error("sync-key should allow PATCH on events")
	}
}

func TestLoadAPIKeyTableEmptyPath(t *testing.T) {
	table, err := authz.LoadAPIKeyTable("")
	if err != nil {
		t.Fatalf("empty path should yield an empty table: %v", err)
	}
	if len(table) != 0 {
		t.Errorf("expected empty table, got %d entries", len(table))
	}
}

func TestLoadAPIKeyTableErrors(t *testing.T) {
	if _, err := authz.LoadAPIKeyTable(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should error")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := authz.LoadAPIKeyTable(path); err == nil {
		t.Error("malformed file should error")
	}
}
