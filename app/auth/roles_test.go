package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRoleDirectoryLoad(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "roles.yml")

	content := `
admins:
  - Alice@Example.com
moderators:
  - bob@example.com
  - alice@example.com
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	roles := NewRoleDirectory(path)
	if err := roles.Load(); err != nil {
		t.Fatal(err)
	}

	if roles.Count() != 2 {
		t.Errorf("Expected 2 users, got %d", roles.Count())
	}

	alice := roles.RolesFor("ALICE@example.COM")
	if strings.Join(alice, ",") != "admin,moderator" {
		t.Errorf("Expected admin,moderator for alice, got %v", alice)
	}

	bob := roles.RolesFor(" bob@example.com ")
	if strings.Join(bob, ",") != "moderator" {
		t.Errorf("Expected moderator for bob, got %v", bob)
	}

	if got := roles.RolesFor("carol@example.com"); len(got) != 0 {
		t.Errorf("Expected no roles for carol, got %v", got)
	}
	if got := roles.RolesFor(""); got != nil {
		t.Errorf("Expected nil for empty e-mail, got %v", got)
	}
}

func TestRoleDirectoryMissingFile(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.yml")} {
		roles := NewRoleDirectory(path)
		if err := roles.Load(); err != nil {
			t.Errorf("Expected no error for %q, got %v", path, err)
		}
		if roles.Count() != 0 {
			t.Errorf("Expected empty directory for %q", path)
		}
	}
}

func TestRoleDirectoryInvalidFile(t *testing.T) {
	tests := map[string]string{
		"bad yaml":    "admins: [unterminated",
		"empty email": "admins:\n  - \"\"\n",
		"wrong type":  "admins: 42\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "roles.yml")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}

			if err := NewRoleDirectory(path).Load(); err == nil {
				t.Error("Expected load error")
			}
		})
	}
}

func TestRoleDirectoryReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yml")
	os.WriteFile(path, []byte("admins: [a@example.com]\n"), 0644)

	roles := NewRoleDirectory(path)
	if err := roles.Load(); err != nil {
		t.Fatal(err)
	}

	os.WriteFile(path, []byte("moderators: [b@example.com]\n"), 0644)
	if err := roles.Load(); err != nil {
		t.Fatal(err)
	}

	if got := roles.RolesFor("a@example.com"); len(got) != 0 {
		t.Errorf("Expected a@example.com to lose its role, got %v", got)
	}
	if got := roles.RolesFor("b@example.com"); len(got) != 1 {
		t.Errorf("Expected b@example.com to be moderator, got %v", got)
	}
}
