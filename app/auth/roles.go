package auth

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// rolesFile is the on-disk layout of the role assignments, keyed by e-mail:
//
//	admins:
//	  - alice@example.com
//	moderators:
//	  - bob@example.com
type rolesFile struct {
	Admins     []string `yaml:"admins"`
	Moderators []string `yaml:"moderators"`
}

// RoleDirectory grants roles to users by e-mail address. Addresses are
// compared after Unicode case folding.
type RoleDirectory struct {
	path   string
	byMail map[string][]string
	mu     sync.RWMutex
}

func NewRoleDirectory(path string) *RoleDirectory {
	return &RoleDirectory{
		path:   path,
		byMail: make(map[string][]string),
	}
}

// Load reads the role file. A directory without a path, or whose file does
// not exist, grants no roles.
func (rd *RoleDirectory) Load() error {
	if rd.path == "" {
		return nil
	}

	data, err := os.ReadFile(rd.path)
	if os.IsNotExist(err) {
		slog.Warn("Roles file not found", "path", rd.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read roles file: %w", err)
	}

	var file rolesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse roles file %s: %w", rd.path, err)
	}

	byMail := make(map[string][]string)
	assign := func(emails []string, role string) error {
		for i, email := range emails {
			key := rd.key(email)
			if key == "" {
				return fmt.Errorf("empty e-mail at index %d of %s list", i, role)
			}
			byMail[key] = append(byMail[key], role)
		}
		return nil
	}

	if err := assign(file.Admins, RoleAdmin); err != nil {
		return fmt.Errorf("invalid roles file %s: %w", rd.path, err)
	}
	if err := assign(file.Moderators, RoleModerator); err != nil {
		return fmt.Errorf("invalid roles file %s: %w", rd.path, err)
	}

	rd.mu.Lock()
	defer rd.mu.Unlock()
	rd.byMail = byMail

	slog.Debug("Roles loaded", "path", rd.path, "admins", len(file.Admins), "moderators", len(file.Moderators))
	return nil
}

func (rd *RoleDirectory) RolesFor(email string) []string {
	key := rd.key(email)
	if key == "" {
		return nil
	}

	rd.mu.RLock()
	defer rd.mu.RUnlock()
	return append([]string(nil), rd.byMail[key]...)
}

func (rd *RoleDirectory) Count() int {
	rd.mu.RLock()
	defer rd.mu.RUnlock()
	return len(rd.byMail)
}

// key folds an address. A Caser carries state, so it is not shared between
// goroutines.
func (rd *RoleDirectory) key(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	return cases.Fold().String(email)
}
