package fs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// expiryLayouts are the accepted formats of a premium expiry date.
var expiryLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02 15:04:05"}

// LoadPremiumUsers reads every *.yaml file in dir. Each file maps user names
// to the date their premium status expires. It returns the lowercased names
// whose expiry is not before now, sorted and without duplicates.
// A missing dir yields no users.
func LoadPremiumUsers(dir string, now time.Time, logger *slog.Logger) ([]string, error) {
	logger = orDiscard(logger)
	if dir == "" {
		return nil, nil
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logger.Warn("skipping non-existing config dir", "dir", dir)
		return nil, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)

	var users []string
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		var entries map[string]string
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}

		for name, expiry := range entries {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			expiresAt, ok := parseExpiry(expiry)
			if !ok || expiresAt.Before(now) {
				logger.Info("premium ended", "user", name, "expiry", expiry)
				continue
			}
			users = append(users, name)
		}
	}

	slices.Sort(users)
	users = slices.Compact(users)
	logger.Info("loaded premium users", "count", len(users), "dir", dir)
	return users, nil
}

func parseExpiry(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
