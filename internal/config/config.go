// Package config resolves the per-user data directory and reads the
// bootstrap-only seed file that pre-populates watched roots and the archive
// base path before the index store exists. It generalizes an INI-style
// parser (config.ini, paths/backup sections) to this domain's seed format.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProductName names the per-user data directory and the default archive
// folder, a single hardcoded app identity.
const ProductName = "DiskHygiene"

// Seed is the bootstrap configuration read once from config.ini, before the
// index store exists or has any preferences recorded.
type Seed struct {
	// ArchiveBasePath overrides the default "<home>/Archive/<Product>" base.
	ArchiveBasePath string

	// Roots are watched-root paths to pre-seed on first run.
	Roots []string

	// RollingWindowDays seeds the gauge's default rolling-window preference.
	RollingWindowDays int
}

// DataDir resolves the per-user data directory the index store, logs, and
// seed file live under: <UserConfigDir>/<ProductName>, falling back to
// <UserHomeDir>/.<productname> when the primary location can't be resolved.
func DataDir() (string, error) {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, ProductName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve data directory: %w", err)
	}
	return filepath.Join(home, "."+strings.ToLower(ProductName)), nil
}

// DefaultArchiveBase returns "<user_home>/Archive/<ProductName>" per the
// archive layout.
func DefaultArchiveBase() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, "Archive", ProductName), nil
}

// ReadSeed reads configDir/config.ini if present. A missing seed file is not
// an error: it only matters on a brand-new data directory, and once the
// store exists its contents are never consulted again for values the store
// already has.
//
// File format (an INI grammar with bracketed sections):
//
//	[archive]
//	path=/home/me/Archive/DiskHygiene
//
//	[roots]
//	/home/me/Desktop
//	/home/me/Downloads, yes
//
//	[prefs]
//	rolling_window_days=7
func ReadSeed(configDir string) (Seed, error) {
	path := filepath.Join(configDir, "config.ini")

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Seed{RollingWindowDays: 7}, nil
		}
		return Seed{}, fmt.Errorf("read config.ini: %w", err)
	}

	content := stripBOM(string(b))
	sections, standalone, err := parseIniSections(content)
	if err != nil {
		return Seed{}, fmt.Errorf("parse config.ini: %w", err)
	}

	seed := Seed{RollingWindowDays: 7}

	if archive, ok := sections["archive"]; ok {
		if p, ok := archive["path"]; ok && p != "" {
			seed.ArchiveBasePath = p
		}
	}

	for _, line := range standalone["roots"] {
		path, _, err := parsePathLine(line)
		if err != nil {
			continue
		}
		seed.Roots = append(seed.Roots, path)
	}
	if rootsInline, ok := sections["roots"]["paths"]; ok && rootsInline != "" {
		for _, line := range strings.Split(rootsInline, "\n") {
			path, _, err := parsePathLine(line)
			if err != nil {
				continue
			}
			seed.Roots = append(seed.Roots, path)
		}
	}

	if prefs, ok := sections["prefs"]; ok {
		if v, ok := prefs["rolling_window_days"]; ok {
			var n int
			if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
				seed.RollingWindowDays = n
			}
		}
	}

	return seed, nil
}

func stripBOM(s string) string {
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF {
		return s[3:]
	}
	return s
}

// parseIniSections parses a simple INI-style config file into section →
// key/value pairs, plus standalone (bare, no "=") lines per section.
func parseIniSections(content string) (map[string]map[string]string, map[string][]string, error) {
	sections := make(map[string]map[string]string)
	standaloneLines := make(map[string][]string)
	var currentSection string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			sectionName := strings.Trim(line, "[]")
			if sectionName == "" {
				return nil, nil, fmt.Errorf("empty section name")
			}
			currentSection = sectionName
			sections[currentSection] = make(map[string]string)
			continue
		}

		if currentSection == "" {
			return nil, nil, fmt.Errorf("line outside of section: %s", line)
		}

		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			sections[currentSection][key] = value
		} else {
			standaloneLines[currentSection] = append(standaloneLines[currentSection], line)
		}
	}

	return sections, standaloneLines, nil
}

// parsePathLine parses one path entry, optionally suffixed ", yes"/", no"
// in the style of a per-path on/off flag; the trailing token is accepted
// but unused here (roots have no per-root on/off switch in this domain) so
// malformed trailing tokens never reject the path itself.
func parsePathLine(line string) (string, bool, error) {
	if strings.Contains(line, ",") {
		parts := strings.SplitN(line, ",", 2)
		path := strings.TrimSpace(parts[0])
		if path == "" {
			return "", false, fmt.Errorf("empty path in line: %s", line)
		}
		return path, true, nil
	}
	path := strings.TrimSpace(line)
	if path == "" {
		return "", false, fmt.Errorf("empty path")
	}
	return path, true, nil
}
