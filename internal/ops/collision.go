package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolveCollisionFreeName returns the first destination path under dir for
// basename that does not already exist, appending " (n)" before the
// extension for the smallest n >= 1 needed to avoid a collision.
func resolveCollisionFreeName(dir, basename string) (string, error) {
	candidate := filepath.Join(dir, basename)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	} else if err != nil {
		return "", fmt.Errorf("stat %s: %w", candidate, err)
	}

	ext := filepath.Ext(basename)
	stem := strings.TrimSuffix(basename, ext)

	for n := 1; ; n++ {
		name := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		candidate = filepath.Join(dir, name)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
	}
}
