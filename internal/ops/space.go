package ops

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/calebandcode/diskhygiene/internal/platform"
)

// freeSpaceBuffer is the safety margin required above the sum of source
// sizes, per spec.md §4.4 Preflight (iii).
const freeSpaceBuffer = 0.05

// SpaceChecker abstracts the preflight free-space check so tests can inject
// a fake for low-space scenarios — ported as a named seam from
// original_source/src-tauri/src/ops/space.rs's SpaceManager, which
// spec.md's distillation describes only behaviorally (§4.4 Preflight iii).
type SpaceChecker interface {
	// HasSpaceFor reports whether dir's volume has at least
	// totalBytes*(1+freeSpaceBuffer) available.
	HasSpaceFor(dir string, totalBytes int64) (bool, error)
}

// PlatformSpaceChecker queries the real OS free-space syscall via
// internal/platform.
type PlatformSpaceChecker struct{}

func (PlatformSpaceChecker) HasSpaceFor(dir string, totalBytes int64) (bool, error) {
	free, err := platform.FreeSpace(dir)
	if err != nil {
		return false, fmt.Errorf("query free space for %s: %w", dir, err)
	}
	required := uint64(float64(totalBytes) * (1 + freeSpaceBuffer))
	return free >= required, nil
}

// preflightWritable creates then removes a zero-length probe file in dir,
// per spec.md §4.4 Preflight (ii).
func preflightWritable(dir string) error {
	probe := filepath.Join(dir, ".diskhygiene-write-probe")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("write probe in %s: %w", dir, err)
	}
	f.Close()
	return os.Remove(probe)
}
