package selector

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/calebandcode/diskhygiene/internal/types"
)

// ActiveProjectDetector detects the in_git_repo and recent_sibling_burst
// factors spec.md §4.7 defines behaviorally. The actual detection
// strategy — walk upward from a file's parent looking for a .git
// directory, caching repo roots; bucket sibling mtimes in the same parent
// directory within a 72h window — is ported verbatim from
// original_source/src-tauri/src/selector/active_project.rs, since spec.md
// is silent on the algorithm and only specifies the predicate.
type ActiveProjectDetector struct {
	mu       sync.Mutex
	repoRoot map[string]bool // parent dir -> true if under a git repo
}

// NewActiveProjectDetector builds an empty detector; caches are populated
// lazily per call to Detect.
func NewActiveProjectDetector() *ActiveProjectDetector {
	return &ActiveProjectDetector{repoRoot: make(map[string]bool)}
}

// Detect computes, for every distinct parent directory present in files,
// whether it lies under a git repo and whether it shows a burst of recent
// sibling modifications.
func (d *ActiveProjectDetector) Detect(files []types.File, now time.Time) (gitRepoDirs, burstDirs map[string]bool) {
	gitRepoDirs = make(map[string]bool)
	burstDirs = make(map[string]bool)

	byParent := make(map[string][]types.File)
	for _, f := range files {
		byParent[f.ParentDir] = append(byParent[f.ParentDir], f)
	}

	for parent, siblings := range byParent {
		if d.underGitRepo(parent) {
			gitRepoDirs[parent] = true
		}

		recent := 0
		for _, s := range siblings {
			if s.ModifiedAt != nil && now.Sub(*s.ModifiedAt) <= burstWindow {
				recent++
			}
		}
		if recent >= burstCount {
			burstDirs[parent] = true
		}
	}

	return gitRepoDirs, burstDirs
}

// underGitRepo walks upward from dir looking for a .git directory,
// caching the result per directory so repeated lookups are cheap.
func (d *ActiveProjectDetector) underGitRepo(dir string) bool {
	d.mu.Lock()
	if v, ok := d.repoRoot[dir]; ok {
		d.mu.Unlock()
		return v
	}
	d.mu.Unlock()

	cur := dir
	found := false
	for {
		if info, err := os.Stat(filepath.Join(cur, ".git")); err == nil && info.IsDir() {
			found = true
			break
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	d.mu.Lock()
	d.repoRoot[dir] = found
	d.mu.Unlock()
	return found
}
