// Package selector is the bucketed, penalised scoring engine from spec.md
// §4.7, ported from original_source/src-tauri/src/selector/{mod,scoring}.rs
// (FileScorer, ScoringContext, Candidate) into Go structs and pure
// functions. The Rust version's weights and clamping match spec.md exactly.
package selector

import (
	"context"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/calebandcode/diskhygiene/internal/store"
	"github.com/calebandcode/diskhygiene/internal/types"
)

// Bucket is one of the four predicate-defined categories.
type Bucket string

const (
	BucketScreenshot   Bucket = "screenshot"
	BucketBigDownload  Bucket = "big_download"
	BucketOldDesktop   Bucket = "old_desktop"
	BucketDuplicate    Bucket = "duplicate"
)

const (
	maxSizeBytes = 2 << 30 // 2 GiB
	maxAgeDays   = 365.0

	bigDownloadSize = 100 << 20 // 100 MiB
	bigDownloadAge  = 30.0
	oldDesktopAge   = 14.0

	burstWindow = 72 * time.Hour
	burstCount  = 3
)

var keywords = []string{"current", "project", "active", "wip", "final"}

// Candidate is one ranked disposal candidate.
type Candidate struct {
	FileID      int64
	Path        string
	ParentDir   string
	SizeBytes   int64
	Bucket      Bucket
	Score       float64
	Confidence  float64
	PreviewHint string
	AgeDays     float64
}

// Factors are the raw inputs to the scoring formula for one file.
type Factors struct {
	SizeBytes          int64
	AgeDays            float64
	IsDuplicate        bool
	IsUnopened         bool
	HasKeywordFlag     bool
	InGitRepo          bool
	RecentSiblingBurst bool
}

// Context supplies the cross-file detection state the per-file predicates
// need: which full digests are duplicated, which parent directories sit
// under a git repo, and which parent directories show a recent burst of
// sibling modifications.
type Context struct {
	DuplicateDigests map[string]bool
	GitRepoDirs      map[string]bool
	BurstDirs        map[string]bool
}

// AgeDays computes a file's age in days from the best available of
// accessed/modified/last_seen, per spec.md §4.7.
func AgeDays(f types.File, now time.Time) float64 {
	var basis time.Time
	switch {
	case f.AccessedAt != nil:
		basis = *f.AccessedAt
	case f.ModifiedAt != nil:
		basis = *f.ModifiedAt
	default:
		basis = f.LastSeenAt
	}
	return now.Sub(basis).Hours() / 24
}

// Buckets classifies a file into zero or more buckets per spec.md §4.7's
// predicate table.
func Buckets(f types.File, age float64, ctx Context) []Bucket {
	var buckets []Bucket

	name := strings.ToLower(filepath.Base(f.Path))
	ancestors := lowerSegments(f.ParentDir)

	if strings.Contains(name, "screenshot") || containsSegment(ancestors, "screenshots") {
		buckets = append(buckets, BucketScreenshot)
	}

	if containsSegment(ancestors, "downloads") && f.SizeBytes > bigDownloadSize {
		unopenedOrOld := f.LastOpenedAt == nil || age > bigDownloadAge
		if unopenedOrOld {
			buckets = append(buckets, BucketBigDownload)
		}
	}

	if containsSegment(ancestors, "desktop") && age > oldDesktopAge {
		buckets = append(buckets, BucketOldDesktop)
	}

	if f.SizeBytes <= maxSizeBytes && f.FullDigest != "" && ctx.DuplicateDigests[f.FullDigest] {
		buckets = append(buckets, BucketDuplicate)
	}

	return buckets
}

func lowerSegments(dir string) []string {
	parts := strings.Split(filepath.ToSlash(dir), "/")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.ToLower(p)
	}
	return out
}

func containsSegment(segments []string, target string) bool {
	for _, s := range segments {
		if s == target {
			return true
		}
	}
	return false
}

// ExtractFactors derives the scoring factors for one file.
func ExtractFactors(f types.File, age float64, ctx Context) Factors {
	path := strings.ToLower(f.Path)
	hasKeyword := false
	for _, kw := range keywords {
		if strings.Contains(path, kw) {
			hasKeyword = true
			break
		}
	}

	return Factors{
		SizeBytes:          f.SizeBytes,
		AgeDays:            age,
		IsDuplicate:        f.FullDigest != "" && ctx.DuplicateDigests[f.FullDigest],
		IsUnopened:         f.LastOpenedAt == nil && f.AccessedAt == nil,
		HasKeywordFlag:     hasKeyword,
		InGitRepo:          ctx.GitRepoDirs[f.ParentDir],
		RecentSiblingBurst: ctx.BurstDirs[f.ParentDir],
	}
}

func normSize(size int64) float64 {
	s := size
	if s < 1 {
		s = 1
	}
	v := math.Log(float64(s)) / math.Log(float64(maxSizeBytes))
	return clamp01(v)
}

func normAge(ageDays float64) float64 {
	return clamp01(ageDays / maxAgeDays)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func boolF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Score computes spec.md §4.7's weighted score, clamped to [0, 1].
func Score(f Factors) float64 {
	v := 0.45*normSize(f.SizeBytes) +
		0.25*normAge(f.AgeDays) +
		0.20*boolF(f.IsDuplicate) +
		0.10*boolF(f.IsUnopened) -
		0.30*boolF(f.HasKeywordFlag) -
		0.80*boolF(f.InGitRepo) -
		0.70*boolF(f.RecentSiblingBurst)
	return clamp01(v)
}

// Confidence computes spec.md §4.7's confidence formula, clamped to [0, 1].
func Confidence(f Factors) float64 {
	c := 0.5
	if f.IsDuplicate {
		c += 0.20
	}
	if f.IsUnopened && f.AgeDays > 30 {
		c += 0.15
	}
	if f.SizeBytes > bigDownloadSize {
		c += 0.10
	}
	if f.InGitRepo {
		c -= 0.20
	}
	if f.HasKeywordFlag {
		c -= 0.10
	}
	if f.RecentSiblingBurst {
		c -= 0.15
	}
	return clamp01(c)
}

// PreviewHint builds a short human-readable reason string from whichever
// factors are set, falling back to "candidate" when none apply.
func PreviewHint(f Factors) string {
	var hints []string
	if f.IsDuplicate {
		hints = append(hints, "duplicate")
	}
	if f.IsUnopened {
		hints = append(hints, "unopened")
	}
	if f.SizeBytes > bigDownloadSize {
		hints = append(hints, "large")
	}
	if f.AgeDays > oldDesktopAge {
		hints = append(hints, "old")
	}
	if f.InGitRepo {
		hints = append(hints, "git-repo")
	}
	if f.HasKeywordFlag {
		hints = append(hints, "flagged")
	}
	if f.RecentSiblingBurst {
		hints = append(hints, "recent-activity")
	}
	if len(hints) == 0 {
		return "candidate"
	}
	return strings.Join(hints, ", ")
}

// bucketCaps are the per-bucket selection caps from spec.md §4.7.
var bucketCaps = map[Bucket]int{
	BucketScreenshot:  5,
	BucketBigDownload: 3,
	BucketOldDesktop:  2,
	BucketDuplicate:   2,
}

// bucketPriority breaks a dedup tie between two entries for the same file
// that land in different buckets with the same score: the earlier bucket
// in this list wins. Order matches the const declarations above.
var bucketPriority = []Bucket{BucketScreenshot, BucketBigDownload, BucketOldDesktop, BucketDuplicate}

func bucketRank(b Bucket) int {
	for i, x := range bucketPriority {
		if x == b {
			return i
		}
	}
	return len(bucketPriority)
}

// DefaultGlobalCap is the global candidate cap, overridable per call.
const DefaultGlobalCap = 12

// Select runs the full classify-score-select pipeline over the index
// store's live files and returns the ranked candidate list, applying
// per-bucket caps, the global cap, and the (score desc, last_seen desc)
// tie-break.
func Select(ctx context.Context, st *store.Store, detector *ActiveProjectDetector, globalCap int) ([]Candidate, error) {
	if globalCap <= 0 {
		globalCap = DefaultGlobalCap
	}

	files, err := st.LiveFiles(ctx)
	if err != nil {
		return nil, err
	}

	dupGroups, err := st.DuplicateGroups(ctx, 200)
	if err != nil {
		return nil, err
	}
	dupDigests := make(map[string]bool, len(dupGroups))
	for _, g := range dupGroups {
		dupDigests[g.FullDigest] = true
	}

	now := time.Now()
	sctx := Context{DuplicateDigests: dupDigests}
	if detector != nil {
		sctx.GitRepoDirs, sctx.BurstDirs = detector.Detect(files, now)
	}

	perBucket := make(map[Bucket][]scoredFile)
	for _, f := range files {
		age := AgeDays(f, now)
		buckets := Buckets(f, age, sctx)
		if len(buckets) == 0 {
			continue
		}
		factors := ExtractFactors(f, age, sctx)
		sc := scoredFile{
			file:       f,
			age:        age,
			score:      Score(factors),
			confidence: Confidence(factors),
			hint:       PreviewHint(factors),
		}
		for _, b := range buckets {
			perBucket[b] = append(perBucket[b], sc)
		}
	}

	var winners []Candidate
	for bucket, scored := range perBucket {
		sort.Slice(scored, func(i, j int) bool {
			if scored[i].score != scored[j].score {
				return scored[i].score > scored[j].score
			}
			return scored[i].file.LastSeenAt.After(scored[j].file.LastSeenAt)
		})
		cap := bucketCaps[bucket]
		if cap > len(scored) {
			cap = len(scored)
		}
		for _, sc := range scored[:cap] {
			winners = append(winners, Candidate{
				FileID: sc.file.ID, Path: sc.file.Path, ParentDir: sc.file.ParentDir,
				SizeBytes: sc.file.SizeBytes, Bucket: bucket, Score: sc.score,
				Confidence: sc.confidence, PreviewHint: sc.hint, AgeDays: sc.age,
			})
		}
	}

	winners = dedupeByFileID(winners)

	sort.Slice(winners, func(i, j int) bool { return winners[i].Score > winners[j].Score })
	if len(winners) > globalCap {
		winners = winners[:globalCap]
	}
	return winners, nil
}

// dedupeByFileID collapses a file that won a slot in more than one bucket
// (e.g. an old file under Desktop whose name also contains "screenshot")
// down to a single entry, per spec.md §8 testable property 8 ("no
// duplicate file ids"). A file's score is identical across every bucket it
// landed in (bucket membership doesn't feed the scoring formula), so ties
// are broken by bucketPriority for determinism.
func dedupeByFileID(cands []Candidate) []Candidate {
	bestIdx := make(map[int64]int, len(cands))
	for i, c := range cands {
		j, ok := bestIdx[c.FileID]
		if !ok {
			bestIdx[c.FileID] = i
			continue
		}
		best := cands[j]
		if c.Score > best.Score || (c.Score == best.Score && bucketRank(c.Bucket) < bucketRank(best.Bucket)) {
			bestIdx[c.FileID] = i
		}
	}

	out := make([]Candidate, 0, len(bestIdx))
	for _, i := range bestIdx {
		out = append(out, cands[i])
	}
	return out
}

type scoredFile struct {
	file       types.File
	age        float64
	score      float64
	confidence float64
	hint       string
}
