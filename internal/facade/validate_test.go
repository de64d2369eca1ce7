package facade

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calebandcode/diskhygiene/internal/apperr"
)

func TestSanitizeString_StripsControlCharsAndTruncates(t *testing.T) {
	require.Equal(t, "hello", sanitizeString("h\x00e\x01l\x02l\x03o", 100))
	require.Equal(t, "hel", sanitizeString("hello", 3))
}

func TestSanitizeNote_TruncatesAt256(t *testing.T) {
	long := strings.Repeat("a", 300)
	require.Len(t, sanitizeNote(long), 256)
}

func TestValidatePath_RejectsDotDotAndEmpty(t *testing.T) {
	require.Error(t, validatePath(""))
	require.Error(t, validatePath("a/../b"))
}

func TestValidatePath_RejectsFilesystemRoot(t *testing.T) {
	require.Error(t, validatePath("/"))
}

func TestValidatePath_AcceptsExistingDir(t *testing.T) {
	require.NoError(t, validatePath(t.TempDir()))
}

func TestValidatePath_RejectsMissingAbsolutePath(t *testing.T) {
	require.Error(t, validatePath("/this/path/should/not/exist/anywhere"))
}

func TestValidateFileIDs_RejectsEmptyAndNonPositive(t *testing.T) {
	_, err := validateFileIDs(nil)
	require.Error(t, err)

	_, err = validateFileIDs([]int64{1, 0, 2})
	require.Error(t, err)

	_, err = validateFileIDs([]int64{1, -1})
	require.Error(t, err)
}

func TestValidateFileIDs_DeduplicatesPreservingOrder(t *testing.T) {
	ids, err := validateFileIDs([]int64{3, 1, 3, 2, 1})
	require.NoError(t, err)
	require.Equal(t, []int64{3, 1, 2}, ids)
}

func TestValidateFileIDs_RejectsOverLimit(t *testing.T) {
	ids := make([]int64, 1001)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	_, err := validateFileIDs(ids)
	require.Error(t, err)
}

func TestValidateLimit_Bounds(t *testing.T) {
	_, err := validateLimit(0, 100)
	require.Error(t, err)

	_, err = validateLimit(101, 100)
	require.Error(t, err)

	v, err := validateLimit(50, 100)
	require.NoError(t, err)
	require.Equal(t, 50, v)
}

func TestValidatePrefValue_NumericBoundsPerKey(t *testing.T) {
	require.Nil(t, validatePrefValue("tidy_hour", "9"))
	require.NotNil(t, validatePrefValue("tidy_hour", "24"))
	require.NotNil(t, validatePrefValue("tidy_hour", "-1"))

	require.Nil(t, validatePrefValue("rolling_window_days", "7"))
	require.NotNil(t, validatePrefValue("rolling_window_days", "0"))
	require.NotNil(t, validatePrefValue("rolling_window_days", "366"))

	require.Nil(t, validatePrefValue("thumbnail_cache_age_days", "100"))
	require.NotNil(t, validatePrefValue("thumbnail_cache_age_days", "9999"))

	require.Nil(t, validatePrefValue("some_unknown_pref", "42"), "unrecognized keys still require a numeric value but have no further bounds")
}

func TestValidatePrefValue_RejectsNonNumeric(t *testing.T) {
	var target *apperr.Error
	target = validatePrefValue("tidy_hour", "noon")
	require.NotNil(t, target)
}
