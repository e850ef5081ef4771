package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const collisionSuffixFormat = "20060102_150405"

// ClaimPath reserves a collision-free location for baseName inside dir and
// returns it. The base name is tried first; on collision a timestamp suffix
// is appended, then a numbered variant. Each candidate is reserved with an
// exclusive create, so name resolution is atomic with respect to concurrent
// claimers and the caller may write over the placeholder without overwriting
// anyone else's file. now may be nil.
func ClaimPath(dir, baseName string, now func() time.Time) (string, error) {
	const maxAttempts = 10000

	if now == nil {
		now = time.Now
	}
	stem := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	ext := filepath.Ext(baseName)
	suffix := now().Format(collisionSuffixFormat)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var candidate string
		switch attempt {
		case 0:
			candidate = filepath.Join(dir, baseName)
		case 1:
			candidate = filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, suffix, ext))
		default:
			candidate = filepath.Join(dir, fmt.Sprintf("%s_%s_%d%s", stem, suffix, attempt, ext))
		}

		handle, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return "", fmt.Errorf("claim %s: %w", candidate, err)
		}
		if err := handle.Close(); err != nil {
			_ = os.Remove(candidate)
			return "", fmt.Errorf("claim %s: %w", candidate, err)
		}
		return candidate, nil
	}
	return "", fmt.Errorf("no free name for %s in %s", baseName, dir)
}
