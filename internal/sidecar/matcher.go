// Package sidecar locates the Takeout JSON description file that accompanies
// a media asset. The export tooling has produced several naming schemes over
// the years, so matching walks a fixed candidate list from most to least
// specific and falls back to a glob for export-added middle suffixes.
package sidecar

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const supplementalSuffix = ".supplemental-metadata.json"

// editedMarker tags the re-exported edited variant of an asset; its sidecar
// is named after the unedited original.
const editedMarker = "-edited"

var duplicateCounter = regexp.MustCompile(`(\(\d+\))$`)

// IsEditedVariant reports whether a filename is the re-exported edited copy
// of another asset.
func IsEditedVariant(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.Contains(stem, editedMarker)
}

// Find returns the best-matching sidecar path for a media file, or false when
// none exists. The result is deterministic for a fixed set of files on disk:
// candidates are probed in a fixed priority order, and glob matches are
// ranked by specificity rather than directory order.
func Find(mediaPath string) (string, bool) {
	dir := filepath.Dir(mediaPath)
	name := filepath.Base(mediaPath)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidates := []string{
		// Standard: name.ext.json
		filepath.Join(dir, name+".json"),
		// Legacy short form: name.json
		filepath.Join(dir, stem+".json"),
		// Supplemental-metadata forms of both.
		filepath.Join(dir, name+supplementalSuffix),
		filepath.Join(dir, stem+supplementalSuffix),
	}

	if strings.Contains(stem, editedMarker) {
		originalStem := strings.ReplaceAll(stem, editedMarker, "")
		candidates = append(candidates,
			filepath.Join(dir, originalStem+ext+".json"),
			filepath.Join(dir, originalStem+".json"),
		)
	}

	if counter := duplicateCounter.FindString(stem); counter != "" {
		// The export transposes the counter past the extension:
		// name(1).jpg pairs with name.jpg(1).json.
		baseStem := strings.TrimSuffix(stem, counter)
		candidates = append(candidates,
			filepath.Join(dir, baseStem+ext+counter+".json"),
			filepath.Join(dir, stem+".json"),
		)
	}

	for _, candidate := range candidates {
		if fileExists(candidate) {
			return candidate, true
		}
	}

	if match, ok := globMatch(dir, name, stem); ok {
		return match, true
	}
	return "", false
}

// globMatch catches sidecars with export-added middle suffixes, e.g.
// name.jpg.some.other.json. Multiple hits are scored by specificity and the
// best (lowest) score wins; ties break lexicographically.
func globMatch(dir, name, stem string) (string, bool) {
	pattern := filepath.Join(escapeGlob(dir), escapeGlob(stem)+".*json")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)

	best := ""
	bestScore := int(^uint(0) >> 1)
	for _, match := range matches {
		if score := specificity(filepath.Base(match), name, stem); score < bestScore {
			best = match
			bestScore = score
		}
	}
	return best, best != ""
}

func specificity(candidate, name, stem string) int {
	switch {
	case candidate == name+".json":
		return 0
	case candidate == stem+".json":
		return 1
	case strings.HasPrefix(candidate, name+"."):
		return 2
	default:
		return 3
	}
}

// escapeGlob neutralizes glob metacharacters so filenames containing
// brackets or stars match literally.
func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
