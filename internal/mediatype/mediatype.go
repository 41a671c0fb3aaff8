// Package mediatype maps file extensions to tag-capability profiles.
//
// The table is built once at init and never mutated. A profile describes
// which tag namespaces a container format supports, which downstream code
// uses to pick read/write tag vocabularies. Extensions outside the table
// resolve to Unknown, which short-circuits all processing for that file.
package mediatype

import (
	"path/filepath"
	"strings"
)

// Profile describes the tag namespaces a media format supports.
type Profile struct {
	Name         string
	SupportsEXIF bool
	SupportsIPTC bool
	SupportsXMP  bool
	SupportsQT   bool
	Recognized   bool
}

// Unknown is the profile for unrecognized extensions.
var Unknown = Profile{Name: "unknown"}

// SupportsWrite reports whether any tag namespace accepts writes.
func (p Profile) SupportsWrite() bool {
	return p.SupportsEXIF || p.SupportsIPTC || p.SupportsXMP || p.SupportsQT
}

var profiles = func() map[string]Profile {
	table := map[Profile][]string{
		{Name: "image", SupportsEXIF: true, SupportsIPTC: true, SupportsXMP: true, Recognized: true}: {
			".jpg", ".jpeg", ".jpe", ".png", ".tif", ".tiff",
		},
		{Name: "image-modern", SupportsEXIF: true, SupportsXMP: true, Recognized: true}: {
			".heic", ".heif", ".webp",
		},
		{Name: "video", SupportsXMP: true, SupportsQT: true, Recognized: true}: {
			".mp4", ".mov", ".m4v", ".3gp", ".mp",
		},
		{Name: "gif", SupportsXMP: true, Recognized: true}: {
			".gif",
		},
		{Name: "legacy", Recognized: true}: {
			".bmp", ".avi", ".wmv", ".mkv",
		},
	}
	byExt := make(map[string]Profile)
	for profile, exts := range table {
		for _, ext := range exts {
			byExt[ext] = profile
		}
	}
	return byExt
}()

// Lookup returns the capability profile for a media path based on its
// extension, or Unknown when the extension is not in the table.
func Lookup(path string) Profile {
	ext := strings.ToLower(filepath.Ext(path))
	if profile, ok := profiles[ext]; ok {
		return profile
	}
	return Unknown
}

// MotionPhotoExt is the legacy motion-photo container extension that is
// rewritten to MP4 at the destination.
const MotionPhotoExt = ".mp"
