package library

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"reelsort/internal/release"
)

var illegalPathChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// FolderName renders the library folder for a film, "Title (Year)".
func FolderName(info release.Info) string {
	title := sanitize(info.Title)
	if title == "" {
		title = "Unknown"
	}
	if info.Year > 0 {
		return fmt.Sprintf("%s (%d)", title, info.Year)
	}
	return title
}

// FileName renders the destination file name for a film's main video file.
// Quality tags are kept in the name so coexisting releases of the same film
// stay distinguishable.
func FileName(info release.Info, ext string) string {
	base := FolderName(info)

	if info.Part > 0 {
		base = fmt.Sprintf("%s - Part %d", base, info.Part)
	}
	if info.Edition != "" {
		base = fmt.Sprintf("%s [%s]", base, sanitize(info.Edition))
	}

	var quality []string
	if info.Media != release.MediaUnknown {
		quality = append(quality, info.Media.String())
	}
	if info.Resolution != release.ResUnknown {
		quality = append(quality, info.Resolution.String())
	}
	if info.HDR {
		quality = append(quality, "HDR")
	}
	if len(quality) > 0 {
		base = fmt.Sprintf("%s [%s]", base, strings.Join(quality, "-"))
	}

	return base + strings.ToLower(ext)
}

// SidecarName renders the destination name for a sidecar file, preserving
// everything after the original video stem (language suffixes and the like).
func SidecarName(info release.Info, videoStem, sidecarBase string) string {
	suffix := strings.TrimPrefix(sidecarBase, videoStem)
	return FileNameStem(info) + suffix
}

// FileNameStem is FileName without an extension.
func FileNameStem(info release.Info) string {
	return strings.TrimSuffix(FileName(info, ".x"), ".x")
}

// TargetPath renders the full destination path for a film's main video file.
func TargetPath(root string, info release.Info, mainFile string) string {
	return filepath.Join(root, FolderName(info), FileName(info, filepath.Ext(mainFile)))
}

func sanitize(s string) string {
	cleaned := illegalPathChars.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(cleaned), " ")
}
