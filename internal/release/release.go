// Package release parses film metadata out of file and folder names.
package release

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/moistari/rls"
)

// Resolution is the vertical resolution class of a release. Higher values are
// strictly better for comparison purposes; unknown ranks below everything.
type Resolution int

const (
	ResUnknown Resolution = iota
	Res480
	Res576
	Res720
	Res1080
	Res2160
)

func (r Resolution) String() string {
	switch r {
	case Res480:
		return "480p"
	case Res576:
		return "576p"
	case Res720:
		return "720p"
	case Res1080:
		return "1080p"
	case Res2160:
		return "2160p"
	default:
		return "unknown"
	}
}

// UpgradeKey maps a resolution onto the keys used by the upgrade table.
// Standard-definition resolutions share the "sd" bucket.
func (r Resolution) UpgradeKey() string {
	switch r {
	case Res480, Res576:
		return "sd"
	case Res720, Res1080, Res2160:
		return r.String()
	default:
		return "unknown"
	}
}

// ParseResolution maps a resolution token such as "1080p" onto its class.
func ParseResolution(token string) Resolution {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "480p", "480i":
		return Res480
	case "576p", "576i":
		return Res576
	case "720p":
		return Res720
	case "1080p", "1080i":
		return Res1080
	case "2160p", "4k":
		return Res2160
	default:
		return ResUnknown
	}
}

// Media is the source medium of a release. Higher values are strictly better.
// Remux releases share the Bluray rank.
type Media int

const (
	MediaUnknown Media = iota
	MediaSDTV
	MediaDVD
	MediaHDTV
	MediaWEB
	MediaBluray
)

func (m Media) String() string {
	switch m {
	case MediaSDTV:
		return "SDTV"
	case MediaDVD:
		return "DVD"
	case MediaHDTV:
		return "HDTV"
	case MediaWEB:
		return "WEB"
	case MediaBluray:
		return "Bluray"
	default:
		return "unknown"
	}
}

// ParseMedia maps a source token such as "BluRay" or "WEB-DL" onto its class.
func ParseMedia(token string) Media {
	t := strings.ToLower(strings.TrimSpace(token))
	switch {
	case t == "":
		return MediaUnknown
	case strings.Contains(t, "blu") || strings.Contains(t, "remux") || strings.Contains(t, "bd"):
		return MediaBluray
	case strings.Contains(t, "web"):
		return MediaWEB
	case strings.Contains(t, "hdtv"):
		return MediaHDTV
	case strings.Contains(t, "dvd"):
		return MediaDVD
	case strings.Contains(t, "sdtv") || strings.Contains(t, "pdtv") || t == "tv":
		return MediaSDTV
	default:
		return MediaUnknown
	}
}

// Info is the metadata parsed out of a single release name.
type Info struct {
	Raw        string
	Title      string
	Year       int
	Resolution Resolution
	Media      Media
	Edition    string
	HDR        bool
	Proper     bool
	Part       int
	Group      string
	IsTV       bool
}

var (
	partPattern = regexp.MustCompile(`(?i)[ ._(-](?:part|pt|cd|disc)[ ._-]?(\d{1,2})[ ._)-]?`)
	// extPattern matches real file extensions. Dotted folder names like
	// "Alien.1979" must keep their last segment.
	extPattern = regexp.MustCompile(`^\.[A-Za-z][A-Za-z0-9]{1,4}$`)
)

// Parse extracts film metadata from a file or folder name. For file names the
// extension is stripped before parsing.
func Parse(name string) Info {
	base := name
	if ext := filepath.Ext(base); extPattern.MatchString(ext) {
		base = strings.TrimSuffix(base, ext)
	}

	r := rls.ParseString(base)

	info := Info{
		Raw:        name,
		Title:      strings.TrimSpace(r.Title),
		Year:       r.Year,
		Resolution: ParseResolution(r.Resolution),
		Media:      ParseMedia(r.Source),
		Edition:    joinEdition(r.Cut, r.Edition),
		HDR:        len(r.HDR) > 0,
		Proper:     hasProperTag(r.Other),
		Group:      r.Group,
		IsTV:       r.Type == rls.Series || r.Type == rls.Episode || r.Series > 0 || r.Episode > 0,
	}

	if m := partPattern.FindStringSubmatch(base); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			info.Part = n
		}
	}

	return info
}

func joinEdition(cut, edition []string) string {
	parts := make([]string, 0, len(cut)+len(edition))
	seen := map[string]struct{}{}
	for _, token := range append(append([]string{}, cut...), edition...) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		key := strings.ToLower(token)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		parts = append(parts, token)
	}
	return strings.Join(parts, " ")
}

func hasProperTag(other []string) bool {
	for _, token := range other {
		upper := strings.ToUpper(strings.TrimSpace(token))
		if upper == "PROPER" || strings.HasPrefix(upper, "REPACK") || upper == "RERIP" {
			return true
		}
	}
	return false
}
