package scanner

import (
	"path/filepath"
	"strings"

	"reelsort/internal/logging"
	"reelsort/internal/release"
)

// Unit is one detected film: a claimed root path plus the member files that
// travel together when it is filed.
type Unit struct {
	// Root is the claimed path: a directory for folder releases, the video
	// file itself for loose files.
	Root   string
	Origin string
	// MainFile is the largest qualifying video file.
	MainFile string
	Videos   []string
	Sidecars []string
	// Size is the combined byte size of all member files.
	Size int64
	Info release.Info
	// Unverified is set when metadata lookup failed or found no confident
	// match and the unit carries only locally parsed metadata.
	Unverified bool
}

// Members returns every file belonging to the unit, videos first.
func (u Unit) Members() []string {
	members := make([]string, 0, len(u.Videos)+len(u.Sidecars))
	members = append(members, u.Videos...)
	members = append(members, u.Sidecars...)
	return members
}

// dirUnit builds a unit from a claimed film root directory, collecting member
// files at any depth beneath it.
func (s *Scanner) dirUnit(c *classifier, root string) (Unit, bool) {
	unit := Unit{Root: root, Origin: c.origin}
	s.collectMembers(c, root, &unit)

	if unit.MainFile == "" {
		return Unit{}, false
	}

	unit.Info = release.Parse(filepath.Base(root))
	mainInfo := release.Parse(filepath.Base(unit.MainFile))
	mergeInfo(&unit.Info, mainInfo)

	if unit.Info.Year == 0 {
		unit.Info.Year = c.directVideoYear(root)
	}
	if unit.Info.IsTV {
		s.logger.Info("skipping tv release", logging.String("path", root))
		return Unit{}, false
	}
	return unit, true
}

// fileUnit builds a unit from a loose video file, pulling in sidecar files
// that share its stem.
func (s *Scanner) fileUnit(c *classifier, path string) (Unit, bool) {
	f := c.factsFor(path)
	unit := Unit{
		Root:     path,
		Origin:   c.origin,
		MainFile: path,
		Videos:   []string{path},
		Size:     f.Size,
		Info:     release.Parse(filepath.Base(path)),
	}
	if unit.Info.IsTV {
		s.logger.Info("skipping tv release", logging.String("path", path))
		return Unit{}, false
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, sibling := range c.childPaths(filepath.Dir(path)) {
		sf := c.factsFor(sibling)
		if sf.Ignored || sf.IsDir || !sf.IsSidecar {
			continue
		}
		if strings.HasPrefix(filepath.Base(sibling), stem) {
			unit.Sidecars = append(unit.Sidecars, sibling)
			unit.Size += sf.Size
		}
	}
	return unit, true
}

func (s *Scanner) collectMembers(c *classifier, dir string, unit *Unit) {
	var mainSize int64
	var walk func(string)
	walk = func(d string) {
		for _, path := range c.childPaths(d) {
			f := c.factsFor(path)
			if f.Ignored {
				continue
			}
			if f.IsDir {
				walk(path)
				continue
			}
			switch {
			case f.IsVideo && f.Size >= s.opts.MinFileSize:
				unit.Videos = append(unit.Videos, path)
				unit.Size += f.Size
				if f.Size > mainSize {
					mainSize = f.Size
					unit.MainFile = path
				}
			case f.IsSidecar:
				unit.Sidecars = append(unit.Sidecars, path)
				unit.Size += f.Size
			}
		}
	}
	walk(dir)
}

// mergeInfo fills gaps in the folder-derived metadata from the main file's
// own name. File names usually carry the quality tags; folder names usually
// carry the cleaner title.
func mergeInfo(dst *release.Info, src release.Info) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	if dst.Resolution == release.ResUnknown {
		dst.Resolution = src.Resolution
	}
	if dst.Media == release.MediaUnknown {
		dst.Media = src.Media
	}
	if dst.Edition == "" {
		dst.Edition = src.Edition
	}
	dst.HDR = dst.HDR || src.HDR
	dst.Proper = dst.Proper || src.Proper
	if dst.Part == 0 {
		dst.Part = src.Part
	}
	dst.IsTV = dst.IsTV || src.IsTV
}
