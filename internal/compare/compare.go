// Package compare ranks two files that claim to be the same film.
package compare

import (
	"reelsort/internal/release"
)

// Outcome classifies the new file relative to the existing one.
type Outcome int

const (
	// NotComparable means no ordering could be established.
	NotComparable Outcome = iota
	// Different means the files are distinct releases that both deserve a slot.
	Different
	// Higher means the new file outranks the existing one.
	Higher
	// Lower means the existing file outranks the new one.
	Lower
	// Equal means quality attributes tie; Result.Size carries the byte delta.
	Equal
)

func (o Outcome) String() string {
	switch o {
	case Different:
		return "different"
	case Higher:
		return "higher"
	case Lower:
		return "lower"
	case Equal:
		return "equal"
	default:
		return "not comparable"
	}
}

// Reason names the rule that produced an outcome.
type Reason int

const (
	ReasonFallback Reason = iota
	ReasonName
	ReasonEdition
	ReasonResolution
	ReasonMedia
	ReasonHDR
	ReasonProper
	ReasonSize
)

func (r Reason) String() string {
	switch r {
	case ReasonName:
		return "name"
	case ReasonEdition:
		return "edition"
	case ReasonResolution:
		return "resolution"
	case ReasonMedia:
		return "media"
	case ReasonHDR:
		return "hdr"
	case ReasonProper:
		return "proper"
	case ReasonSize:
		return "size"
	default:
		return "fallback"
	}
}

// SizeDelta is the byte-size relation of the new file to the existing one.
// It is meaningful only on an Equal outcome.
type SizeDelta int

const (
	SizeIdentical SizeDelta = iota
	SizeBigger
	SizeSmaller
)

func (s SizeDelta) String() string {
	switch s {
	case SizeBigger:
		return "bigger"
	case SizeSmaller:
		return "smaller"
	default:
		return "identical"
	}
}

// File is one side of a comparison.
type File struct {
	Info release.Info
	Size int64
}

// Result is the verdict for a single pair of files.
type Result struct {
	Outcome Outcome
	Reason  Reason
	Size    SizeDelta
}

// Options tunes the comparison.
type Options struct {
	// RespectEditions makes edition mismatches yield Different instead of
	// being ignored.
	RespectEditions bool
	// SimilarityFloor is the minimum normalized title similarity, 0..1.
	SimilarityFloor float64
}

// Files compares a new file against an existing one. The rules apply strictly
// in order; the first rule that discriminates decides the result:
//
//  1. titles that do not match make the pair not comparable
//  2. an edition mismatch marks the files as different releases
//  3. a resolution difference wins outright
//  4. a full tie on resolution, media, HDR, and proper falls through to size
//  5. a media difference wins
//  6. an HDR mismatch makes the pair not comparable
//  7. a proper release beats a non-proper one
//  8. anything left is not comparable
func Files(newFile, existing File, opts Options) Result {
	if !TitlesMatch(newFile.Info.Title, existing.Info.Title, opts.SimilarityFloor) {
		return Result{Outcome: NotComparable, Reason: ReasonName}
	}

	if opts.RespectEditions && !editionsMatch(newFile.Info, existing.Info) {
		return Result{Outcome: Different, Reason: ReasonEdition}
	}

	if newFile.Info.Resolution != existing.Info.Resolution {
		if newFile.Info.Resolution > existing.Info.Resolution {
			return Result{Outcome: Higher, Reason: ReasonResolution}
		}
		return Result{Outcome: Lower, Reason: ReasonResolution}
	}

	if newFile.Info.Media == existing.Info.Media &&
		newFile.Info.HDR == existing.Info.HDR &&
		newFile.Info.Proper == existing.Info.Proper {
		return Result{Outcome: Equal, Reason: ReasonSize, Size: sizeDelta(newFile.Size, existing.Size)}
	}

	if newFile.Info.Media != existing.Info.Media {
		if newFile.Info.Media > existing.Info.Media {
			return Result{Outcome: Higher, Reason: ReasonMedia}
		}
		return Result{Outcome: Lower, Reason: ReasonMedia}
	}

	if newFile.Info.HDR != existing.Info.HDR {
		return Result{Outcome: NotComparable, Reason: ReasonHDR}
	}

	if newFile.Info.Proper != existing.Info.Proper {
		if newFile.Info.Proper {
			return Result{Outcome: Higher, Reason: ReasonProper}
		}
		return Result{Outcome: Lower, Reason: ReasonProper}
	}

	return Result{Outcome: NotComparable, Reason: ReasonFallback}
}

func editionsMatch(a, b release.Info) bool {
	return normalizeToken(a.Edition) == normalizeToken(b.Edition)
}

func sizeDelta(newSize, existingSize int64) SizeDelta {
	switch {
	case newSize > existingSize:
		return SizeBigger
	case newSize < existingSize:
		return SizeSmaller
	default:
		return SizeIdentical
	}
}
