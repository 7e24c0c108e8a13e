// Package duplicates decides what to do when a new film collides with one
// already in the library.
package duplicates

import (
	"fmt"

	"reelsort/internal/compare"
)

// Action is what the organizer should do with the new file.
type Action int

const (
	// KeepBoth files the new release alongside the existing one.
	KeepBoth Action = iota
	// KeepExisting discards the new file in favor of the library copy.
	KeepExisting
	// Upgrade replaces the library copy with the new file.
	Upgrade
	// NotComparable means the pair is not actually the same film.
	NotComparable
)

func (a Action) String() string {
	switch a {
	case KeepExisting:
		return "keep existing"
	case Upgrade:
		return "upgrade"
	case NotComparable:
		return "not comparable"
	default:
		return "keep both"
	}
}

// Policy is the configured duplicate handling behavior.
type Policy struct {
	AllowUpgrades  bool
	ReplaceSmaller bool
	// UpgradeTable maps an existing file's resolution bucket onto the
	// resolutions that are allowed to replace it.
	UpgradeTable map[string][]string
	Compare      compare.Options
}

// Decision is the engine's verdict for one new/existing pair. Decisions are
// computed fresh every run and never persisted.
type Decision struct {
	Action Action
	Result compare.Result
	Detail string
}

// Decide resolves a collision between a new file and an existing library file.
// The comparator establishes the quality relation; this function applies the
// configured policy on top of it.
func Decide(newFile, existing compare.File, policy Policy) Decision {
	result := compare.Files(newFile, existing, policy.Compare)

	if result.Outcome == compare.NotComparable && result.Reason == compare.ReasonName {
		return Decision{Action: NotComparable, Result: result, Detail: "titles do not match"}
	}

	if !policy.AllowUpgrades {
		return Decision{Action: KeepExisting, Result: result, Detail: "upgrading disabled"}
	}

	switch result.Outcome {
	case compare.NotComparable, compare.Different:
		return Decision{Action: KeepBoth, Result: result,
			Detail: fmt.Sprintf("distinct releases (%s)", result.Reason)}

	case compare.Higher:
		if result.Reason == compare.ReasonResolution &&
			!policy.allowsUpgrade(existing, newFile) {
			return Decision{Action: KeepBoth, Result: result,
				Detail: fmt.Sprintf("%s not an allowed upgrade of %s",
					newFile.Info.Resolution, existing.Info.Resolution)}
		}
		return Decision{Action: Upgrade, Result: result,
			Detail: fmt.Sprintf("new file wins on %s", result.Reason)}

	case compare.Lower:
		if result.Reason == compare.ReasonResolution &&
			!policy.allowsUpgrade(newFile, existing) {
			return Decision{Action: KeepBoth, Result: result,
				Detail: fmt.Sprintf("%s and %s occupy separate slots",
					newFile.Info.Resolution, existing.Info.Resolution)}
		}
		return Decision{Action: KeepExisting, Result: result,
			Detail: fmt.Sprintf("existing file wins on %s", result.Reason)}

	case compare.Equal:
		switch result.Size {
		case compare.SizeBigger:
			if policy.ReplaceSmaller {
				return Decision{Action: Upgrade, Result: result, Detail: "bigger file replaces smaller"}
			}
			return Decision{Action: KeepExisting, Result: result, Detail: "equal quality, size replacement disabled"}
		case compare.SizeSmaller:
			return Decision{Action: KeepExisting, Result: result, Detail: "existing file is bigger"}
		default:
			return Decision{Action: KeepExisting, Result: result, Detail: "identical quality and size"}
		}
	}

	return Decision{Action: KeepBoth, Result: result, Detail: "no applicable rule"}
}

// allowsUpgrade reports whether the candidate's resolution is listed as an
// acceptable replacement for the incumbent's resolution bucket.
func (p Policy) allowsUpgrade(incumbent, candidate compare.File) bool {
	allowed, ok := p.UpgradeTable[incumbent.Info.Resolution.UpgradeKey()]
	if !ok {
		return false
	}
	want := candidate.Info.Resolution.String()
	for _, res := range allowed {
		if res == want {
			return true
		}
	}
	return false
}
