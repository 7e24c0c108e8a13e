package duplicates_test

import (
	"testing"

	"reelsort/internal/compare"
	"reelsort/internal/duplicates"
	"reelsort/internal/release"
)

func film(res release.Resolution, media release.Media, size int64) compare.File {
	return compare.File{
		Info: release.Info{
			Title:      "Heat",
			Year:       1995,
			Resolution: res,
			Media:      media,
		},
		Size: size,
	}
}

func policy() duplicates.Policy {
	return duplicates.Policy{
		AllowUpgrades: true,
		UpgradeTable: map[string][]string{
			"sd":    {"720p", "1080p"},
			"720p":  {"1080p"},
			"1080p": {},
			"2160p": {},
		},
		Compare: compare.Options{RespectEditions: true, SimilarityFloor: 0.8},
	}
}

func TestResolutionUpgradeAllowedByTable(t *testing.T) {
	got := duplicates.Decide(
		film(release.Res1080, release.MediaBluray, 8<<30),
		film(release.Res720, release.MediaWEB, 3<<30),
		policy(),
	)
	if got.Action != duplicates.Upgrade {
		t.Fatalf("action = %s (%s)", got.Action, got.Detail)
	}
	if got.Result.Reason != compare.ReasonResolution {
		t.Fatalf("reason = %s", got.Result.Reason)
	}
}

func TestResolutionUpgradeBlockedByTable(t *testing.T) {
	got := duplicates.Decide(
		film(release.Res2160, release.MediaBluray, 20<<30),
		film(release.Res1080, release.MediaBluray, 8<<30),
		policy(),
	)
	if got.Action != duplicates.KeepBoth {
		t.Fatalf("action = %s (%s)", got.Action, got.Detail)
	}
}

func TestLowerResolutionOutsideTableKeepsBoth(t *testing.T) {
	// 1080p incumbent beside a new 2160p is covered above; the reverse
	// direction also stays side by side when 2160p lists no upgrades.
	got := duplicates.Decide(
		film(release.Res1080, release.MediaBluray, 8<<30),
		film(release.Res2160, release.MediaBluray, 20<<30),
		policy(),
	)
	if got.Action != duplicates.KeepBoth {
		t.Fatalf("action = %s (%s)", got.Action, got.Detail)
	}
}

func TestLowerResolutionInsideTableKeepsExisting(t *testing.T) {
	got := duplicates.Decide(
		film(release.Res720, release.MediaWEB, 3<<30),
		film(release.Res1080, release.MediaBluray, 8<<30),
		policy(),
	)
	if got.Action != duplicates.KeepExisting {
		t.Fatalf("action = %s (%s)", got.Action, got.Detail)
	}
}

func TestUpgradesDisabledAlwaysKeepsExisting(t *testing.T) {
	p := policy()
	p.AllowUpgrades = false
	got := duplicates.Decide(
		film(release.Res1080, release.MediaBluray, 8<<30),
		film(release.Res720, release.MediaWEB, 3<<30),
		p,
	)
	if got.Action != duplicates.KeepExisting {
		t.Fatalf("action = %s (%s)", got.Action, got.Detail)
	}
}

func TestEditionMismatchKeepsBoth(t *testing.T) {
	existing := film(release.Res1080, release.MediaBluray, 8<<30)
	existing.Info.Edition = "Directors Cut"
	got := duplicates.Decide(
		film(release.Res1080, release.MediaBluray, 8<<30),
		existing,
		policy(),
	)
	if got.Action != duplicates.KeepBoth {
		t.Fatalf("action = %s (%s)", got.Action, got.Detail)
	}
	if got.Result.Reason != compare.ReasonEdition {
		t.Fatalf("reason = %s", got.Result.Reason)
	}
}

func TestHDRMismatchKeepsBoth(t *testing.T) {
	hdr := film(release.Res2160, release.MediaWEB, 15<<30)
	hdr.Info.HDR = true
	got := duplicates.Decide(hdr, film(release.Res2160, release.MediaWEB, 12<<30), policy())
	if got.Action != duplicates.KeepBoth {
		t.Fatalf("action = %s (%s)", got.Action, got.Detail)
	}
}

func TestTitleMismatchIsNotComparable(t *testing.T) {
	other := film(release.Res1080, release.MediaBluray, 8<<30)
	other.Info.Title = "Collateral"
	got := duplicates.Decide(other, film(release.Res1080, release.MediaBluray, 8<<30), policy())
	if got.Action != duplicates.NotComparable {
		t.Fatalf("action = %s (%s)", got.Action, got.Detail)
	}
}

func TestReplaceSmaller(t *testing.T) {
	bigger := film(release.Res1080, release.MediaBluray, 10<<30)
	smaller := film(release.Res1080, release.MediaBluray, 6<<30)

	got := duplicates.Decide(bigger, smaller, policy())
	if got.Action != duplicates.KeepExisting {
		t.Fatalf("replace_smaller off: action = %s", got.Action)
	}

	p := policy()
	p.ReplaceSmaller = true
	got = duplicates.Decide(bigger, smaller, p)
	if got.Action != duplicates.Upgrade {
		t.Fatalf("replace_smaller on: action = %s (%s)", got.Action, got.Detail)
	}

	got = duplicates.Decide(smaller, bigger, p)
	if got.Action != duplicates.KeepExisting {
		t.Fatalf("smaller new file: action = %s", got.Action)
	}
}

func TestIdenticalFilesKeepExisting(t *testing.T) {
	a := film(release.Res1080, release.MediaBluray, 8<<30)
	b := film(release.Res1080, release.MediaBluray, 8<<30)
	got := duplicates.Decide(a, b, policy())
	if got.Action != duplicates.KeepExisting {
		t.Fatalf("action = %s (%s)", got.Action, got.Detail)
	}
	if got.Result.Size != compare.SizeIdentical {
		t.Fatalf("size = %s", got.Result.Size)
	}
}
