package compare_test

import (
	"testing"

	"reelsort/internal/compare"
	"reelsort/internal/release"
)

func file(res release.Resolution, media release.Media, opts ...func(*compare.File)) compare.File {
	f := compare.File{
		Info: release.Info{
			Title:      "Blade Runner",
			Year:       1982,
			Resolution: res,
			Media:      media,
		},
		Size: 4 << 30,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

func withEdition(e string) func(*compare.File) {
	return func(f *compare.File) { f.Info.Edition = e }
}

func withHDR() func(*compare.File) {
	return func(f *compare.File) { f.Info.HDR = true }
}

func withProper() func(*compare.File) {
	return func(f *compare.File) { f.Info.Proper = true }
}

func withSize(n int64) func(*compare.File) {
	return func(f *compare.File) { f.Size = n }
}

func withTitle(t string) func(*compare.File) {
	return func(f *compare.File) { f.Info.Title = t }
}

var opts = compare.Options{RespectEditions: true, SimilarityFloor: 0.8}

func TestMismatchedTitlesAreNotComparable(t *testing.T) {
	got := compare.Files(
		file(release.Res1080, release.MediaBluray, withTitle("Alien")),
		file(release.Res720, release.MediaWEB),
		opts,
	)
	if got.Outcome != compare.NotComparable || got.Reason != compare.ReasonName {
		t.Fatalf("got %s/%s", got.Outcome, got.Reason)
	}
}

func TestEditionMismatchBeatsResolution(t *testing.T) {
	got := compare.Files(
		file(release.Res2160, release.MediaBluray),
		file(release.Res1080, release.MediaBluray, withEdition("Directors Cut")),
		opts,
	)
	if got.Outcome != compare.Different || got.Reason != compare.ReasonEdition {
		t.Fatalf("got %s/%s", got.Outcome, got.Reason)
	}
}

func TestEditionIgnoredWhenDisabled(t *testing.T) {
	lax := compare.Options{RespectEditions: false, SimilarityFloor: 0.8}
	got := compare.Files(
		file(release.Res2160, release.MediaBluray),
		file(release.Res1080, release.MediaBluray, withEdition("Directors Cut")),
		lax,
	)
	if got.Outcome != compare.Higher || got.Reason != compare.ReasonResolution {
		t.Fatalf("got %s/%s", got.Outcome, got.Reason)
	}
}

func TestResolutionDecidesBeforeMedia(t *testing.T) {
	got := compare.Files(
		file(release.Res1080, release.MediaWEB),
		file(release.Res720, release.MediaBluray),
		opts,
	)
	if got.Outcome != compare.Higher || got.Reason != compare.ReasonResolution {
		t.Fatalf("got %s/%s", got.Outcome, got.Reason)
	}

	got = compare.Files(
		file(release.Res720, release.MediaBluray),
		file(release.Res1080, release.MediaWEB),
		opts,
	)
	if got.Outcome != compare.Lower || got.Reason != compare.ReasonResolution {
		t.Fatalf("got %s/%s", got.Outcome, got.Reason)
	}
}

func TestFullTieFallsThroughToSize(t *testing.T) {
	got := compare.Files(
		file(release.Res1080, release.MediaBluray, withSize(8<<30)),
		file(release.Res1080, release.MediaBluray, withSize(4<<30)),
		opts,
	)
	if got.Outcome != compare.Equal || got.Size != compare.SizeBigger {
		t.Fatalf("got %s/%s size=%s", got.Outcome, got.Reason, got.Size)
	}

	got = compare.Files(
		file(release.Res1080, release.MediaBluray, withSize(2<<30)),
		file(release.Res1080, release.MediaBluray, withSize(4<<30)),
		opts,
	)
	if got.Outcome != compare.Equal || got.Size != compare.SizeSmaller {
		t.Fatalf("got %s size=%s", got.Outcome, got.Size)
	}

	got = compare.Files(
		file(release.Res1080, release.MediaBluray),
		file(release.Res1080, release.MediaBluray),
		opts,
	)
	if got.Outcome != compare.Equal || got.Size != compare.SizeIdentical {
		t.Fatalf("got %s size=%s", got.Outcome, got.Size)
	}
}

func TestMediaRankDecidesWhenResolutionTies(t *testing.T) {
	got := compare.Files(
		file(release.Res1080, release.MediaBluray),
		file(release.Res1080, release.MediaWEB),
		opts,
	)
	if got.Outcome != compare.Higher || got.Reason != compare.ReasonMedia {
		t.Fatalf("got %s/%s", got.Outcome, got.Reason)
	}
}

func TestHDRMismatchIsNotComparable(t *testing.T) {
	got := compare.Files(
		file(release.Res2160, release.MediaWEB, withHDR()),
		file(release.Res2160, release.MediaWEB),
		opts,
	)
	if got.Outcome != compare.NotComparable || got.Reason != compare.ReasonHDR {
		t.Fatalf("got %s/%s", got.Outcome, got.Reason)
	}
}

func TestProperBreaksRemainingTies(t *testing.T) {
	got := compare.Files(
		file(release.Res1080, release.MediaBluray, withProper(), withHDR()),
		file(release.Res1080, release.MediaBluray, withHDR()),
		opts,
	)
	if got.Outcome != compare.Higher || got.Reason != compare.ReasonProper {
		t.Fatalf("got %s/%s", got.Outcome, got.Reason)
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := map[string]string{
		"The Matrix":           "matrix",
		"Amélie":               "amélie",
		"Fast & Furious":       "fast and furious",
		"  WALL·E  ":           "wall e",
		"A Beautiful Mind":     "beautiful mind",
		"V for Vendetta (UHD)": "v for vendetta uhd",
	}
	for in, want := range cases {
		if got := compare.NormalizeTitle(in); got != want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTitlesMatchUsesFloor(t *testing.T) {
	if !compare.TitlesMatch("The Matrix", "Matrix, The", 0.8) {
		t.Fatal("article placement should not break a match")
	}
	if compare.TitlesMatch("Heat", "Se7en", 0.8) {
		t.Fatal("unrelated titles should not match")
	}
}
