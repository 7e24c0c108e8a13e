package lookup

import (
	"math"

	"reelsort/internal/compare"
	"reelsort/internal/tmdb"
)

// confidenceThreshold is the minimum score for a match to be trusted.
const confidenceThreshold = 0.70

// scoreCandidate rates how likely a search result is the film we parsed.
// Title similarity dominates; year agreement and community signal adjust it.
func scoreCandidate(movie tmdb.Movie, title string, year int) float64 {
	similarity := compare.Similarity(title, movie.Title)
	if alt := compare.Similarity(title, movie.OriginalTitle); alt > similarity {
		similarity = alt
	}
	score := similarity * 0.70

	movieYear := movie.Year()
	switch {
	case year == 0 || movieYear == 0:
		score += 0.05
	case year == movieYear:
		score += 0.20
	case absInt(year-movieYear) == 1:
		// Festival premieres and regional dates are commonly a year apart.
		score += 0.12
	}

	// Popularity and vote count separate the real film from obscure
	// same-title entries. Log scale keeps blockbusters from drowning
	// everything else.
	if movie.VoteCount > 0 {
		score += math.Min(0.06, math.Log10(float64(movie.VoteCount+1))*0.015)
	}
	if movie.Popularity > 0 {
		score += math.Min(0.04, math.Log10(movie.Popularity+1)*0.02)
	}

	return score
}

// bestMatch picks the highest scoring candidate, or ok=false when none
// clears the confidence threshold.
func bestMatch(movies []tmdb.Movie, title string, year int) (tmdb.Movie, bool) {
	var best tmdb.Movie
	bestScore := 0.0
	for _, movie := range movies {
		if score := scoreCandidate(movie, title, year); score > bestScore {
			best = movie
			bestScore = score
		}
	}
	return best, bestScore >= confidenceThreshold
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
