package fields

import "strconv"

// AverageRating is the backend-computed mean of a movie's review ratings.
// A nil *AverageRating means the movie is unrated or its rating fetch failed.
type AverageRating float64

func (r *AverageRating) String() string {
	if r == nil {
		return "unrated"
	}
	return strconv.FormatFloat(float64(*r), 'f', 2, 64)
}
