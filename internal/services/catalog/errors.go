package catalog

import "errors"

var ErrMovieNotLoaded = errors.New("movie is not in the loaded catalog")
