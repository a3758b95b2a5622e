package catalog

import (
	"context"
	"log/slog"
	"sync"

	"reelrate/proj/internal/domain/filters"
	"reelrate/proj/internal/domain/models"
	"reelrate/proj/internal/lib/validator"
	"reelrate/proj/internal/session"

	govalidator "github.com/go-playground/validator/v10"
)

// MovieForm carries the add/edit movie fields. Title is the only field the
// client checks itself; everything else is the backend's call.
type MovieForm struct {
	Title       string `json:"title" validate:"required"`
	Year        int32  `json:"year,omitempty" validate:"omitempty,gte=1888,lte=2100"`
	Genre       string `json:"genre,omitempty"`
	Description string `json:"description,omitempty"`
}

type BackendProvider interface {
	ListMovies(ctx context.Context, params filters.ListParams) ([]models.Movie, error)
	MovieRating(ctx context.Context, movieID string) (*models.Rating, error)
	CreateMovie(ctx context.Context, token string, form MovieForm) (*models.Movie, error)
	UpdateMovie(ctx context.Context, token, movieID string, form MovieForm) (*models.Movie, error)
	DeleteMovie(ctx context.Context, token, movieID string) error
}

// CatalogService holds the movie list snapshot. Mutations never patch the
// snapshot in place: every successful write triggers a full refetch, and the
// aggregate rating per movie is always the backend's number, never computed
// here.
type CatalogService struct {
	log      *slog.Logger
	api      BackendProvider
	session  *session.Store
	validate *govalidator.Validate

	mu     sync.RWMutex
	movies []models.Movie
}

func New(log *slog.Logger, api BackendProvider, sess *session.Store, validate *govalidator.Validate) *CatalogService {
	return &CatalogService{
		log:      log,
		api:      api,
		session:  sess,
		validate: validate,
	}
}

// Refresh fetches the movie list and fans out one rating fetch per movie.
// The fetches run concurrently and are joined before the snapshot is
// replaced. A failed rating fetch marks only that movie as unrated; the
// listing as a whole still succeeds.
func (s *CatalogService) Refresh(ctx context.Context, params filters.ListParams) ([]models.Movie, error) {
	const op = "catalog.CatalogService.Refresh"
	log := s.log.With("op", op)
	movies, err := s.api.ListMovies(ctx, params)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	var wg sync.WaitGroup
	for i := range movies {
		wg.Add(1)
		go func(m *models.Movie) {
			defer wg.Done()
			rating, err := s.api.MovieRating(ctx, m.ID)
			if err != nil {
				log.Warn("rating fetch failed", "movie_id", m.ID, "errMsg", err.Error())
				m.Rating = nil
				m.RatingCount = 0
				return
			}
			m.Rating = rating.AvgRating
			m.RatingCount = rating.Count
		}(&movies[i])
	}
	wg.Wait()
	s.mu.Lock()
	s.movies = movies
	s.mu.Unlock()
	return s.Movies(), nil
}

// Movies returns a copy of the last loaded snapshot.
func (s *CatalogService) Movies() []models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]models.Movie, len(s.movies))
	copy(snapshot, s.movies)
	return snapshot
}

// Movie looks a movie up in the snapshot by its ID.
func (s *CatalogService) Movie(movieID string) (*models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.movies {
		if s.movies[i].ID == movieID {
			m := s.movies[i]
			return &m, nil
		}
	}
	return nil, ErrMovieNotLoaded
}

func (s *CatalogService) Add(ctx context.Context, form MovieForm) error {
	const op = "catalog.CatalogService.Add"
	log := s.log.With("op", op, "title", form.Title)
	token := s.session.Token()
	if token == "" {
		return session.ErrNoToken
	}
	if errs := validator.ValidateStruct(s.validate, form); errs != nil {
		return errs
	}
	if _, err := s.api.CreateMovie(ctx, token, form); err != nil {
		log.Error(err.Error())
		return err
	}
	_, err := s.Refresh(ctx, filters.ListParams{})
	return err
}

func (s *CatalogService) Update(ctx context.Context, movieID string, form MovieForm) error {
	const op = "catalog.CatalogService.Update"
	log := s.log.With("op", op, "movie_id", movieID)
	token := s.session.Token()
	if token == "" {
		return session.ErrNoToken
	}
	if errs := validator.ValidateStruct(s.validate, form); errs != nil {
		return errs
	}
	if _, err := s.api.UpdateMovie(ctx, token, movieID, form); err != nil {
		log.Error(err.Error())
		return err
	}
	_, err := s.Refresh(ctx, filters.ListParams{})
	return err
}

// Delete removes a movie. Interactive confirmation is the view's job and
// must happen before this is called.
func (s *CatalogService) Delete(ctx context.Context, movieID string) error {
	const op = "catalog.CatalogService.Delete"
	log := s.log.With("op", op, "movie_id", movieID)
	token := s.session.Token()
	if token == "" {
		return session.ErrNoToken
	}
	if err := s.api.DeleteMovie(ctx, token, movieID); err != nil {
		log.Error(err.Error())
		return err
	}
	_, err := s.Refresh(ctx, filters.ListParams{})
	return err
}
