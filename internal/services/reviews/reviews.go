package reviews

import (
	"context"
	"log/slog"
	"sync"

	"reelrate/proj/internal/domain/fields"
	"reelrate/proj/internal/domain/filters"
	"reelrate/proj/internal/domain/models"
	"reelrate/proj/internal/lib/validator"
	"reelrate/proj/internal/session"

	govalidator "github.com/go-playground/validator/v10"
)

// DefaultRating is what the compose form resets to.
const DefaultRating = 5

// Thread is one movie's review list plus the backend-reported aggregate.
type Thread struct {
	Reviews []models.Review
	Avg     *fields.AverageRating
	Count   int
}

type ReviewForm struct {
	Rating  int    `json:"rating" validate:"gte=1,lte=5"`
	Comment string `json:"comment,omitempty"`
}

type BackendProvider interface {
	ListReviews(ctx context.Context, movieID string) (*Thread, error)
	CreateReview(ctx context.Context, token, movieID string, rating int, comment string) (*models.Review, error)
	UpdateReview(ctx context.Context, token, reviewID string, rating int, comment string) (*models.Review, error)
	DeleteReview(ctx context.Context, token, reviewID string) error
}

type CatalogRefresher interface {
	Refresh(ctx context.Context, params filters.ListParams) ([]models.Movie, error)
}

// ThreadService manages per-movie review threads, lazily loaded when a
// movie is expanded and never pruned except by Reset. After any mutation
// both the thread and the catalog are refetched, because the aggregate
// rating lives on the backend and is never derived here.
//
// Overlapping mutations to the same review are not serialized; whichever
// response lands last wins, matching the backend's own last-write-wins
// behavior.
type ThreadService struct {
	log      *slog.Logger
	api      BackendProvider
	catalog  CatalogRefresher
	session  *session.Store
	validate *govalidator.Validate

	mu        sync.RWMutex
	threads   map[string]*Thread
	form      ReviewForm
	editingID string
}

func New(
	log *slog.Logger,
	api BackendProvider,
	catalog CatalogRefresher,
	sess *session.Store,
	validate *govalidator.Validate,
) *ThreadService {
	return &ThreadService{
		log:      log,
		api:      api,
		catalog:  catalog,
		session:  sess,
		validate: validate,
		threads:  make(map[string]*Thread),
		form:     ReviewForm{Rating: DefaultRating},
	}
}

// Load fetches a movie's reviews and replaces that movie's thread entry.
func (s *ThreadService) Load(ctx context.Context, movieID string) (*Thread, error) {
	const op = "reviews.ThreadService.Load"
	log := s.log.With("op", op, "movie_id", movieID)
	thread, err := s.api.ListReviews(ctx, movieID)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	s.mu.Lock()
	s.threads[movieID] = thread
	s.mu.Unlock()
	return thread, nil
}

// Thread returns the loaded thread for a movie, if any.
func (s *ThreadService) Thread(movieID string) (*Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	thread, ok := s.threads[movieID]
	return thread, ok
}

// BeginEdit switches the form from Composing to Editing, pre-filled with
// the review's current values. Only one review can be in edit at a time;
// starting a new edit displaces the previous one.
func (s *ThreadService) BeginEdit(review models.Review) {
	s.mu.Lock()
	s.editingID = review.ID
	s.form = ReviewForm{Rating: review.Rating, Comment: review.Comment}
	s.mu.Unlock()
}

// CancelEdit returns to Composing without touching the review.
func (s *ThreadService) CancelEdit() {
	s.mu.Lock()
	s.resetForm()
	s.mu.Unlock()
}

// Editing reports the review ID currently being edited, if any.
func (s *ThreadService) Editing() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editingID, s.editingID != ""
}

func (s *ThreadService) Form() ReviewForm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.form
}

// Submit posts the review: a create bound to movieID when Composing, an
// update of the edited review otherwise. The rating is checked before any
// request leaves. On success the form resets and both the thread and the
// catalog are refetched, since the movie's aggregate just changed.
func (s *ThreadService) Submit(ctx context.Context, movieID string, rating int, comment string) error {
	const op = "reviews.ThreadService.Submit"
	log := s.log.With("op", op, "movie_id", movieID, "rating", rating)
	token := s.session.Token()
	if token == "" {
		return session.ErrNoToken
	}
	form := ReviewForm{Rating: rating, Comment: comment}
	if errs := validator.ValidateStruct(s.validate, form); errs != nil {
		return errs
	}
	editingID, editing := s.Editing()
	var err error
	if editing {
		_, err = s.api.UpdateReview(ctx, token, editingID, rating, comment)
	} else {
		_, err = s.api.CreateReview(ctx, token, movieID, rating, comment)
	}
	if err != nil {
		log.Error(err.Error())
		return err
	}
	s.mu.Lock()
	s.resetForm()
	s.mu.Unlock()
	return s.reloadAfterMutation(ctx, movieID)
}

// Delete removes a review. The view confirms with the user first and only
// renders the control for the review's author; the backend re-checks
// ownership regardless.
func (s *ThreadService) Delete(ctx context.Context, reviewID, movieID string) error {
	const op = "reviews.ThreadService.Delete"
	log := s.log.With("op", op, "review_id", reviewID, "movie_id", movieID)
	token := s.session.Token()
	if token == "" {
		return session.ErrNoToken
	}
	if err := s.api.DeleteReview(ctx, token, reviewID); err != nil {
		log.Error(err.Error())
		return err
	}
	s.mu.Lock()
	if s.editingID == reviewID {
		s.resetForm()
	}
	s.mu.Unlock()
	return s.reloadAfterMutation(ctx, movieID)
}

// Reset drops every loaded thread and the form state. Called on logout.
func (s *ThreadService) Reset() {
	s.mu.Lock()
	s.threads = make(map[string]*Thread)
	s.resetForm()
	s.mu.Unlock()
}

func (s *ThreadService) reloadAfterMutation(ctx context.Context, movieID string) error {
	if _, err := s.Load(ctx, movieID); err != nil {
		return err
	}
	_, err := s.catalog.Refresh(ctx, filters.ListParams{})
	return err
}

// resetForm requires s.mu to be held.
func (s *ThreadService) resetForm() {
	s.editingID = ""
	s.form = ReviewForm{Rating: DefaultRating}
}
