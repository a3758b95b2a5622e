package reviews_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"reelrate/proj/internal/clients/backend"
	"reelrate/proj/internal/clients/backend/backendtest"
	"reelrate/proj/internal/domain/filters"
	"reelrate/proj/internal/lib/validator"
	"reelrate/proj/internal/services"
	"reelrate/proj/internal/services/reviews"
	"reelrate/proj/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	services *services.Services
	server   *backendtest.Server
	session  *session.Store
	movieID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess, err := session.New(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, err)
	api := backend.New(log, srv.URL(), 5*time.Second, 1, 0, 0)
	svcs := services.New(log, api, sess)

	owner := srv.SeedUser("owner", "pw")
	movieID := srv.SeedMovie(owner, "Alien", 1979)
	return &fixture{services: svcs, server: srv, session: sess, movieID: movieID}
}

func (f *fixture) loginAs(t *testing.T, username string) {
	t.Helper()
	f.server.SeedUser(username, "pw")
	_, err := f.services.Auth.Login(context.Background(), username, "pw")
	require.NoError(t, err)
}

func TestSubmitRequiresToken(t *testing.T) {
	f := newFixture(t)
	err := f.services.Reviews.Submit(context.Background(), f.movieID, 4, "good")
	assert.ErrorIs(t, err, session.ErrNoToken)
}

func TestSubmitRejectsOutOfRangeRatingLocally(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice")
	ctx := context.Background()
	for _, rating := range []int{0, -1, 6, 42} {
		err := f.services.Reviews.Submit(ctx, f.movieID, rating, "")
		var fieldErrs validator.FieldErrors
		require.ErrorAs(t, err, &fieldErrs, "rating %d must be rejected", rating)
		assert.Contains(t, fieldErrs, "rating")
	}
	thread, err := f.services.Reviews.Load(ctx, f.movieID)
	require.NoError(t, err)
	assert.Empty(t, thread.Reviews, "no request may have reached the backend")
}

func TestSubmitStoresExactRating(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice")
	ctx := context.Background()
	for rating := 1; rating <= 5; rating++ {
		movieID := f.server.SeedMovie("", "Heat", 1995)
		require.NoError(t, f.services.Reviews.Submit(ctx, movieID, rating, ""))
		thread, ok := f.services.Reviews.Thread(movieID)
		require.True(t, ok)
		require.Len(t, thread.Reviews, 1)
		assert.Equal(t, rating, thread.Reviews[0].Rating)
	}
}

func TestSubmitRefreshesThreadAndCatalog(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice")
	ctx := context.Background()
	_, err := f.services.Catalog.Refresh(ctx, filters.ListParams{})
	require.NoError(t, err)
	before, err := f.services.Catalog.Movie(f.movieID)
	require.NoError(t, err)
	assert.Nil(t, before.Rating)

	require.NoError(t, f.services.Reviews.Submit(ctx, f.movieID, 4, "good"))

	thread, ok := f.services.Reviews.Thread(f.movieID)
	require.True(t, ok)
	require.Len(t, thread.Reviews, 1)
	assert.Equal(t, "good", thread.Reviews[0].Comment)

	after, err := f.services.Catalog.Movie(f.movieID)
	require.NoError(t, err)
	require.NotNil(t, after.Rating, "catalog aggregate must be refetched")
	assert.InDelta(t, 4.0, float64(*after.Rating), 0.001)
	assert.Equal(t, 1, after.RatingCount)
}

func TestEditStateMachine(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice")
	ctx := context.Background()
	require.NoError(t, f.services.Reviews.Submit(ctx, f.movieID, 3, "fine"))
	thread, _ := f.services.Reviews.Thread(f.movieID)
	review := thread.Reviews[0]

	_, editing := f.services.Reviews.Editing()
	assert.False(t, editing, "successful submit returns to Composing")

	f.services.Reviews.BeginEdit(review)
	editingID, editing := f.services.Reviews.Editing()
	assert.True(t, editing)
	assert.Equal(t, review.ID, editingID)
	form := f.services.Reviews.Form()
	assert.Equal(t, 3, form.Rating)
	assert.Equal(t, "fine", form.Comment)

	f.services.Reviews.CancelEdit()
	_, editing = f.services.Reviews.Editing()
	assert.False(t, editing)
	form = f.services.Reviews.Form()
	assert.Equal(t, reviews.DefaultRating, form.Rating)
	assert.Empty(t, form.Comment)

	// cancel must not have touched the stored review
	reloaded, err := f.services.Reviews.Load(ctx, f.movieID)
	require.NoError(t, err)
	require.Len(t, reloaded.Reviews, 1)
	assert.Equal(t, 3, reloaded.Reviews[0].Rating)
}

func TestSubmitWhileEditingUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice")
	ctx := context.Background()
	require.NoError(t, f.services.Reviews.Submit(ctx, f.movieID, 2, "meh"))
	thread, _ := f.services.Reviews.Thread(f.movieID)
	f.services.Reviews.BeginEdit(thread.Reviews[0])

	require.NoError(t, f.services.Reviews.Submit(ctx, f.movieID, 5, "rewatched it"))

	thread, _ = f.services.Reviews.Thread(f.movieID)
	require.Len(t, thread.Reviews, 1, "edit must not create a second review")
	assert.Equal(t, 5, thread.Reviews[0].Rating)
	assert.Equal(t, "rewatched it", thread.Reviews[0].Comment)
	_, editing := f.services.Reviews.Editing()
	assert.False(t, editing)
}

func TestDeleteRefreshesThreadAndCatalog(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice")
	ctx := context.Background()
	require.NoError(t, f.services.Reviews.Submit(ctx, f.movieID, 4, ""))
	thread, _ := f.services.Reviews.Thread(f.movieID)
	reviewID := thread.Reviews[0].ID

	require.NoError(t, f.services.Reviews.Delete(ctx, reviewID, f.movieID))

	thread, _ = f.services.Reviews.Thread(f.movieID)
	assert.Empty(t, thread.Reviews)
	movie, err := f.services.Catalog.Movie(f.movieID)
	require.NoError(t, err)
	assert.Nil(t, movie.Rating)
	assert.Equal(t, 0, movie.RatingCount)
}

func TestDeleteByNonAuthorSurfacesServerMessage(t *testing.T) {
	f := newFixture(t)
	author := f.server.SeedUser("alice", "pw")
	reviewID := f.server.SeedReview(f.movieID, author, 5, "mine")
	f.loginAs(t, "mallory")

	err := f.services.Reviews.Delete(context.Background(), reviewID, f.movieID)
	var reqErr *backend.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "you are not the author of this review", reqErr.Message)
}

func TestLoadIsIdempotent(t *testing.T) {
	f := newFixture(t)
	author := f.server.SeedUser("alice", "pw")
	f.server.SeedReview(f.movieID, author, 4, "good")
	ctx := context.Background()

	first, err := f.services.Reviews.Load(ctx, f.movieID)
	require.NoError(t, err)
	second, err := f.services.Reviews.Load(ctx, f.movieID)
	require.NoError(t, err)
	assert.Equal(t, first.Reviews, second.Reviews)
	assert.Equal(t, first.Count, second.Count)
}

func TestLogoutClearsThreadsButKeepsAnonymousReads(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice")
	ctx := context.Background()
	require.NoError(t, f.services.Reviews.Submit(ctx, f.movieID, 4, ""))

	require.NoError(t, f.services.Auth.Logout())
	f.services.Reviews.Reset()

	_, ok := f.services.Reviews.Thread(f.movieID)
	assert.False(t, ok, "threads pruned on logout")
	form := f.services.Reviews.Form()
	assert.Equal(t, reviews.DefaultRating, form.Rating)

	movies, err := f.services.Catalog.Refresh(ctx, filters.ListParams{})
	require.NoError(t, err, "anonymous listing still works")
	assert.NotEmpty(t, movies)
	err = f.services.Reviews.Submit(ctx, f.movieID, 4, "")
	assert.ErrorIs(t, err, session.ErrNoToken)
}
