// Package backendtest runs an in-process stand-in for the movie-rating
// backend so the client can be exercised end to end without a real server.
package backendtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"reelrate/proj/internal/domain/fields"
	"reelrate/proj/internal/domain/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
)

type user struct {
	id       string
	username string
	password string
}

type Server struct {
	srv    *httptest.Server
	secret []byte

	mu          sync.Mutex
	seq         int
	users       []*user
	movies      []*models.Movie
	reviews     []*models.Review
	failRatings map[string]bool
	healthy     bool
}

func New() *Server {
	s := &Server{
		secret:      []byte("backendtest-secret"),
		failRatings: make(map[string]bool),
		healthy:     true,
	}
	router := chi.NewRouter()
	router.Get("/api/health", s.health)
	router.Post("/api/register", s.register)
	router.Post("/api/login", s.login)
	router.Get("/api/me", s.me)
	router.Get("/api/movies", s.listMovies)
	router.Get("/api/movies/{id}/rating", s.movieRating)
	router.Post("/api/movies", s.createMovie)
	router.Put("/api/movies/{id}", s.updateMovie)
	router.Delete("/api/movies/{id}", s.deleteMovie)
	router.Get("/api/reviews/{movieID}", s.listReviews)
	router.Post("/api/reviews/{movieID}", s.createReview)
	router.Put("/api/reviews/{id}", s.updateReview)
	router.Delete("/api/reviews/{id}", s.deleteReview)
	s.srv = httptest.NewServer(router)
	return s
}

func (s *Server) Close() {
	s.srv.Close()
}

func (s *Server) URL() string {
	return s.srv.URL
}

func (s *Server) SetHealthy(healthy bool) {
	s.mu.Lock()
	s.healthy = healthy
	s.mu.Unlock()
}

// FailRatingFor makes the rating endpoint answer 500 for one movie,
// simulating a partially degraded backend.
func (s *Server) FailRatingFor(movieID string) {
	s.mu.Lock()
	s.failRatings[movieID] = true
	s.mu.Unlock()
}

func (s *Server) SeedUser(username, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user{id: s.nextID("u"), username: username, password: password}
	s.users = append(s.users, u)
	return u.id
}

func (s *Server) SeedMovie(createdBy, title string, year int32) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &models.Movie{ID: s.nextID("m"), Title: title, Year: year, CreatedBy: createdBy}
	s.movies = append(s.movies, m)
	return m.ID
}

func (s *Server) SeedReview(movieID, userID string, rating int, comment string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &models.Review{
		ID:        s.nextID("r"),
		MovieID:   movieID,
		Author:    models.User{ID: userID, Username: s.usernameOf(userID)},
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}
	s.reviews = append(s.reviews, r)
	return r.ID
}

// TokenFor issues a bearer token for a seeded user without going through
// the login endpoint.
func (s *Server) TokenFor(userID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"uid": userID})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

func (s *Server) usernameOf(userID string) string {
	for _, u := range s.users {
		if u.id == userID {
			return u.username
		}
	}
	return "unknown"
}

func errJSON(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"message": msg})
}

// authedUser resolves the bearer token to a seeded user, or answers 401.
func (s *Server) authedUser(w http.ResponseWriter, r *http.Request) (*user, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		errJSON(w, r, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		errJSON(w, r, http.StatusUnauthorized, "invalid or expired token")
		return nil, false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		errJSON(w, r, http.StatusUnauthorized, "invalid or expired token")
		return nil, false
	}
	uid, _ := claims["uid"].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.id == uid {
			return u, true
		}
	}
	errJSON(w, r, http.StatusUnauthorized, "invalid or expired token")
	return nil, false
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	healthy := s.healthy
	s.mu.Unlock()
	if !healthy {
		errJSON(w, r, http.StatusServiceUnavailable, "backend is down")
		return
	}
	render.JSON(w, r, map[string]bool{"ok": true})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := render.DecodeJSON(r.Body, &creds); err != nil || creds.Username == "" || creds.Password == "" {
		errJSON(w, r, http.StatusBadRequest, "username and password are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.username == creds.Username {
			errJSON(w, r, http.StatusBadRequest, "username already taken")
			return
		}
	}
	u := &user{id: s.nextID("u"), username: creds.Username, password: creds.Password}
	s.users = append(s.users, u)
	render.JSON(w, r, map[string]string{"id": u.id})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := render.DecodeJSON(r.Body, &creds); err != nil {
		errJSON(w, r, http.StatusBadRequest, "malformed credentials")
		return
	}
	s.mu.Lock()
	var found *user
	for _, u := range s.users {
		if u.username == creds.Username && u.password == creds.Password {
			found = u
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		errJSON(w, r, http.StatusUnauthorized, "invalid username or password")
		return
	}
	render.JSON(w, r, map[string]string{"token": s.TokenFor(found.id)})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authedUser(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, models.User{ID: u.id, Username: u.username})
}

func (s *Server) listMovies(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]models.Movie, 0, len(s.movies))
	title := r.URL.Query().Get("title")
	for _, m := range s.movies {
		if title != "" && !strings.Contains(strings.ToLower(m.Title), strings.ToLower(title)) {
			continue
		}
		out = append(out, *m)
	}
	s.mu.Unlock()
	render.JSON(w, r, out)
}

func (s *Server) movieRating(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "id")
	s.mu.Lock()
	if s.failRatings[movieID] {
		s.mu.Unlock()
		errJSON(w, r, http.StatusInternalServerError, "rating backend exploded")
		return
	}
	rating := s.aggregate(movieID)
	s.mu.Unlock()
	render.JSON(w, r, rating)
}

// aggregate requires s.mu to be held.
func (s *Server) aggregate(movieID string) models.Rating {
	var sum, count int
	for _, rv := range s.reviews {
		if rv.MovieID == movieID {
			sum += rv.Rating
			count++
		}
	}
	if count == 0 {
		return models.Rating{}
	}
	avg := fields.AverageRating(float64(sum) / float64(count))
	return models.Rating{AvgRating: &avg, Count: count}
}

func (s *Server) createMovie(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authedUser(w, r)
	if !ok {
		return
	}
	var form struct {
		Title       string `json:"title"`
		Year        int32  `json:"year"`
		Genre       string `json:"genre"`
		Description string `json:"description"`
	}
	if err := render.DecodeJSON(r.Body, &form); err != nil || form.Title == "" {
		errJSON(w, r, http.StatusBadRequest, "title is required")
		return
	}
	s.mu.Lock()
	m := &models.Movie{
		ID:          s.nextID("m"),
		Title:       form.Title,
		Year:        form.Year,
		Genre:       form.Genre,
		Description: form.Description,
		CreatedBy:   u.id,
	}
	s.movies = append(s.movies, m)
	s.mu.Unlock()
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, m)
}

// findMovie requires s.mu to be held.
func (s *Server) findMovie(movieID string) (int, *models.Movie) {
	for i, m := range s.movies {
		if m.ID == movieID {
			return i, m
		}
	}
	return -1, nil
}

func (s *Server) updateMovie(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authedUser(w, r)
	if !ok {
		return
	}
	var form struct {
		Title       string `json:"title"`
		Year        int32  `json:"year"`
		Genre       string `json:"genre"`
		Description string `json:"description"`
	}
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		errJSON(w, r, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, m := s.findMovie(chi.URLParam(r, "id"))
	if m == nil {
		errJSON(w, r, http.StatusNotFound, "movie not found")
		return
	}
	if m.CreatedBy != u.id {
		errJSON(w, r, http.StatusForbidden, "you are not the owner of this movie")
		return
	}
	m.Title = form.Title
	m.Year = form.Year
	m.Genre = form.Genre
	m.Description = form.Description
	render.JSON(w, r, m)
}

func (s *Server) deleteMovie(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authedUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, m := s.findMovie(chi.URLParam(r, "id"))
	if m == nil {
		errJSON(w, r, http.StatusNotFound, "movie not found")
		return
	}
	if m.CreatedBy != u.id {
		errJSON(w, r, http.StatusForbidden, "you are not the owner of this movie")
		return
	}
	s.movies = append(s.movies[:i], s.movies[i+1:]...)
	kept := s.reviews[:0]
	for _, rv := range s.reviews {
		if rv.MovieID != m.ID {
			kept = append(kept, rv)
		}
	}
	s.reviews = kept
	render.JSON(w, r, map[string]bool{"ok": true})
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movieID")
	s.mu.Lock()
	out := make([]models.Review, 0)
	for _, rv := range s.reviews {
		if rv.MovieID == movieID {
			out = append(out, *rv)
		}
	}
	rating := s.aggregate(movieID)
	s.mu.Unlock()
	render.JSON(w, r, map[string]any{
		"reviews": out,
		"avg":     rating.AvgRating,
		"count":   rating.Count,
	})
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authedUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := render.DecodeJSON(r.Body, &body); err != nil || body.Rating < 1 || body.Rating > 5 {
		errJSON(w, r, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, m := s.findMovie(chi.URLParam(r, "movieID")); m == nil {
		errJSON(w, r, http.StatusNotFound, "movie not found")
		return
	}
	rv := &models.Review{
		ID:        s.nextID("r"),
		MovieID:   chi.URLParam(r, "movieID"),
		Author:    models.User{ID: u.id, Username: u.username},
		Rating:    body.Rating,
		Comment:   body.Comment,
		CreatedAt: time.Now().UTC(),
	}
	s.reviews = append(s.reviews, rv)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, rv)
}

// findReview requires s.mu to be held.
func (s *Server) findReview(reviewID string) (int, *models.Review) {
	for i, rv := range s.reviews {
		if rv.ID == reviewID {
			return i, rv
		}
	}
	return -1, nil
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authedUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := render.DecodeJSON(r.Body, &body); err != nil || body.Rating < 1 || body.Rating > 5 {
		errJSON(w, r, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rv := s.findReview(chi.URLParam(r, "id"))
	if rv == nil {
		errJSON(w, r, http.StatusNotFound, "review not found")
		return
	}
	if rv.Author.ID != u.id {
		errJSON(w, r, http.StatusForbidden, "you are not the author of this review")
		return
	}
	rv.Rating = body.Rating
	rv.Comment = body.Comment
	render.JSON(w, r, rv)
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authedUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, rv := s.findReview(chi.URLParam(r, "id"))
	if rv == nil {
		errJSON(w, r, http.StatusNotFound, "review not found")
		return
	}
	if rv.Author.ID != u.id {
		errJSON(w, r, http.StatusForbidden, "you are not the author of this review")
		return
	}
	s.reviews = append(s.reviews[:i], s.reviews[i+1:]...)
	render.JSON(w, r, map[string]bool{"ok": true})
}
