package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelrate/proj/internal/domain/fields"
	"reelrate/proj/internal/domain/filters"
	"reelrate/proj/internal/domain/models"
	"reelrate/proj/internal/services/catalog"
	"reelrate/proj/internal/services/reviews"

	"github.com/gorilla/schema"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 1_048_576 // 1MB

const retryBackoff = 500 * time.Millisecond

// Client talks to the movie-rating REST backend. All state it needs per
// request (the bearer token) is passed in explicitly; the client itself
// never looks the session up.
type Client struct {
	log          *slog.Logger
	http         *http.Client
	baseURL      string
	retriesCount int
	limiter      *rate.Limiter
	encoder      *schema.Encoder
}

/*
	New creates a new Client instance.

It takes a logger, the backend base URL, a request timeout, a retries count
for transport-level failures, and client-side limiter settings (rps <= 0
disables the limiter).
*/
func New(
	log *slog.Logger,
	baseURL string,
	timeout time.Duration,
	retriesCount int,
	rps float64,
	burst int,
) *Client {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Client{
		log:          log,
		http:         &http.Client{Timeout: timeout},
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		retriesCount: retriesCount,
		limiter:      limiter,
		encoder:      schema.NewEncoder(),
	}
}

// authHeaders builds the headers for one request from the given session
// token. Kept as a pure function so no ambient token lookup hides in the
// transport layer.
func authHeaders(token string) http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	if token != "" {
		headers.Set("Authorization", "Bearer "+token)
	}
	return headers
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	var resp *http.Response
	var err error
	for attempt := 0; ; attempt++ {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header = authHeaders(token)
		resp, err = c.http.Do(req)
		if err == nil {
			break
		}
		if attempt >= c.retriesCount || ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		c.log.Debug("retrying request", "method", method, "path", path, "attempt", attempt+1)
		time.Sleep(retryBackoff)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return &RequestError{StatusCode: resp.StatusCode, Message: parseErrorMessage(data)}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("malformed response for %s %s: %w", method, path, err)
		}
	}
	return nil
}

// parseErrorMessage digs the human-readable text out of an error response.
// Backends answer with {"message": ...}, {"error": ...} or plain text.
func parseErrorMessage(data []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return strings.TrimSpace(string(data))
}

func (c *Client) Health(ctx context.Context) (bool, error) {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", "", nil, &out); err != nil {
		return false, err
	}
	return out.OK, nil
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, username, password string) error {
	const op = "backend.Client.Register"
	log := c.log.With("op", op, "username", username)
	if err := c.do(ctx, http.MethodPost, "/api/register", "", credentials{username, password}, nil); err != nil {
		log.Error("Error", "errMsg", err.Error())
		return err
	}
	return nil
}

func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	const op = "backend.Client.Login"
	log := c.log.With("op", op, "username", username)
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/login", "", credentials{username, password}, &out); err != nil {
		log.Error("Error", "errMsg", err.Error())
		return "", err
	}
	return out.Token, nil
}

func (c *Client) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	const op = "backend.Client.CurrentUser"
	log := c.log.With("op", op)
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/me", token, nil, &user); err != nil {
		log.Error("Error", "errMsg", err.Error())
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListMovies(ctx context.Context, params filters.ListParams) ([]models.Movie, error) {
	const op = "backend.Client.ListMovies"
	log := c.log.With("op", op)
	path := "/api/movies"
	if !params.IsZero() {
		query := url.Values{}
		if err := c.encoder.Encode(params, query); err != nil {
			return nil, err
		}
		path += "?" + query.Encode()
	}
	var movies []models.Movie
	if err := c.do(ctx, http.MethodGet, path, "", nil, &movies); err != nil {
		log.Error("Error", "errMsg", err.Error())
		return nil, err
	}
	return movies, nil
}

func (c *Client) MovieRating(ctx context.Context, movieID string) (*models.Rating, error) {
	var rating models.Rating
	if err := c.do(ctx, http.MethodGet, "/api/movies/"+movieID+"/rating", "", nil, &rating); err != nil {
		return nil, err
	}
	return &rating, nil
}

func (c *Client) CreateMovie(ctx context.Context, token string, form catalog.MovieForm) (*models.Movie, error) {
	const op = "backend.Client.CreateMovie"
	log := c.log.With("op", op, "title", form.Title)
	var movie models.Movie
	if err := c.do(ctx, http.MethodPost, "/api/movies", token, form, &movie); err != nil {
		log.Error("Error", "errMsg", err.Error())
		return nil, err
	}
	return &movie, nil
}

func (c *Client) UpdateMovie(ctx context.Context, token, movieID string, form catalog.MovieForm) (*models.Movie, error) {
	const op = "backend.Client.UpdateMovie"
	log := c.log.With("op", op, "movie_id", movieID)
	var movie models.Movie
	if err := c.do(ctx, http.MethodPut, "/api/movies/"+movieID, token, form, &movie); err != nil {
		log.Error("Error", "errMsg", err.Error())
		return nil, err
	}
	return &movie, nil
}

func (c *Client) DeleteMovie(ctx context.Context, token, movieID string) error {
	const op = "backend.Client.DeleteMovie"
	log := c.log.With("op", op, "movie_id", movieID)
	if err := c.do(ctx, http.MethodDelete, "/api/movies/"+movieID, token, nil, nil); err != nil {
		log.Error("Error", "errMsg", err.Error())
		return err
	}
	return nil
}

func (c *Client) ListReviews(ctx context.Context, movieID string) (*reviews.Thread, error) {
	const op = "backend.Client.ListReviews"
	log := c.log.With("op", op, "movie_id", movieID)
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/reviews/"+movieID, "", nil, &raw); err != nil {
		log.Error("Error", "errMsg", err.Error())
		return nil, err
	}
	thread, err := decodeReviewsPayload(raw)
	if err != nil {
		log.Error("Error", "errMsg", err.Error())
		return nil, err
	}
	return thread, nil
}

type reviewBody struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

func (c *Client) CreateReview(ctx context.Context, token, movieID string, rating int, comment string) (*models.Review, error) {
	const op = "backend.Client.CreateReview"
	log := c.log.With("op", op, "movie_id", movieID)
	var review models.Review
	if err := c.do(ctx, http.MethodPost, "/api/reviews/"+movieID, token, reviewBody{rating, comment}, &review); err != nil {
		log.Error("Error", "errMsg", err.Error())
		return nil, err
	}
	return &review, nil
}

func (c *Client) UpdateReview(ctx context.Context, token, reviewID string, rating int, comment string) (*models.Review, error) {
	const op = "backend.Client.UpdateReview"
	log := c.log.With("op", op, "review_id", reviewID)
	var review models.Review
	if err := c.do(ctx, http.MethodPut, "/api/reviews/"+reviewID, token, reviewBody{rating, comment}, &review); err != nil {
		log.Error("Error", "errMsg", err.Error())
		return nil, err
	}
	return &review, nil
}

func (c *Client) DeleteReview(ctx context.Context, token, reviewID string) error {
	const op = "backend.Client.DeleteReview"
	log := c.log.With("op", op, "review_id", reviewID)
	if err := c.do(ctx, http.MethodDelete, "/api/reviews/"+reviewID, token, nil, nil); err != nil {
		log.Error("Error", "errMsg", err.Error())
		return err
	}
	return nil
}

// decodeReviewsPayload accepts both shapes the listing endpoint is known to
// return: a bare array of reviews, or {reviews, avg, count}.
func decodeReviewsPayload(data []byte) (*reviews.Thread, error) {
	var list []models.Review
	if err := json.Unmarshal(data, &list); err == nil {
		return &reviews.Thread{Reviews: list, Count: len(list)}, nil
	}
	var envelope struct {
		Reviews []models.Review       `json:"reviews"`
		Avg     *fields.AverageRating `json:"avg"`
		Count   int                   `json:"count"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unrecognized reviews payload: %w", err)
	}
	return &reviews.Thread{Reviews: envelope.Reviews, Avg: envelope.Avg, Count: envelope.Count}, nil
}
