package services

import (
	"log/slog"

	"reelrate/proj/internal/services/auth"
	"reelrate/proj/internal/services/catalog"
	"reelrate/proj/internal/services/reviews"
	"reelrate/proj/internal/session"

	govalidator "github.com/go-playground/validator/v10"
)

type Services struct {
	Auth    *auth.AuthService
	Catalog *catalog.CatalogService
	Reviews *reviews.ThreadService
}

// Backend is the full REST surface the services consume, satisfied by
// clients/backend.Client.
type Backend interface {
	auth.BackendProvider
	catalog.BackendProvider
	reviews.BackendProvider
}

func New(log *slog.Logger, api Backend, sess *session.Store) *Services {
	validate := govalidator.New(govalidator.WithRequiredStructEnabled())
	catalogSvc := catalog.New(log, api, sess, validate)
	return &Services{
		Auth:    auth.New(log, api, sess),
		Catalog: catalogSvc,
		Reviews: reviews.New(log, api, catalogSvc, sess, validate),
	}
}
