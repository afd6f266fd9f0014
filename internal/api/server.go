package api

import (
	"reflect"
	"strings"

	"vidoptimize/internal/auth"
	"vidoptimize/internal/config"
	"vidoptimize/internal/database"
	"vidoptimize/internal/suggest"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type Server struct {
	config   *config.Config
	store    *database.Store
	tokens   *auth.TokenIssuer
	suggest  *suggest.Provider
	limiter  *RateLimiter
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewServer wires the HTTP layer. limiter may be nil to disable rate limiting.
func NewServer(
	cfg *config.Config,
	store *database.Store,
	tokens *auth.TokenIssuer,
	provider *suggest.Provider,
	limiter *RateLimiter,
	logger zerolog.Logger,
) *Server {
	return &Server{
		config:   cfg,
		store:    store,
		tokens:   tokens,
		suggest:  provider,
		limiter:  limiter,
		validate: newValidator(),
		logger:   logger,
	}
}

// newValidator reports field names the way clients send them.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
