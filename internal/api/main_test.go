package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"vidoptimize/internal/auth"
	"vidoptimize/internal/config"
	"vidoptimize/internal/database"
	"vidoptimize/internal/suggest"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testVideoTitle = "Sourdough Basics"

var (
	testServer *Server
	testPool   *pgxpool.Pool
	testRouter http.Handler
	testTokens *auth.TokenIssuer
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:14-alpine",
		postgres.WithDatabase("test_api_db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		log.Fatalf("Could not start postgres: %s", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("Could not get connection string: %s", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	schema, err := os.ReadFile("../../db/init.sql")
	if err != nil {
		log.Fatalf("Could not read schema file: %s", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("Could not apply schema: %s", err)
	}

	oembed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if suggest.ExtractVideoID(r.URL.Query().Get("url")) == "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"title": testVideoTitle})
	}))

	cfg := &config.Config{
		App:         config.AppConfig{Env: config.EnvTest},
		FrontendURL: "http://localhost:3000",
	}

	testTokens, err = auth.NewTokenIssuer("api_access_secret", "api_refresh_secret")
	if err != nil {
		log.Fatalf("Could not create token issuer: %s", err)
	}

	logger := zerolog.Nop()
	metadata := suggest.NewMetadataClient(oembed.URL, nil, logger)
	provider := suggest.NewProvider(nil, metadata, logger)

	testPool = pool
	testServer = NewServer(cfg, database.NewStore(pool), testTokens, provider, nil, logger)
	testRouter = testServer.Router()

	code := m.Run()

	oembed.Close()
	pool.Close()
	_ = pgContainer.Terminate(ctx)
	os.Exit(code)
}
