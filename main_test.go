package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Seednode/valentine/db"
	"github.com/Seednode/valentine/games/proposal"
)

func testConfig() *Config {
	return &Config{
		bind:        "127.0.0.1",
		dbDriver:    db.DriverSQLite,
		dbURL:       ":memory:",
		jitterMax:   proposal.DefaultJitter.Max,
		jitterMin:   proposal.DefaultJitter.Min,
		person:      proposal.DefaultPerson,
		port:        8080,
		sink:        sinkStore,
		sinkTimeout: 5 * time.Second,
		variant:     "full",
	}
}

type testServer struct {
	*httptest.Server

	sessions  *SessionManager
	responses *db.Responses
}

func setupServer(t *testing.T, cfg *Config) *testServer {
	t.Helper()

	conn, err := db.Open(cfg.dbDriver, cfg.dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	errs := make(chan error, 16)
	go drainErrors(cfg, errs)

	mux, sm := newRouter(cfg, conn, errs)
	t.Cleanup(sm.Close)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testServer{
		Server:    srv,
		sessions:  sm,
		responses: db.NewResponses(conn, cfg.dbDriver),
	}
}

// setupRemote stands in for a responses API on another host.
func setupRemote(t *testing.T, h http.Handler) string {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return srv.URL
}
