// Package testenv builds collection environments for page tests.
package testenv

import (
	"io"
	"log/slog"
	"testing"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/store/memstore"
)

// Env returns an in-memory collection.Env with a discarding logger.
func Env(t *testing.T) collection.Env {
	t.Helper()
	return collection.Env{
		Namespace: "mentordesk",
		Repo:      memstore.New(),
		Logger:    Logger(),
	}
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
