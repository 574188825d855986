package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/ideforge/internal/client/api"
	"github.com/dmitrijs2005/ideforge/internal/client/config"
	"github.com/dmitrijs2005/ideforge/internal/client/session"
)

// App carries what every command needs. It is populated lazily by the root
// command's pre-run, after flags and the config file are resolved.
type App struct {
	config *config.Config
	in     *bufio.Reader
	out    io.Writer

	store  session.Store
	db     *sql.DB
	client *api.Client
}

func NewApp(cfg *config.Config, in io.Reader, out io.Writer) *App {
	return &App{config: cfg, in: bufio.NewReader(in), out: out}
}

// open connects the session store and the API client and restores a saved
// token.
func (a *App) open(ctx context.Context) error {
	store, db, err := session.Open(ctx, a.config.SessionPath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	a.store, a.db = store, db

	a.client = api.New(a.config.ServerURL, &http.Client{Timeout: a.config.Timeout})

	token, err := a.store.Get(ctx, session.KeyToken)
	if err != nil {
		return err
	}
	a.client.SetToken(token)
	return nil
}

// Close releases the session store.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
