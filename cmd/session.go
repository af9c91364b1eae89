package cmd

import (
	"fmt"

	"github.com/fleetdash/fleetdash/internal/api"
	"github.com/fleetdash/fleetdash/internal/logging"
	"github.com/fleetdash/fleetdash/internal/paths"
	"github.com/fleetdash/fleetdash/internal/store"
)

// openStore opens the local state database, creating it on first use
func openStore() (*store.Store, error) {
	if _, err := paths.EnsureStateDir(); err != nil {
		return nil, err
	}
	st, err := store.Open(paths.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return st, nil
}

// newAPIClient builds a client for the configured server. FLEETDASH_TOKEN
// wins over a session saved by 'fleetdash login'. st may be nil.
func newAPIClient(st *store.Store) (*api.Client, error) {
	server := cfg.ServerURL()
	token := cfg.Token
	if token == "" && st != nil {
		sess, err := st.LoadSession(server)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			token = sess.Token
			logging.Logger.Debug("using saved session", "server", server, "username", sess.Username)
		}
	}

	var opts []api.Option
	if token != "" {
		opts = append(opts, api.WithToken(token))
	}
	return api.NewClient(server, opts...), nil
}

// connect opens the store just long enough to pick up a saved session
func connect() (*api.Client, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return newAPIClient(st)
}
