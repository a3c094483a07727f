// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package daemon assembles the field-mapping admin service: store backend,
// evaluators, preview engine, and HTTP API.
package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tombee/fieldbind/internal/config"
	"github.com/tombee/fieldbind/internal/daemon/api"
	"github.com/tombee/fieldbind/internal/log"
	"github.com/tombee/fieldbind/internal/preview"
	"github.com/tombee/fieldbind/internal/store"
	"github.com/tombee/fieldbind/internal/store/memory"
	"github.com/tombee/fieldbind/internal/store/sqlite"
	"github.com/tombee/fieldbind/pkg/mapping/evaluate"
)

// Daemon is the running admin service.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  store.Store
	server *http.Server
}

// New builds a daemon from configuration. Version information is exposed on
// the health endpoint.
func New(cfg *config.Config, logger *slog.Logger, version api.RouterConfig) (*Daemon, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	eval := evaluate.New()
	router := api.NewRouter(version, logger)
	api.NewMappingsHandler(st, eval, log.WithComponent(logger, "api")).RegisterRoutes(router.Mux())
	api.NewPreviewHandler(preview.New(eval)).RegisterRoutes(router.Mux())

	return &Daemon{
		cfg:    cfg,
		logger: logger,
		store:  st,
		server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// openStore creates the configured store backend.
func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Backend.Type {
	case config.BackendSQLite:
		return sqlite.New(sqlite.Config{
			Path: cfg.Backend.SQLite.Path,
			WAL:  cfg.Backend.SQLite.WAL,
		})
	case config.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Backend.Type)
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		d.logger.Info("daemon listening", "addr", d.cfg.Server.Addr, "backend", d.cfg.Backend.Type)
		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			d.logger.Error("shutdown failed", slog.Any("error", err))
		}
		<-errCh
	case err := <-errCh:
		if err != nil {
			d.closeStore()
			return err
		}
	}

	d.closeStore()
	return nil
}

// closeStore closes the store if the backend holds external resources.
func (d *Daemon) closeStore() {
	if closer, ok := d.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			d.logger.Error("failed to close store", slog.Any("error", err))
		}
	}
}
