package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ideforge/internal/logging"
	"github.com/dmitrijs2005/ideforge/internal/server/metrics"
	"github.com/dmitrijs2005/ideforge/internal/server/models"
	"github.com/dmitrijs2005/ideforge/internal/server/probe"
	"github.com/dmitrijs2005/ideforge/internal/server/repositories/repomanager"
)

// Prober checks an instance URL and returns the response status.
type Prober interface {
	Probe(ctx context.Context, url string) (int, error)
}

// StatusSyncer reconciles active projects against the reachability of
// their instances.
type StatusSyncer struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	prober      Prober
	log         logging.Logger
}

func NewStatusSyncer(db *sql.DB, m repomanager.RepositoryManager, p Prober, log logging.Logger) *StatusSyncer {
	return &StatusSyncer{db: db, repomanager: m, prober: p, log: log.With("module", "sync")}
}

// SyncProjectStatuses probes every active project with a url, one at a
// time. Projects whose instance answers 502/503/504 or cannot be reached
// are marked terminated. Other probe errors are reported per project and
// leave the status alone. All failures end up in the result.
func (s *StatusSyncer) SyncProjectStatuses(ctx context.Context) models.SyncResult {
	timer := metrics.NewTimer()
	defer func() {
		metrics.SyncRunsTotal.Inc()
		s.log.Debug(ctx, "status sync finished", "duration", timer.Duration())
	}()

	result := models.SyncResult{Errors: []string{}}
	repo := s.repomanager.Projects(s.db)

	targets, err := repo.ListActiveWithURL(ctx)
	if err != nil {
		s.log.Error(ctx, "status sync could not list projects", "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("Database error: %v", err))
		metrics.SyncErrorsTotal.Inc()
		return result
	}

	for _, t := range targets {
		if ctx.Err() != nil {
			break
		}
		if t.URL == "" {
			continue
		}

		code, err := s.prober.Probe(ctx, t.URL)
		if ctx.Err() != nil {
			// Shutting down; a cancelled probe says nothing about the instance.
			break
		}
		switch {
		case err != nil && !probe.IsUnreachable(err):
			result.Errors = append(result.Errors, fmt.Sprintf("Project %s: %v", t.ID, err))
			metrics.SyncErrorsTotal.Inc()
			continue
		case err == nil && !probe.IsDownStatus(code):
			continue
		}

		reason := fmt.Sprintf("status %d", code)
		if err != nil {
			reason = err.Error()
		}

		if err := repo.SetStatus(ctx, t.ID, models.StatusTerminated); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Project %s: %v", t.ID, err))
			metrics.SyncErrorsTotal.Inc()
			continue
		}
		result.Synced++
		metrics.ProjectsTerminatedTotal.WithLabelValues("unreachable").Inc()
		s.log.Info(ctx, "project marked terminated", "project_id", t.ID, "reason", reason)
	}

	return result
}

// Run repeats SyncProjectStatuses every interval until ctx ends.
func (s *StatusSyncer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res := s.SyncProjectStatuses(ctx)
			if res.Synced > 0 || len(res.Errors) > 0 {
				s.log.Info(ctx, "status sync", "synced", res.Synced, "errors", len(res.Errors))
			}
		case <-ctx.Done():
			return
		}
	}
}
