package views

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/balkashynov/ems/internal/api"
	"github.com/balkashynov/ems/internal/logging"
	"github.com/balkashynov/ems/internal/models"
)

// ReportsSnapshot holds both reports
type ReportsSnapshot struct {
	PerUser  []models.UserTaskCount
	Workload *models.Workload
	Loaded   bool
}

// Reports loads the task-count reports for admins and managers
type Reports struct {
	client *api.Client
	logger *slog.Logger

	mu     sync.Mutex
	snap   ReportsSnapshot
	closed bool
}

// NewReports creates the controller; call Load
func NewReports(client *api.Client, logger *slog.Logger) *Reports {
	return &Reports{client: client, logger: logging.OrDiscard(logger).With("view", "reports")}
}

// Snapshot copies the current state
func (r *Reports) Snapshot() ReportsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.snap
	snap.PerUser = append([]models.UserTaskCount(nil), r.snap.PerUser...)
	return snap
}

// Close makes later responses no-ops
func (r *Reports) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// Load fetches both reports concurrently
func (r *Reports) Load(ctx context.Context) error {
	var (
		perUser  []models.UserTaskCount
		workload *models.Workload
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		perUser, err = r.client.TasksPerUser(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		workload, err = r.client.WorkloadDistribution(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		r.logger.WarnContext(ctx, "failed to load reports", "error", err)
		return fmt.Errorf("failed to load reports: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.snap = ReportsSnapshot{PerUser: perUser, Workload: workload, Loaded: true}
	}
	return nil
}
