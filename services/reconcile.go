package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rpupo63/campus-connect-backend/database"
	"github.com/rpupo63/campus-connect-backend/errs"
	"github.com/rpupo63/campus-connect-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	reconcilePageSize    = 100
	reconcileConcurrency = 8
	reconcileRunTimeout  = 5 * time.Minute
)

// ReconcileReport summarises one reconciler pass.
type ReconcileReport struct {
	StartedAt           time.Time `json:"startedAt"`
	FinishedAt          time.Time `json:"finishedAt"`
	ProjectsChecked     int64     `json:"projectsChecked"`
	LikeCountsRepaired  int64     `json:"likeCountsRepaired"`
	CommentRefsRepaired int64     `json:"commentRefsRepaired"`
	Failures            int64     `json:"failures"`
}

// Reconciler repairs drift between the denormalized project fields and the records they
// summarise: the like counter against the liked-by set, and the comment reference list
// against the comments that point at the project.
type Reconciler struct {
	projects     database.ProjectStore
	comments     database.CommentStore
	metrics      *Metrics
	storeTimeout time.Duration
	logger       zerolog.Logger

	runMu sync.Mutex
	cron  *cron.Cron
}

func NewReconciler(db database.Database, metrics *Metrics, storeTimeout time.Duration) *Reconciler {
	return &Reconciler{
		projects:     db.ProjectRepo(),
		comments:     db.CommentRepo(),
		metrics:      metrics,
		storeTimeout: storeTimeout,
		logger:       log.With().Str("service", "reconciler").Logger(),
	}
}

// Start schedules RunOnce. The schedule accepts standard five-field cron expressions and
// descriptors such as "@every 10m". A tick that fires while a pass is running is skipped.
func (r *Reconciler) Start(schedule string) error {
	r.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(&r.logger))))
	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileRunTimeout)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error().Err(err).Msg("Scheduled reconcile failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	r.cron.Start()
	r.logger.Info().Str("schedule", schedule).Msg("Reconciler started")
	return nil
}

// Stop halts the schedule and waits for a running pass, or for ctx to end.
func (r *Reconciler) Stop(ctx context.Context) {
	if r.cron == nil {
		return
	}
	select {
	case <-r.cron.Stop().Done():
		r.logger.Info().Msg("Reconciler stopped")
	case <-ctx.Done():
		r.logger.Warn().Msg("Reconciler stop timed out with a pass still running")
	}
}

// RunOnce checks every project. Failures on individual projects are logged and counted in
// the report; only a listing failure or a cancelled ctx aborts the pass.
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileReport, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	report := ReconcileReport{StartedAt: time.Now().UTC()}
	var checked, likes, refs, failures atomic.Int64

	err := r.forEachPage(ctx, func(page []*models.Project) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(reconcileConcurrency)

		for _, project := range page {
			project := project
			g.Go(func() error {
				checked.Add(1)
				repairedLikes, repairedRefs, err := r.reconcileProject(gctx, project)
				likes.Add(repairedLikes)
				refs.Add(repairedRefs)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					failures.Add(1)
					r.logger.Error().Err(err).Str("projectId", project.ID).Msg("Failed to reconcile project")
				}
				return nil
			})
		}
		return g.Wait()
	})

	report.FinishedAt = time.Now().UTC()
	report.ProjectsChecked = checked.Load()
	report.LikeCountsRepaired = likes.Load()
	report.CommentRefsRepaired = refs.Load()
	report.Failures = failures.Load()
	r.metrics.RecordReconcileRun(err)

	if err != nil {
		return report, err
	}

	r.logger.Info().
		Int64("projectsChecked", report.ProjectsChecked).
		Int64("likeCountsRepaired", report.LikeCountsRepaired).
		Int64("commentRefsRepaired", report.CommentRefsRepaired).
		Int64("failures", report.Failures).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Reconcile pass finished")
	return report, nil
}

func (r *Reconciler) forEachPage(ctx context.Context, fn func([]*models.Project) error) error {
	for offset := 0; ; offset += reconcilePageSize {
		sctx, cancel := storeCtx(ctx, r.storeTimeout)
		page, err := r.projects.FindAll(sctx, models.Page{Limit: reconcilePageSize, Offset: offset})
		cancel()
		if err != nil {
			return storeError(r.metrics, "list", "projects", err)
		}
		if len(page) == 0 {
			return nil
		}
		if err := fn(page); err != nil {
			return err
		}
		if len(page) < reconcilePageSize {
			return nil
		}
	}
}

func (r *Reconciler) reconcileProject(ctx context.Context, project *models.Project) (int64, int64, error) {
	var likes, refs int64

	sctx, cancel := storeCtx(ctx, r.storeTimeout)
	defer cancel()

	if project.Likes != len(project.LikedBy) {
		repaired, err := r.projects.RepairLikeCount(sctx, project.ID)
		if err != nil {
			return likes, refs, err
		}
		if repaired {
			likes++
			r.warn(errs.ErrLikeCountDiverged, "like_count", project.ID,
				fmt.Sprintf("likes was %d with %d likers", project.Likes, len(project.LikedBy)))
		}
	}

	comments, err := r.comments.FindByProject(sctx, project.ID)
	if err != nil {
		return likes, refs, err
	}
	for _, c := range comments {
		if slices.Contains(project.CommentIDs, c.ID) {
			continue
		}
		appended, err := r.projects.AppendCommentRef(sctx, project.ID, c.ID)
		if err != nil {
			return likes, refs, err
		}
		// the snapshot predates comments created since; those already carry their reference
		if !appended {
			continue
		}
		refs++
		r.warn(errs.ErrOrphanedComment, "orphaned_comment", project.ID, fmt.Sprintf("comment %s was missing from the reference list", c.ID))
	}
	return likes, refs, nil
}

func (r *Reconciler) warn(kind error, label, projectID, details string) {
	warning := errs.NewConsistencyWarning(kind, "project "+projectID, details)
	r.metrics.RecordConsistencyWarning(label)
	r.logger.Warn().Err(warning).Str("projectId", projectID).Msg("Repaired consistency drift")
}
