package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"corral/internal/config"
	"corral/internal/logging"
	"corral/internal/match"
	"corral/internal/merge"
	"corral/internal/record"
	"corral/internal/services"
	"corral/internal/store"
)

// ErrPassActive is returned when a pass is requested while another one is
// still running. Passes never overlap; callers skip and wait for the next
// tick.
var ErrPassActive = errors.New("a detection pass is already running")

// PassStats summarizes one completed detection pass.
type PassStats struct {
	PassID          string        `json:"pass_id"`
	SnapshotSize    int           `json:"snapshot_size"`
	PairsScored     int           `json:"pairs_scored"`
	GroupsCommitted int           `json:"groups_committed"`
	GroupsDeferred  int           `json:"groups_deferred"`
	PairsReview     int           `json:"pairs_review"`
	Duration        time.Duration `json:"duration"`
}

// Coordinator orchestrates detection passes over the record store.
type Coordinator struct {
	cfg        *config.Config
	store      *store.Store
	selector   *match.Selector
	scorer     *match.Scorer
	classifier match.Classifier
	policy     merge.Policy
	logger     *slog.Logger

	newPassID func() string
	now       func() time.Time
	running   sync.Mutex
}

// NewCoordinator wires a coordinator from configuration and an open store.
func NewCoordinator(cfg *config.Config, st *store.Store, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		cfg:        cfg,
		store:      st,
		selector:   match.NewSelector(cfg),
		scorer:     match.NewScorer(cfg, logger),
		classifier: match.NewClassifier(cfg.Thresholds),
		policy:     merge.NewPolicy(),
		logger:     logging.NewComponentLogger(logger, "engine"),
		newPassID:  uuid.NewString,
		now:        time.Now,
	}
}

type scoredPair struct {
	pair      match.Pair
	breakdown match.Breakdown
}

// RunPass executes one detection pass over the current open snapshot. The
// pass works against the versions captured in the snapshot; records updated
// concurrently are retried with fresh state and deferred to the next pass if
// the conflict persists. At most one pass runs at a time.
func (c *Coordinator) RunPass(ctx context.Context) (PassStats, error) {
	if !c.running.TryLock() {
		return PassStats{}, ErrPassActive
	}
	defer c.running.Unlock()

	passID := c.newPassID()
	ctx = services.WithPassID(ctx, passID)
	logger := c.logger.With(logging.String(logging.FieldPassID, passID))
	started := c.now()

	stats := PassStats{PassID: passID}
	if err := c.store.BeginPass(ctx, passID, started); err != nil {
		return stats, err
	}

	err := c.runPass(ctx, logger, passID, &stats)
	stats.Duration = c.now().Sub(started)

	finished := c.now()
	pass := store.Pass{
		ID:              passID,
		FinishedAt:      &finished,
		SnapshotSize:    stats.SnapshotSize,
		PairsScored:     stats.PairsScored,
		GroupsCommitted: stats.GroupsCommitted,
		GroupsDeferred:  stats.GroupsDeferred,
		PairsReview:     stats.PairsReview,
	}
	if err != nil {
		pass.Error = err.Error()
	}
	if finishErr := c.store.FinishPass(context.WithoutCancel(ctx), pass); finishErr != nil {
		logger.Error("record pass outcome", logging.Error(finishErr))
		if err == nil {
			err = finishErr
		}
	}
	if err == nil {
		logger.Info("pass complete",
			logging.Int("snapshot", stats.SnapshotSize),
			logging.Int("pairs", stats.PairsScored),
			logging.Int("committed", stats.GroupsCommitted),
			logging.Int("deferred", stats.GroupsDeferred),
			logging.Int("review", stats.PairsReview),
			logging.Duration("duration", stats.Duration),
		)
	}
	return stats, err
}

func (c *Coordinator) runPass(ctx context.Context, logger *slog.Logger, passID string, stats *PassStats) error {
	snapshot, err := c.store.ListOpen(ctx)
	if err != nil {
		return services.Wrap(services.ErrTransient, "engine", "snapshot records", "", err)
	}
	stats.SnapshotSize = len(snapshot)

	pairs := c.selector.Pairs(snapshot)
	stats.PairsScored = len(pairs)
	logger.Debug("pass snapshot ready",
		logging.Int("records", len(snapshot)),
		logging.Int("candidate_pairs", len(pairs)),
	)

	scored, err := c.scorePairs(ctx, pairs)
	if err != nil {
		return err
	}

	linked := merge.NewDisjointSet()
	var review []scoredPair
	for _, sp := range scored {
		switch tier := c.classifier.Classify(sp.breakdown.Total); {
		case tier.AutoMerge():
			linked.Union(sp.pair.A.Ref, sp.pair.B.Ref)
		case tier == match.TierLow:
			review = append(review, sp)
		}
	}

	byRef := make(map[record.Ref]record.Record, len(snapshot))
	for _, rec := range snapshot {
		byRef[rec.Ref] = rec
	}

	for _, cluster := range linked.Clusters() {
		if err := ctx.Err(); err != nil {
			return err
		}
		members := make([]record.Record, 0, len(cluster))
		for _, ref := range cluster {
			members = append(members, byRef[ref])
		}
		if alreadyGrouped(members) {
			continue
		}
		if err := c.commitCluster(ctx, logger, passID, members, stats); err != nil {
			return err
		}
	}

	for _, sp := range review {
		if err := ctx.Err(); err != nil {
			return err
		}
		// A weak pair whose records were already linked transitively is
		// settled by the merge; only pairs that stayed apart need review.
		if linked.Find(sp.pair.A.Ref) == linked.Find(sp.pair.B.Ref) {
			continue
		}
		if err := c.store.SaveReviewPair(ctx, store.ReviewPair{
			A:         sp.pair.A.Ref,
			B:         sp.pair.B.Ref,
			Score:     sp.breakdown.Total,
			Breakdown: sp.breakdown,
			PassID:    passID,
			CreatedAt: c.now(),
		}); err != nil {
			return err
		}
		stats.PairsReview++
	}
	return nil
}

// scorePairs fans scoring out across a bounded worker pool. The scorer is
// immutable and each goroutine writes only its own slot.
func (c *Coordinator) scorePairs(ctx context.Context, pairs []match.Pair) ([]scoredPair, error) {
	scored := make([]scoredPair, len(pairs))
	workers := c.cfg.Workflow.ScoreWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, pair := range pairs {
		i, pair := i, pair
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			scored[i] = scoredPair{pair: pair, breakdown: c.scorer.Score(pair.A, pair.B)}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

// commitCluster merges and commits one cluster, retrying with fresh record
// state when the optimistic version check fails. A cluster that keeps
// conflicting, or that shrinks below two records, is deferred to a later
// pass rather than failing the whole run.
func (c *Coordinator) commitCluster(ctx context.Context, logger *slog.Logger, passID string, members []record.Record, stats *PassStats) error {
	// Membership only grows. A cluster touching committed groups must
	// carry those groups' full membership, including records that have
	// since been consumed or expired and so fell out of the snapshot.
	members, err := c.expandCluster(ctx, members)
	if err != nil {
		return err
	}

	retries := c.cfg.Workflow.CommitRetries
	for attempt := 0; ; attempt++ {
		outcome, err := c.policy.Merge(members)
		if errors.Is(err, merge.ErrClusterTooSmall) {
			stats.GroupsDeferred++
			logger.Debug("cluster deferred", logging.String("reason", "too few mergeable records"))
			return nil
		}
		if err != nil {
			return fmt.Errorf("merge cluster: %w", err)
		}

		cctx := services.WithGroupID(ctx, outcome.GroupID)
		kept := filterMembers(members, outcome.Members)
		err = c.store.CommitGroup(cctx, outcome, kept, passID)
		if err == nil {
			stats.GroupsCommitted++
			logging.WithContext(cctx, c.logger).Info("group committed",
				logging.Int("members", len(kept)),
				logging.Int("ejected", len(outcome.Ejected)),
			)
			return nil
		}
		if !services.IsConflict(err) {
			return err
		}
		if attempt >= retries {
			stats.GroupsDeferred++
			logging.WithContext(cctx, c.logger).Warn("group deferred after conflicts",
				logging.Int("attempts", attempt+1),
			)
			return nil
		}

		members, err = c.refreshMembers(ctx, members)
		if err != nil {
			return err
		}
		if len(members) < 2 {
			stats.GroupsDeferred++
			return nil
		}
	}
}

// expandCluster widens a cluster to the full membership of every group its
// records already belong to, reading each absent member fresh from the
// store regardless of lifecycle state.
func (c *Coordinator) expandCluster(ctx context.Context, members []record.Record) ([]record.Record, error) {
	present := make(map[record.Ref]struct{}, len(members))
	groupIDs := make(map[string]struct{})
	for _, member := range members {
		present[member.Ref] = struct{}{}
		if member.Merged() {
			groupIDs[member.GroupID] = struct{}{}
		}
	}
	for id := range groupIDs {
		group, err := c.store.GetGroup(ctx, id)
		if errors.Is(err, services.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, ref := range group.Members {
			if _, ok := present[ref]; ok {
				continue
			}
			rec, err := c.store.GetRecord(services.WithRecord(ctx, ref.String()), ref)
			if errors.Is(err, services.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			present[ref] = struct{}{}
			members = append(members, rec)
		}
	}
	return members, nil
}

// refreshMembers re-reads cluster members after a version conflict. Records
// that left the open state without ever being committed are dropped; grouped
// members stay whatever their state, since membership never shrinks.
func (c *Coordinator) refreshMembers(ctx context.Context, members []record.Record) ([]record.Record, error) {
	fresh := make([]record.Record, 0, len(members))
	for _, member := range members {
		rec, err := c.store.GetRecord(services.WithRecord(ctx, member.Ref.String()), member.Ref)
		if errors.Is(err, services.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if rec.Status != record.StatusOpen && !rec.Merged() {
			continue
		}
		fresh = append(fresh, rec)
	}
	return fresh, nil
}

func filterMembers(members []record.Record, refs []record.Ref) []record.Record {
	wanted := make(map[record.Ref]struct{}, len(refs))
	for _, ref := range refs {
		wanted[ref] = struct{}{}
	}
	kept := make([]record.Record, 0, len(refs))
	for _, member := range members {
		if _, ok := wanted[member.Ref]; ok {
			kept = append(kept, member)
		}
	}
	return kept
}

// alreadyGrouped reports whether every member already sits in the same
// group, in which case re-running the pass has nothing new to commit.
func alreadyGrouped(members []record.Record) bool {
	first := members[0].GroupID
	if first == "" {
		return false
	}
	for _, member := range members[1:] {
		if member.GroupID != first {
			return false
		}
	}
	return true
}
