package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"corral/internal/match"
	"corral/internal/merge"
	"corral/internal/record"
	"corral/internal/services"
	"corral/internal/store"
	"corral/internal/testsupport"
)

func TestUpsertRecordRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	published := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	rec := testsupport.NewRecord("tutorcity", "tc-100",
		testsupport.WithPostal("560101", "560102"),
		testsupport.WithSubjects("mathematics", "physics"),
		testsupport.WithLevels("secondary"),
		testsupport.WithRate(40, 60),
		testsupport.WithPublishedAt(published),
		testsupport.WithCode("TC-100"),
		testsupport.WithQuality(70),
		testsupport.WithAvailability(record.Availability{
			time.Monday: {{Start: 18 * 60, End: 20 * 60}},
		}),
	)
	if err := st.UpsertRecord(ctx, rec); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}

	got, err := st.GetRecord(ctx, rec.Ref)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Code != "TC-100" {
		t.Fatalf("code = %q, want TC-100", got.Code)
	}
	if len(got.PostalExplicit) != 2 || got.PostalExplicit[0] != "560101" {
		t.Fatalf("postal = %v", got.PostalExplicit)
	}
	if got.RateMin == nil || *got.RateMin != 40 || got.RateMax == nil || *got.RateMax != 60 {
		t.Fatalf("rates = %v/%v", got.RateMin, got.RateMax)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(published) {
		t.Fatalf("published_at = %v, want %v", got.PublishedAt, published)
	}
	if got.Status != record.StatusOpen {
		t.Fatalf("status = %q", got.Status)
	}
	if got.Version != 1 {
		t.Fatalf("version = %d, want 1", got.Version)
	}
	intervals := got.Availability[time.Monday]
	if len(intervals) != 1 || intervals[0].Start != 18*60 || intervals[0].End != 20*60 {
		t.Fatalf("availability = %v", got.Availability)
	}
}

func TestUpsertRecordPreservesLifecycleFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.NewRecord("tutorcity", "tc-1")
	b := testsupport.NewRecord("edumatch", "em-1")
	testsupport.SeedRecords(t, st, a, b)

	commitPair(t, st, "group-1", a.Ref, b.Ref)

	// A re-broadcast from the source updates content but must not detach
	// the record from its group.
	updated := testsupport.NewRecord("tutorcity", "tc-1",
		testsupport.WithSubjects("chemistry"))
	if err := st.UpsertRecord(ctx, updated); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}

	got, err := st.GetRecord(ctx, a.Ref)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.GroupID != "group-1" {
		t.Fatalf("group_id = %q, want group-1", got.GroupID)
	}
	if len(got.SubjectsPrimary) != 1 || got.SubjectsPrimary[0] != "chemistry" {
		t.Fatalf("subjects = %v", got.SubjectsPrimary)
	}
	if got.Version <= 2 {
		t.Fatalf("version = %d, want > 2", got.Version)
	}
}

func TestCommitGroupConflictOnStaleVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.NewRecord("tutorcity", "tc-1")
	b := testsupport.NewRecord("edumatch", "em-1")
	testsupport.SeedRecords(t, st, a, b)

	snapshot, err := st.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("snapshot size = %d", len(snapshot))
	}

	// Concurrent update bumps the version after the snapshot was taken.
	if err := st.UpsertRecord(ctx, testsupport.NewRecord("tutorcity", "tc-1",
		testsupport.WithSubjects("biology"))); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}

	outcome := merge.Outcome{
		GroupID:   "group-stale",
		Members:   []record.Ref{snapshot[0].Ref, snapshot[1].Ref},
		Canonical: map[string]merge.CanonicalValue{},
		DecidedAt: time.Now(),
	}
	err = st.CommitGroup(ctx, outcome, snapshot, "pass-1")
	if !services.IsConflict(err) {
		t.Fatalf("CommitGroup error = %v, want conflict", err)
	}

	// Rollback must leave both records ungrouped.
	for _, ref := range []record.Ref{a.Ref, b.Ref} {
		got, err := st.GetRecord(ctx, ref)
		if err != nil {
			t.Fatalf("GetRecord(%s): %v", ref, err)
		}
		if got.GroupID != "" {
			t.Fatalf("record %s has group %q after rollback", ref, got.GroupID)
		}
	}
	if _, err := st.GetGroup(ctx, "group-stale"); err == nil {
		t.Fatal("group persisted despite rollback")
	}
}

func TestCommitGroupPersistsCanonicalFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.NewRecord("tutorcity", "tc-1")
	b := testsupport.NewRecord("edumatch", "em-1")
	testsupport.SeedRecords(t, st, a, b)

	members := mustListOpen(t, st)
	outcome := merge.Outcome{
		GroupID: "group-1",
		Members: []record.Ref{a.Ref, b.Ref},
		Canonical: map[string]merge.CanonicalValue{
			merge.FieldPostal:   {Value: "560101", Source: a.Ref},
			merge.FieldSubjects: {Value: "mathematics", Source: b.Ref},
		},
		DecidedAt: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}
	if err := st.CommitGroup(ctx, outcome, members, "pass-1"); err != nil {
		t.Fatalf("CommitGroup: %v", err)
	}

	group, err := st.GetGroup(ctx, "group-1")
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if len(group.Members) != 2 {
		t.Fatalf("members = %v", group.Members)
	}
	postal, ok := group.Canonical[merge.FieldPostal]
	if !ok || postal.Value != "560101" || postal.Source != a.Ref {
		t.Fatalf("canonical postal = %+v", postal)
	}
	if group.PassID != "pass-1" {
		t.Fatalf("pass_id = %q", group.PassID)
	}
}

func TestCommitGroupMigratesMembersBetweenGroups(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.NewRecord("tutorcity", "tc-1")
	b := testsupport.NewRecord("edumatch", "em-1")
	c := testsupport.NewRecord("learnhub", "lh-1")
	testsupport.SeedRecords(t, st, a, b, c)

	commitPair(t, st, "group-1", a.Ref, b.Ref)

	// A later pass absorbs the pair plus a third record into the same group.
	members := mustListOpen(t, st)
	outcome := merge.Outcome{
		GroupID:   "group-1",
		Members:   []record.Ref{a.Ref, b.Ref, c.Ref},
		Canonical: map[string]merge.CanonicalValue{},
		DecidedAt: time.Now(),
	}
	if err := st.CommitGroup(ctx, outcome, members, "pass-2"); err != nil {
		t.Fatalf("CommitGroup: %v", err)
	}

	group, err := st.GetGroup(ctx, "group-1")
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if len(group.Members) != 3 {
		t.Fatalf("members = %v", group.Members)
	}
}

func TestCommitGroupKeepsAbsentMembers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.NewRecord("tutorcity", "tc-1")
	b := testsupport.NewRecord("edumatch", "em-1")
	testsupport.SeedRecords(t, st, a, b)
	commitPair(t, st, "group-1", a.Ref, b.Ref)

	// b is taken up downstream; it leaves the open snapshot but stays a
	// confirmed duplicate.
	if err := st.MarkConsumed(ctx, b.Ref); err != nil {
		t.Fatalf("MarkConsumed: %v", err)
	}

	c := testsupport.NewRecord("learnhub", "lh-1")
	testsupport.SeedRecords(t, st, c)

	// A later commit that only carries the open records must not erase
	// b's membership row.
	members := mustListOpen(t, st)
	outcome := merge.Outcome{
		GroupID:   "group-1",
		Members:   []record.Ref{a.Ref, c.Ref},
		Canonical: map[string]merge.CanonicalValue{},
		DecidedAt: time.Now(),
	}
	if err := st.CommitGroup(ctx, outcome, members, "pass-2"); err != nil {
		t.Fatalf("CommitGroup: %v", err)
	}

	group, err := st.GetGroup(ctx, "group-1")
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if len(group.Members) != 3 {
		t.Fatalf("members = %v, want a, b, and c", group.Members)
	}
	got, err := st.GetRecord(ctx, b.Ref)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.GroupID != "group-1" || got.Status != record.StatusConsumed {
		t.Fatalf("record b = %q/%q, want group-1/consumed", got.GroupID, got.Status)
	}
}

func TestCommitGroupDropsEmptiedGroup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.NewRecord("tutorcity", "tc-1")
	b := testsupport.NewRecord("edumatch", "em-1")
	c := testsupport.NewRecord("learnhub", "lh-1")
	d := testsupport.NewRecord("tutornow", "tn-1")
	testsupport.SeedRecords(t, st, a, b, c, d)
	commitPair(t, st, "group-1", a.Ref, b.Ref)
	commitPair(t, st, "group-2", c.Ref, d.Ref)

	// group-1 absorbs group-2 wholesale; the emptied shell must go with it.
	members := mustListOpen(t, st)
	outcome := merge.Outcome{
		GroupID:   "group-1",
		Members:   []record.Ref{a.Ref, b.Ref, c.Ref, d.Ref},
		Canonical: map[string]merge.CanonicalValue{},
		DecidedAt: time.Now(),
	}
	if err := st.CommitGroup(ctx, outcome, members, "pass-3"); err != nil {
		t.Fatalf("CommitGroup: %v", err)
	}

	group, err := st.GetGroup(ctx, "group-1")
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if len(group.Members) != 4 {
		t.Fatalf("members = %v, want all four records", group.Members)
	}
	if _, err := st.GetGroup(ctx, "group-2"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected group-2 to be gone, got %v", err)
	}
	groups, err := st.ListGroups(ctx, 0)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
}

func TestReviewPairsRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	pair := store.ReviewPair{
		A:     record.Ref{SourceID: "tutorcity", ExternalID: "tc-1"},
		B:     record.Ref{SourceID: "edumatch", ExternalID: "em-1"},
		Score: 72.5,
		Breakdown: match.Breakdown{
			Postal: 45, Subjects: 17.5, Temporal: 10, Raw: 72.5, Total: 72.5,
		},
		PassID: "pass-1",
	}
	if err := st.SaveReviewPair(ctx, pair); err != nil {
		t.Fatalf("SaveReviewPair: %v", err)
	}
	// Saving again refreshes in place rather than duplicating.
	pair.Score = 74
	pair.PassID = "pass-2"
	if err := st.SaveReviewPair(ctx, pair); err != nil {
		t.Fatalf("SaveReviewPair update: %v", err)
	}

	pairs, err := st.ListReviewPairs(ctx, 0)
	if err != nil {
		t.Fatalf("ListReviewPairs: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(pairs))
	}
	if pairs[0].Score != 74 || pairs[0].PassID != "pass-2" {
		t.Fatalf("pair = %+v", pairs[0])
	}
	if pairs[0].Breakdown.Postal != 45 {
		t.Fatalf("breakdown = %+v", pairs[0].Breakdown)
	}

	if err := st.DeleteReviewPair(ctx, pair.B, pair.A); err != nil {
		t.Fatalf("DeleteReviewPair: %v", err)
	}
	pairs, err = st.ListReviewPairs(ctx, 0)
	if err != nil {
		t.Fatalf("ListReviewPairs: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("pairs = %d after delete", len(pairs))
	}
}

func TestExpireOpenBefore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	old := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	testsupport.SeedRecords(t, st,
		testsupport.NewRecord("tutorcity", "tc-old", testsupport.WithPublishedAt(old)),
		testsupport.NewRecord("tutorcity", "tc-new", testsupport.WithPublishedAt(fresh)),
		testsupport.NewRecord("tutorcity", "tc-undated"),
	)

	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	expired, err := st.ExpireOpenBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("ExpireOpenBefore: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired = %d, want 1", expired)
	}

	open, err := st.ListOpen(ctx)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("open = %d, want 2", len(open))
	}
	got, err := st.GetRecord(ctx, record.Ref{SourceID: "tutorcity", ExternalID: "tc-old"})
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Status != record.StatusExpired {
		t.Fatalf("status = %q, want expired", got.Status)
	}
}

func TestListOpenSince(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	old := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	testsupport.SeedRecords(t, st,
		testsupport.NewRecord("tutorcity", "tc-old", testsupport.WithPublishedAt(old)),
		testsupport.NewRecord("tutorcity", "tc-new", testsupport.WithPublishedAt(fresh)),
		testsupport.NewRecord("tutorcity", "tc-undated"),
	)

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records, err := st.ListOpenSince(ctx, since)
	if err != nil {
		t.Fatalf("ListOpenSince: %v", err)
	}
	// Undated records are never filtered out by the cutoff.
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	for _, rec := range records {
		if rec.ExternalID == "tc-old" {
			t.Fatal("cutoff did not exclude the old record")
		}
	}
}

func TestPassLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	if err := st.BeginPass(ctx, "pass-1", started); err != nil {
		t.Fatalf("BeginPass: %v", err)
	}
	finished := started.Add(2 * time.Second)
	if err := st.FinishPass(ctx, store.Pass{
		ID:              "pass-1",
		FinishedAt:      &finished,
		SnapshotSize:    10,
		PairsScored:     12,
		GroupsCommitted: 2,
		PairsReview:     1,
	}); err != nil {
		t.Fatalf("FinishPass: %v", err)
	}

	passes, err := st.ListPasses(ctx, 0)
	if err != nil {
		t.Fatalf("ListPasses: %v", err)
	}
	if len(passes) != 1 {
		t.Fatalf("passes = %d", len(passes))
	}
	got := passes[0]
	if got.SnapshotSize != 10 || got.PairsScored != 12 || got.GroupsCommitted != 2 {
		t.Fatalf("pass = %+v", got)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Fatalf("finished_at = %v", got.FinishedAt)
	}
}

func mustListOpen(t *testing.T, st *store.Store) []record.Record {
	t.Helper()
	records, err := st.ListOpen(context.Background())
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	return records
}

func commitPair(t *testing.T, st *store.Store, groupID string, a, b record.Ref) {
	t.Helper()

	records, err := st.ListOpen(context.Background())
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	var members []record.Record
	for _, rec := range records {
		if rec.Ref == a || rec.Ref == b {
			members = append(members, rec)
		}
	}
	outcome := merge.Outcome{
		GroupID:   groupID,
		Members:   []record.Ref{a, b},
		Canonical: map[string]merge.CanonicalValue{},
		DecidedAt: time.Now(),
	}
	if err := st.CommitGroup(context.Background(), outcome, members, "seed-pass"); err != nil {
		t.Fatalf("CommitGroup: %v", err)
	}
}
