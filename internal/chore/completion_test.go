package chore

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/chorechart/internal/apperr"
	"github.com/dukerupert/chorechart/internal/event"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

func TestCompleteAwardsPoints(t *testing.T) {
	f := setupEngine(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	role := f.role(t, "Child", 1.5)
	kid := f.user(t, "kid", role.ID)
	f.task(t, model.Task{Name: "Dishes", BasePoints: 10, ScheduleType: model.ScheduleDaily, DefaultDueTime: "18:00"})
	f.generate(t)
	inst := f.instances(t, model.StatusPending)[0]
	ctx := context.Background()

	done, err := f.engine.Complete(ctx, inst.ID, nil, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != model.StatusCompleted || done.CompletedAt == nil {
		t.Fatalf("instance = %+v, want COMPLETED with timestamp", done)
	}

	u := f.reload(t, kid.ID)
	if u.CurrentPoints != 20 || u.LifetimePoints != 20 {
		t.Errorf("balances = %d/%d, want 20/20", u.CurrentPoints, u.LifetimePoints)
	}
	if u.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1", u.CurrentStreak)
	}
	if u.LastTaskDate == nil || *u.LastTaskDate != "2026-10-17" {
		t.Errorf("last task date = %v, want 2026-10-17", u.LastTaskDate)
	}

	txs, err := store.NewTransactionStore(f.db).List(ctx, model.TransactionFilter{UserID: &kid.ID})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txs))
	}
	tx := txs[0]
	if tx.Type != model.TransactionEarn || tx.AwardedPoints != 20 || tx.BasePointsValue != 10 || tx.MultiplierUsed != 1.5 {
		t.Errorf("transaction = %+v, want EARN 20 base 10 x1.5", tx)
	}
	if tx.ReferenceInstanceID == nil || *tx.ReferenceInstanceID != inst.ID {
		t.Errorf("reference = %v, want %d", tx.ReferenceInstanceID, inst.ID)
	}

	if len(f.events.events) != 1 || f.events.events[0].Type != event.TaskCompleted || f.events.events[0].Points != 20 {
		t.Errorf("events = %+v, want one task_completed worth 20", f.events.events)
	}
}

func TestCompleteTwiceDoesNotDoubleAward(t *testing.T) {
	f := setupEngine(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	role := f.role(t, "Child", 1.5)
	kid := f.user(t, "kid", role.ID)
	f.task(t, model.Task{Name: "Dishes", ScheduleType: model.ScheduleDaily, DefaultDueTime: "18:00"})
	f.generate(t)
	inst := f.instances(t, model.StatusPending)[0]
	ctx := context.Background()

	first, err := f.engine.Complete(ctx, inst.ID, nil, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	after1 := f.reload(t, kid.ID)

	second, err := f.engine.Complete(ctx, inst.ID, nil, nil)
	if err != nil {
		t.Fatalf("complete again: %v", err)
	}
	after2 := f.reload(t, kid.ID)

	if after1.CurrentPoints != after2.CurrentPoints || after1.LifetimePoints != after2.LifetimePoints {
		t.Errorf("balances changed: %d/%d then %d/%d", after1.CurrentPoints, after1.LifetimePoints, after2.CurrentPoints, after2.LifetimePoints)
	}
	if !first.CompletedAt.Equal(*second.CompletedAt) {
		t.Errorf("completed_at changed: %v then %v", first.CompletedAt, second.CompletedAt)
	}
	if len(f.events.events) != 1 {
		t.Errorf("events = %d, want 1", len(f.events.events))
	}
}

func TestCompleteUnknownInstance(t *testing.T) {
	f := setupEngine(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	_, err := f.engine.Complete(context.Background(), 404, nil, nil)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestCompleteStreakAcrossDays(t *testing.T) {
	day := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	f := setupEngine(t, day)
	role := f.role(t, "Adult", 1.0)
	kid := f.user(t, "kid", role.ID)
	f.task(t, model.Task{Name: "Dishes", BasePoints: 10, ScheduleType: model.ScheduleDaily, DefaultDueTime: "18:00"})
	ctx := context.Background()

	// 15, 16, 17: 10+5, 11+5, 12+5.
	want := []int{15, 31, 48}
	for i, total := range want {
		f.clock.Set(day.AddDate(0, 0, i))
		f.generate(t)
		pending := f.instances(t, model.StatusPending)
		if len(pending) != 1 {
			t.Fatalf("day %d pending = %d, want 1", i, len(pending))
		}
		if _, err := f.engine.Complete(ctx, pending[0].ID, nil, nil); err != nil {
			t.Fatalf("complete: %v", err)
		}
		u := f.reload(t, kid.ID)
		if u.CurrentPoints != total {
			t.Errorf("day %d points = %d, want %d", i, u.CurrentPoints, total)
		}
		if u.CurrentStreak != i+1 {
			t.Errorf("day %d streak = %d, want %d", i, u.CurrentStreak, i+1)
		}
	}
}

func TestCompleteByAnotherPerformer(t *testing.T) {
	f := setupEngine(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	child := f.role(t, "Child", 1.5)
	adult := f.role(t, "Adult", 1.0)
	kid := f.user(t, "kid", child.ID)
	parent := f.user(t, "parent", adult.ID)
	f.task(t, model.Task{Name: "Dishes", BasePoints: 10, ScheduleType: model.ScheduleDaily, DefaultDueTime: "18:00", AssignedRoleID: &child.ID})
	f.generate(t)
	inst := f.instances(t, model.StatusPending)[0]
	ctx := context.Background()

	done, err := f.engine.Complete(ctx, inst.ID, &parent.ID, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.UserID != parent.ID {
		t.Errorf("instance user = %d, want performer %d", done.UserID, parent.ID)
	}

	// The performer's 1.0 multiplier applies, not the assignee's 1.5.
	if p := f.reload(t, parent.ID); p.CurrentPoints != 15 {
		t.Errorf("performer points = %d, want 15", p.CurrentPoints)
	}
	if k := f.reload(t, kid.ID); k.CurrentPoints != 0 {
		t.Errorf("assignee points = %d, want 0", k.CurrentPoints)
	}
}

func TestCompleteUnknownPerformer(t *testing.T) {
	f := setupEngine(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	role := f.role(t, "Child", 1.5)
	kid := f.user(t, "kid", role.ID)
	f.task(t, model.Task{Name: "Dishes", ScheduleType: model.ScheduleDaily, DefaultDueTime: "18:00"})
	f.generate(t)
	inst := f.instances(t, model.StatusPending)[0]

	missing := int64(999)
	_, err := f.engine.Complete(context.Background(), inst.ID, &missing, nil)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	got, _ := store.NewInstanceStore(f.db).GetByID(context.Background(), inst.ID)
	if got.UserID != kid.ID || got.Status != model.StatusPending {
		t.Errorf("instance = %+v, want untouched", got)
	}
}

func TestCompleteRecurringClosesSiblings(t *testing.T) {
	f := setupEngine(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	role := f.role(t, "Child", 1.5)
	a := f.user(t, "a", role.ID)
	b := f.user(t, "b", role.ID)
	f.task(t, model.Task{Name: "Mow", BasePoints: 10, ScheduleType: model.ScheduleRecurring, DefaultDueTime: "Any", RecurrenceMinDays: intPtr(3), RecurrenceMaxDays: intPtr(5)})
	f.generate(t)
	ctx := context.Background()

	var mine int64
	for _, inst := range f.instances(t, model.StatusPending) {
		if inst.UserID == a.ID {
			mine = inst.ID
		}
	}
	if _, err := f.engine.Complete(ctx, mine, nil, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if got := len(f.instances(t, model.StatusPending)); got != 0 {
		t.Errorf("pending = %d, want 0", got)
	}
	if got := len(f.instances(t, model.StatusCompleted)); got != 2 {
		t.Errorf("completed = %d, want 2", got)
	}
	if u := f.reload(t, b.ID); u.CurrentPoints != 0 {
		t.Errorf("sibling points = %d, want 0", u.CurrentPoints)
	}
	txs, _ := store.NewTransactionStore(f.db).List(ctx, model.TransactionFilter{})
	if len(txs) != 1 {
		t.Errorf("transactions = %d, want 1", len(txs))
	}
}

func TestPhotoGateFlow(t *testing.T) {
	f := setupEngine(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	role := f.role(t, "Child", 1.5)
	kid := f.user(t, "kid", role.ID)
	f.task(t, model.Task{Name: "Clean room", BasePoints: 10, ScheduleType: model.ScheduleDaily, DefaultDueTime: "18:00", RequiresPhotoVerification: true})
	f.generate(t)
	inst := f.instances(t, model.StatusPending)[0]
	ctx := context.Background()

	if _, err := f.engine.Complete(ctx, inst.ID, nil, nil); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("complete without photo err = %v, want validation", err)
	}
	if _, err := f.engine.Complete(ctx, inst.ID, nil, strPtr("  ")); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("complete with blank photo err = %v, want validation", err)
	}

	photo := "https://example.com/room.jpg"
	inReview, err := f.engine.Complete(ctx, inst.ID, nil, &photo)
	if err != nil {
		t.Fatalf("complete with photo: %v", err)
	}
	if inReview.Status != model.StatusInReview || inReview.CompletedAt != nil {
		t.Fatalf("instance = %+v, want IN_REVIEW without completion time", inReview)
	}
	if u := f.reload(t, kid.ID); u.CurrentPoints != 0 {
		t.Errorf("points while in review = %d, want 0", u.CurrentPoints)
	}

	rejected, err := f.engine.Review(ctx, inst.ID, false, "too blurry")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != model.StatusPending || rejected.CompletionPhotoURL != nil {
		t.Fatalf("after reject = %+v, want PENDING without photo", rejected)
	}

	if _, err := f.engine.Complete(ctx, inst.ID, nil, &photo); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	approved, err := f.engine.Review(ctx, inst.ID, true, "")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != model.StatusCompleted {
		t.Errorf("status = %q, want COMPLETED", approved.Status)
	}
	if u := f.reload(t, kid.ID); u.CurrentPoints != 20 {
		t.Errorf("points after approval = %d, want 20", u.CurrentPoints)
	}

	var types []event.Type
	for _, e := range f.events.events {
		types = append(types, e.Type)
	}
	want := []event.Type{event.TaskInReview, event.TaskReviewed, event.TaskInReview, event.TaskReviewed}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, types[i], want[i])
		}
	}
	if f.events.events[1].Outcome != event.OutcomeRejected || f.events.events[1].Reason != "too blurry" {
		t.Errorf("rejection event = %+v", f.events.events[1])
	}
	if f.events.events[3].Outcome != event.OutcomeApproved || f.events.events[3].Points != 20 {
		t.Errorf("approval event = %+v", f.events.events[3])
	}
}

func TestReviewRequiresInReview(t *testing.T) {
	f := setupEngine(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	role := f.role(t, "Child", 1.5)
	f.user(t, "kid", role.ID)
	f.task(t, model.Task{Name: "Dishes", ScheduleType: model.ScheduleDaily, DefaultDueTime: "18:00"})
	f.generate(t)
	inst := f.instances(t, model.StatusPending)[0]

	_, err := f.engine.Review(context.Background(), inst.ID, true, "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation", err)
	}
}

func pendingFor(t *testing.T, f *fixture, taskID, userID int64) int {
	t.Helper()
	var n int
	for _, inst := range f.instances(t, model.StatusPending) {
		if inst.TaskID == taskID && inst.UserID == userID {
			n++
		}
	}
	return n
}

func TestPhotoClaimRefusedWhenPerformerHoldsInstance(t *testing.T) {
	f := setupEngine(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	role := f.role(t, "Child", 1.5)
	a := f.user(t, "anna", role.ID)
	b := f.user(t, "ben", role.ID)
	task := f.task(t, model.Task{Name: "Clean bathroom", ScheduleType: model.ScheduleDaily, DefaultDueTime: "18:00", RequiresPhotoVerification: true})
	f.generate(t)
	ctx := context.Background()

	var bInst model.InstanceDetail
	for _, inst := range f.instances(t, model.StatusPending) {
		if inst.UserID == b.ID {
			bInst = inst
		}
	}

	photo := "https://example.com/bathroom.jpg"
	_, err := f.engine.Complete(ctx, bInst.ID, &a.ID, &photo)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("claim err = %v, want conflict", err)
	}

	got, err := store.NewInstanceStore(f.db).GetByID(ctx, bInst.ID)
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	if got.UserID != b.ID || got.Status != model.StatusPending {
		t.Errorf("instance = %+v, want untouched PENDING for ben", got)
	}
	if n := pendingFor(t, f, task.ID, a.ID); n != 1 {
		t.Errorf("pending for anna = %d, want 1", n)
	}
}

func TestPhotoClaimThenRejectKeepsOnePending(t *testing.T) {
	f := setupEngine(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	child := f.role(t, "Child", 1.5)
	adult := f.role(t, "Adult", 1.0)
	f.user(t, "kid", child.ID)
	parent := f.user(t, "parent", adult.ID)
	task := f.task(t, model.Task{Name: "Clean room", ScheduleType: model.ScheduleDaily, DefaultDueTime: "18:00", RequiresPhotoVerification: true, AssignedRoleID: &child.ID})
	f.generate(t)
	inst := f.instances(t, model.StatusPending)[0]
	ctx := context.Background()

	photo := "https://example.com/room.jpg"
	claimed, err := f.engine.Complete(ctx, inst.ID, &parent.ID, &photo)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.UserID != parent.ID || claimed.Status != model.StatusInReview {
		t.Fatalf("claimed = %+v, want IN_REVIEW for parent", claimed)
	}

	if _, err := f.engine.Review(ctx, inst.ID, false, "not done"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if n := pendingFor(t, f, task.ID, parent.ID); n != 1 {
		t.Errorf("pending for parent = %d, want 1", n)
	}
}

func TestGenerateDuringReviewThenReject(t *testing.T) {
	f := setupEngine(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	role := f.role(t, "Child", 1.5)
	kid := f.user(t, "kid", role.ID)
	task := f.task(t, model.Task{Name: "Clean room", ScheduleType: model.ScheduleDaily, DefaultDueTime: "18:00", RequiresPhotoVerification: true})
	f.generate(t)
	inst := f.instances(t, model.StatusPending)[0]
	ctx := context.Background()

	photo := "https://example.com/room.jpg"
	if _, err := f.engine.Complete(ctx, inst.ID, nil, &photo); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if n := f.generate(t); n != 0 {
		t.Errorf("created %d while in review, want 0", n)
	}

	if _, err := f.engine.Review(ctx, inst.ID, false, "blurry"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if n := pendingFor(t, f, task.ID, kid.ID); n != 1 {
		t.Errorf("pending for kid = %d, want 1", n)
	}
}

func TestRejectRefusedWhenAnotherPendingExists(t *testing.T) {
	f := setupEngine(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	role := f.role(t, "Child", 1.5)
	kid := f.user(t, "kid", role.ID)
	task := f.task(t, model.Task{Name: "Clean room", ScheduleType: model.ScheduleDaily, DefaultDueTime: "18:00", RequiresPhotoVerification: true})
	f.generate(t)
	inst := f.instances(t, model.StatusPending)[0]
	ctx := context.Background()

	photo := "https://example.com/room.jpg"
	if _, err := f.engine.Complete(ctx, inst.ID, nil, &photo); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// A second open instance for the same day, as left by older data.
	if _, err := store.NewInstanceStore(f.db).Create(ctx, task.ID, kid.ID, inst.DueTime); err != nil {
		t.Fatalf("create instance: %v", err)
	}

	_, err := f.engine.Review(ctx, inst.ID, false, "blurry")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("reject err = %v, want conflict", err)
	}
	if n := pendingFor(t, f, task.ID, kid.ID); n != 1 {
		t.Errorf("pending for kid = %d, want 1", n)
	}
}
