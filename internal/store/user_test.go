package store

import (
	"context"
	"testing"
)

func TestUserCreateAndGetWithRole(t *testing.T) {
	db := setupTestDB(t)
	role := mustRole(t, db, "Child", 1.5)
	us := NewUserStore(db)
	ctx := context.Background()

	u, err := us.Create(ctx, "kid", "hash", role.ID)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.CurrentPoints != 0 || u.LifetimePoints != 0 || u.CurrentStreak != 0 {
		t.Errorf("new user balances = %d/%d/%d, want zeros", u.CurrentPoints, u.LifetimePoints, u.CurrentStreak)
	}
	if u.LastTaskDate != nil {
		t.Errorf("last task date = %v, want nil", *u.LastTaskDate)
	}

	wr, err := us.GetWithRole(ctx, u.ID)
	if err != nil {
		t.Fatalf("get with role: %v", err)
	}
	if wr.Role.Name != "Child" || wr.Role.Multiplier != 1.5 {
		t.Errorf("role = %+v, want Child/1.5", wr.Role)
	}

	hash, err := us.GetPINHash(ctx, u.ID)
	if err != nil {
		t.Fatalf("get pin hash: %v", err)
	}
	if hash != "hash" {
		t.Errorf("pin hash = %q, want %q", hash, "hash")
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)

	u, err := NewUserStore(db).GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u != nil {
		t.Error("expected nil for nonexistent user")
	}
}

func TestUserDuplicateNickname(t *testing.T) {
	db := setupTestDB(t)
	role := mustRole(t, db, "Child", 1.5)
	mustUser(t, db, "kid", role.ID)

	if _, err := NewUserStore(db).Create(context.Background(), "kid", "x", role.ID); err == nil {
		t.Fatal("expected error for duplicate nickname")
	}
}

func TestUserCreditAndDebit(t *testing.T) {
	db := setupTestDB(t)
	role := mustRole(t, db, "Child", 1.5)
	u := mustUser(t, db, "kid", role.ID)
	us := NewUserStore(db)
	ctx := context.Background()

	if err := us.Credit(ctx, u.ID, 100); err != nil {
		t.Fatalf("credit: %v", err)
	}

	ok, err := us.Debit(ctx, u.ID, 60)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !ok {
		t.Fatal("debit of 60 from 100 should succeed")
	}

	ok, err = us.Debit(ctx, u.ID, 41)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if ok {
		t.Fatal("debit of 41 from 40 should be refused")
	}

	got, err := us.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentPoints != 40 {
		t.Errorf("current points = %d, want 40", got.CurrentPoints)
	}
	if got.LifetimePoints != 100 {
		t.Errorf("lifetime points = %d, want 100", got.LifetimePoints)
	}
}

func TestUserGoal(t *testing.T) {
	db := setupTestDB(t)
	role := mustRole(t, db, "Child", 1.5)
	u := mustUser(t, db, "kid", role.ID)
	ctx := context.Background()

	rs := NewRewardStore(db)
	bike, err := rs.Create(ctx, "Bike", "", 500, 2)
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}
	movie, err := rs.Create(ctx, "Movie", "", 50, 1)
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}

	us := NewUserStore(db)
	if err := us.SetGoal(ctx, u.ID, &bike.ID); err != nil {
		t.Fatalf("set goal: %v", err)
	}

	// A different reward leaves the goal untouched.
	if err := us.ClearGoalIf(ctx, u.ID, movie.ID); err != nil {
		t.Fatalf("clear goal: %v", err)
	}
	got, _ := us.GetByID(ctx, u.ID)
	if got.CurrentGoalRewardID == nil || *got.CurrentGoalRewardID != bike.ID {
		t.Fatalf("goal = %v, want %d", got.CurrentGoalRewardID, bike.ID)
	}

	if err := us.ClearGoalIf(ctx, u.ID, bike.ID); err != nil {
		t.Fatalf("clear goal: %v", err)
	}
	got, _ = us.GetByID(ctx, u.ID)
	if got.CurrentGoalRewardID != nil {
		t.Errorf("goal = %d, want nil", *got.CurrentGoalRewardID)
	}
}

func TestUserReassignRole(t *testing.T) {
	db := setupTestDB(t)
	from := mustRole(t, db, "Old", 1.0)
	to := mustRole(t, db, "New", 1.2)
	mustUser(t, db, "a", from.ID)
	mustUser(t, db, "b", from.ID)
	us := NewUserStore(db)
	ctx := context.Background()

	n, err := us.ReassignRole(ctx, from.ID, to.ID)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if n != 2 {
		t.Errorf("reassigned = %d, want 2", n)
	}

	count, err := us.CountByRole(ctx, from.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("users left on old role = %d, want 0", count)
	}
}

func TestUserUpdateStreak(t *testing.T) {
	db := setupTestDB(t)
	role := mustRole(t, db, "Child", 1.5)
	u := mustUser(t, db, "kid", role.ID)
	us := NewUserStore(db)
	ctx := context.Background()

	if err := us.UpdateStreak(ctx, u.ID, 3, "2026-10-17"); err != nil {
		t.Fatalf("update streak: %v", err)
	}
	got, _ := us.GetByID(ctx, u.ID)
	if got.CurrentStreak != 3 {
		t.Errorf("streak = %d, want 3", got.CurrentStreak)
	}
	if got.LastTaskDate == nil || *got.LastTaskDate != "2026-10-17" {
		t.Errorf("last task date = %v, want 2026-10-17", got.LastTaskDate)
	}
}

func TestUserSetLanguage(t *testing.T) {
	db := setupTestDB(t)
	role := mustRole(t, db, "Child", 1.5)
	u := mustUser(t, db, "kid", role.ID)
	us := NewUserStore(db)
	ctx := context.Background()

	if u.PreferredLanguage != nil {
		t.Fatalf("new user language = %q, want nil", *u.PreferredLanguage)
	}

	de := "de"
	if err := us.SetLanguage(ctx, u.ID, &de); err != nil {
		t.Fatalf("set language: %v", err)
	}
	got, _ := us.GetByID(ctx, u.ID)
	if got.PreferredLanguage == nil || *got.PreferredLanguage != "de" {
		t.Fatalf("language = %v, want de", got.PreferredLanguage)
	}

	if err := us.SetLanguage(ctx, u.ID, nil); err != nil {
		t.Fatalf("clear language: %v", err)
	}
	got, _ = us.GetByID(ctx, u.ID)
	if got.PreferredLanguage != nil {
		t.Errorf("language = %q, want nil", *got.PreferredLanguage)
	}
}
