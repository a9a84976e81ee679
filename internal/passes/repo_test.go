package passes

import (
	"context"
	"testing"
	"time"

	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/Yashop965/CamPass/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPassesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'student',
  parent_id TEXT,
  device_token TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	passes := `
CREATE TABLE IF NOT EXISTS passes (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  purpose TEXT,
  valid_from DATETIME NOT NULL,
  valid_to DATETIME NOT NULL,
  barcode TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL,
  rejection_reason TEXT,
  exit_time DATETIME,
  entry_time DATETIME,
  overdue_alerted_at DATETIME,
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(passes).Error)
	return db
}

func seedStudent(t *testing.T, db *gorm.DB, parentID *uuid.UUID) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Student",
		Email:        uuid.NewString() + "@example.edu",
		PasswordHash: "hash",
		Role:         enums.RoleStudent,
		ParentID:     parentID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPass(t *testing.T, db *gorm.DB, userID uuid.UUID, status enums.PassStatus, createdAt time.Time) *models.Pass {
	t.Helper()
	pass := &models.Pass{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      enums.PassTypeOuting,
		ValidFrom: createdAt,
		ValidTo:   createdAt.Add(4 * time.Hour),
		Barcode:   uuid.NewString(),
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, db.Create(pass).Error)
	return pass
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupPassesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, nil)
	pass := seedPass(t, db, student.ID, enums.PassStatusPending, time.Now().UTC())

	byID, err := repo.FindByID(ctx, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, pass.Barcode, byID.Barcode)
	require.NotNil(t, byID.Student)
	assert.Equal(t, student.Name, byID.Student.Name)

	byBarcode, err := repo.FindByBarcode(ctx, pass.Barcode)
	require.NoError(t, err)
	assert.Equal(t, pass.ID, byBarcode.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateVersioned(t *testing.T) {
	db := setupPassesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, nil)
	pass := seedPass(t, db, student.ID, enums.PassStatusPending, time.Now().UTC())

	ok, err := repo.UpdateVersioned(ctx, pass.ID, 0, map[string]any{
		"status": enums.PassStatusApprovedWarden,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := repo.FindByID(ctx, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PassStatusApprovedWarden, reloaded.Status)
	assert.Equal(t, 1, reloaded.Version)

	// stale version loses
	ok, err = repo.UpdateVersioned(ctx, pass.ID, 0, map[string]any{
		"status": enums.PassStatusExited,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err = repo.FindByID(ctx, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PassStatusApprovedWarden, reloaded.Status)
	assert.Equal(t, 1, reloaded.Version)
}

func TestRepositoryListByUserWithCursor(t *testing.T) {
	db := setupPassesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, nil)
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedPass(t, db, student.ID, enums.PassStatusPending, base.Add(time.Duration(i)*time.Minute))
	}

	rows, next, err := repo.ListByUser(ctx, student.ID, listPassesParams{Limit: 3})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.NotNil(t, next)
	// newest first
	assert.True(t, rows[0].CreatedAt.After(rows[1].CreatedAt))

	rows, next, err = repo.ListByUser(ctx, student.ID, listPassesParams{Limit: 3, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Nil(t, next)
}

func TestRepositoryListByUserStatusFilter(t *testing.T) {
	db := setupPassesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, nil)
	now := time.Now().UTC()
	seedPass(t, db, student.ID, enums.PassStatusPending, now)
	seedPass(t, db, student.ID, enums.PassStatusRejected, now.Add(time.Minute))

	status := enums.PassStatusRejected
	rows, _, err := repo.ListByUser(ctx, student.ID, listPassesParams{Limit: 10, Status: &status})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.PassStatusRejected, rows[0].Status)
}

func TestRepositoryListByStatuses(t *testing.T) {
	db := setupPassesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, nil)
	now := time.Now().UTC()
	seedPass(t, db, student.ID, enums.PassStatusPending, now)
	seedPass(t, db, student.ID, enums.PassStatusApprovedParent, now.Add(time.Minute))
	seedPass(t, db, student.ID, enums.PassStatusEntered, now.Add(2*time.Minute))

	rows, _, err := repo.ListByStatuses(ctx,
		[]enums.PassStatus{enums.PassStatusPending, enums.PassStatusApprovedParent},
		listPassesParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestRepositoryListPendingForParent(t *testing.T) {
	db := setupPassesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	parentID := uuid.New()
	linked := seedStudent(t, db, &parentID)
	unlinked := seedStudent(t, db, nil)
	now := time.Now().UTC()

	seedPass(t, db, linked.ID, enums.PassStatusPending, now)
	seedPass(t, db, linked.ID, enums.PassStatusApprovedWarden, now.Add(time.Minute))
	seedPass(t, db, unlinked.ID, enums.PassStatusPending, now.Add(2*time.Minute))

	rows, _, err := repo.ListPendingForParent(ctx, parentID, listPassesParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, linked.ID, rows[0].UserID)
	assert.Equal(t, enums.PassStatusPending, rows[0].Status)
}

func TestRepositoryFindOverdue(t *testing.T) {
	db := setupPassesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, nil)
	now := time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC)
	grace := 15 * time.Minute

	// exited, window closed an hour ago: overdue
	overdue := seedPass(t, db, student.ID, enums.PassStatusExited, now.Add(-6*time.Hour))
	require.NoError(t, db.Model(overdue).UpdateColumn("valid_to", now.Add(-time.Hour)).Error)

	// exited but still inside grace: not overdue
	recent := seedPass(t, db, student.ID, enums.PassStatusExited, now.Add(-5*time.Hour))
	require.NoError(t, db.Model(recent).UpdateColumn("valid_to", now.Add(-5*time.Minute)).Error)

	// entered already: not overdue
	returned := seedPass(t, db, student.ID, enums.PassStatusEntered, now.Add(-4*time.Hour))
	require.NoError(t, db.Model(returned).UpdateColumn("valid_to", now.Add(-2*time.Hour)).Error)

	rows, err := repo.FindOverdue(ctx, now, grace)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, overdue.ID, rows[0].ID)

	// marking suppresses the next sweep
	require.NoError(t, repo.MarkOverdueAlerted(ctx, []uuid.UUID{overdue.ID}, now))
	rows, err = repo.FindOverdue(ctx, now, grace)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepositoryHistoryPagination(t *testing.T) {
	db := setupPassesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, nil)
	base := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		seedPass(t, db, student.ID, enums.PassStatusEntered, base.Add(time.Duration(i)*time.Hour))
	}
	awaiting := seedPass(t, db, student.ID, enums.PassStatusPending, base.Add(5*time.Hour))

	var collected []models.Pass
	var cursor *pagination.Cursor
	for {
		rows, next, err := repo.ListHistory(ctx, listPassesParams{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		collected = append(collected, rows...)
		if next == nil {
			break
		}
		cursor = next
	}
	require.Len(t, collected, 4)
	seen := map[uuid.UUID]bool{}
	for _, row := range collected {
		assert.False(t, seen[row.ID], "duplicate row in pagination")
		assert.NotEqual(t, awaiting.ID, row.ID, "pending passes are not history")
		seen[row.ID] = true
	}
}
