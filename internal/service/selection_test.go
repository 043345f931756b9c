package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/adventskalender/backend/internal/models"
	"github.com/adventskalender/backend/internal/repo"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Participant{}, &models.User{}, &models.AuditEvent{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()

	user := models.User{Username: username, PasswordHash: "irrelevant"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedParticipants(t *testing.T, db *gorm.DB, count int) {
	t.Helper()

	for i := 0; i < count; i++ {
		p := models.Participant{
			FirstName: fmt.Sprintf("First%d", i),
			LastName:  fmt.Sprintf("Last%d", i),
		}
		require.NoError(t, db.Create(&p).Error)
	}
}

func newSelectionService(db *gorm.DB) *SelectionService {
	gormRepo := &repo.GormRepo{DB: db}
	return &SelectionService{
		Repo:  gormRepo,
		Audit: &AuditService{Repo: gormRepo},
	}
}

func auditCountByAction(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.AuditEvent{}).Where("action = ?", action).Count(&count).Error)
	return count
}

func testDate(day int) time.Time {
	return time.Date(2025, 12, day, 0, 0, 0, 0, time.UTC)
}

func TestPick_MarksRequestedNumberOfWinners(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	seedUser(t, db, "santa")
	seedParticipants(t, db, 5)
	svc := newSelectionService(db)
	ctx := context.Background()

	picked, err := svc.Pick(ctx, 3, testDate(1), "santa")
	require.NoError(t, err)
	require.Len(t, picked, 3)

	seen := map[int]bool{}
	for _, p := range picked {
		assert.False(t, seen[p.ID], "participant %d picked twice", p.ID)
		seen[p.ID] = true
		require.NotNil(t, p.WonOn)
		assert.Equal(t, "2025-12-01", p.WonOn.Format("2006-01-02"))
	}

	counts, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), counts.Total)
	assert.Equal(t, int64(3), counts.Won)
	assert.Equal(t, int64(2), counts.Eligible)

	assert.Equal(t, int64(3), auditCountByAction(t, db, models.ActionPickedWinner))
}

func TestPick_InsufficientPoolMutatesNothing(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	seedUser(t, db, "santa")
	seedParticipants(t, db, 4)
	svc := newSelectionService(db)
	ctx := context.Background()

	_, err := svc.Pick(ctx, 5, testDate(1), "santa")
	require.ErrorIs(t, err, repo.ErrInsufficientParticipants)

	counts, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Won)
	assert.Equal(t, int64(0), auditCountByAction(t, db, models.ActionPickedWinner))

	// picking the whole remaining pool still works afterwards
	picked, err := svc.Pick(ctx, 4, testDate(1), "santa")
	require.NoError(t, err)
	assert.Len(t, picked, 4)
}

func TestPick_ZeroCountReturnsEmpty(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	svc := newSelectionService(db)

	picked, err := svc.Pick(context.Background(), 0, testDate(1), "nobody")
	require.NoError(t, err)
	assert.Empty(t, picked)
	assert.Equal(t, int64(0), auditCountByAction(t, db, models.ActionPickedWinner))
}

func TestPick_NegativeCountRejected(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	svc := newSelectionService(db)

	_, err := svc.Pick(context.Background(), -1, testDate(1), "santa")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPick_UnknownActorRejected(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	seedParticipants(t, db, 2)
	svc := newSelectionService(db)

	_, err := svc.Pick(context.Background(), 1, testDate(1), "ghost")
	assert.ErrorIs(t, err, ErrUnknownActor)
}

func TestPick_AbortsWhenRowClaimedMidTransaction(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	seedUser(t, db, "santa")
	seedParticipants(t, db, 3)
	svc := newSelectionService(db)
	ctx := context.Background()

	// A competing writer claims one of the chosen rows between the
	// eligible load and the guarded update. Running it on the picking
	// transaction's own connection keeps the interleaving deterministic.
	claimed := false
	err := db.Callback().Update().Before("gorm:update").Register("claim_competing_row", func(tx *gorm.DB) {
		if claimed {
			return
		}
		claimed = true
		claim := tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE participants SET won_on = ? WHERE id = (SELECT MIN(id) FROM participants WHERE won_on IS NULL)", testDate(24))
		assert.NoError(t, claim.Error)
	})
	require.NoError(t, err)

	_, err = svc.Pick(ctx, 3, testDate(1), "santa")
	require.ErrorIs(t, err, repo.ErrConcurrentModification)

	// the rollback leaves the pool and the audit trail untouched
	counts, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Won)
	assert.Equal(t, int64(3), counts.Eligible)
	assert.Equal(t, int64(0), auditCountByAction(t, db, models.ActionPickedWinner))

	// without the competing writer the same pick goes through
	require.NoError(t, db.Callback().Update().Remove("claim_competing_row"))
	picked, err := svc.Pick(ctx, 3, testDate(1), "santa")
	require.NoError(t, err)
	assert.Len(t, picked, 3)
}

func TestUnpick_ReturnsParticipantToPool(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	seedUser(t, db, "santa")
	seedParticipants(t, db, 1)
	svc := newSelectionService(db)
	ctx := context.Background()

	picked, err := svc.Pick(ctx, 1, testDate(1), "santa")
	require.NoError(t, err)
	winner := picked[0]

	require.NoError(t, svc.Unpick(ctx, winner.ID, "santa"))

	var reloaded models.Participant
	require.NoError(t, db.First(&reloaded, winner.ID).Error)
	assert.Nil(t, reloaded.WonOn)
	assert.Nil(t, reloaded.PickedBy)
	assert.Nil(t, reloaded.PickingTime)
	assert.Nil(t, reloaded.PresentIdentifier)

	assert.Equal(t, int64(1), auditCountByAction(t, db, models.ActionRemovedWinner))

	// the same participant can win again
	picked, err = svc.Pick(ctx, 1, testDate(2), "santa")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, picked[0].ID)
}

func TestUnpick_UnknownParticipant(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	seedUser(t, db, "santa")
	svc := newSelectionService(db)

	err := svc.Unpick(context.Background(), 4711, "santa")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestAssignPackage_RequiresWinner(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	seedUser(t, db, "santa")
	seedParticipants(t, db, 1)
	svc := newSelectionService(db)

	var p models.Participant
	require.NoError(t, db.First(&p).Error)

	err := svc.AssignPackage(context.Background(), p.ID, "A", "santa")
	require.ErrorIs(t, err, repo.ErrNotAWinnerYet)

	var reloaded models.Participant
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Nil(t, reloaded.PresentIdentifier)
}

func TestAssignPackage_ConflictOnSameDate(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	seedUser(t, db, "santa")
	seedParticipants(t, db, 3)
	svc := newSelectionService(db)
	ctx := context.Background()

	picked, err := svc.Pick(ctx, 2, testDate(1), "santa")
	require.NoError(t, err)

	require.NoError(t, svc.AssignPackage(ctx, picked[0].ID, "A", "santa"))
	assert.Equal(t, int64(1), auditCountByAction(t, db, models.ActionPackageSelected))

	err = svc.AssignPackage(ctx, picked[1].ID, "A", "santa")
	assert.ErrorIs(t, err, repo.ErrPackageConflict)

	// a different package on the same date is fine
	require.NoError(t, svc.AssignPackage(ctx, picked[1].ID, "B", "santa"))

	// the same package on another date is fine too
	others, err := svc.Pick(ctx, 1, testDate(2), "santa")
	require.NoError(t, err)
	require.NoError(t, svc.AssignPackage(ctx, others[0].ID, "A", "santa"))
}

func TestAssignPackage_ChangeRecordsPreviousValue(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	seedUser(t, db, "santa")
	seedParticipants(t, db, 1)
	svc := newSelectionService(db)
	ctx := context.Background()

	picked, err := svc.Pick(ctx, 1, testDate(1), "santa")
	require.NoError(t, err)

	require.NoError(t, svc.AssignPackage(ctx, picked[0].ID, "A", "santa"))
	require.NoError(t, svc.AssignPackage(ctx, picked[0].ID, "B", "santa"))

	var change models.AuditEvent
	require.NoError(t, db.Where("action = ?", models.ActionPackageChanged).First(&change).Error)
	require.NotNil(t, change.Description)
	assert.Contains(t, *change.Description, "from A to B")

	var reloaded models.Participant
	require.NoError(t, db.First(&reloaded, picked[0].ID).Error)
	require.NotNil(t, reloaded.PresentIdentifier)
	assert.Equal(t, "B", *reloaded.PresentIdentifier)
}

func TestWinnersByDate_GroupsByDay(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	seedUser(t, db, "santa")
	seedParticipants(t, db, 5)
	svc := newSelectionService(db)
	ctx := context.Background()

	_, err := svc.Pick(ctx, 2, testDate(1), "santa")
	require.NoError(t, err)
	_, err = svc.Pick(ctx, 1, testDate(2), "santa")
	require.NoError(t, err)

	grouped, err := svc.WinnersByDate(ctx)
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	assert.Len(t, grouped["2025-12-01"], 2)
	assert.Len(t, grouped["2025-12-02"], 1)

	count, err := svc.WinnerCountOn(ctx, testDate(1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPick_AttributesActor(t *testing.T) {
	t.Parallel()

	db := initTestDB(t)
	user := seedUser(t, db, "santa")
	seedParticipants(t, db, 1)
	svc := newSelectionService(db)

	picked, err := svc.Pick(context.Background(), 1, testDate(1), "santa")
	require.NoError(t, err)

	var reloaded models.Participant
	require.NoError(t, db.First(&reloaded, picked[0].ID).Error)
	require.NotNil(t, reloaded.PickedBy)
	assert.Equal(t, user.ID, *reloaded.PickedBy)
	require.NotNil(t, reloaded.PickingTime)
}
