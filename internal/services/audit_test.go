package services

import (
	"context"
	"testing"

	"github.com/credguard/backend/internal/database"
	"github.com/credguard/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuditDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))
	return db
}

func TestAuditService_CloseDrainsQueue(t *testing.T) {
	db := setupAuditDB(t)
	s := NewAuditService(db, 10)

	userID := uuid.New()
	for i := 0; i < 5; i++ {
		s.LogAsync(AuditEntry{
			UserID:  &userID,
			Action:  AuditActionLogin,
			Outcome: AuditOutcomeSuccess,
			Details: map[string]interface{}{"attempt": i},
		})
	}
	s.Close()

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	assert.Equal(t, int64(5), count)

	rows, err := s.Recent(context.Background(), &userID, 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, AuditActionLogin, rows[0].Action)
	assert.Contains(t, rows[0].Details, "attempt")
}

func TestAuditService_LogAfterCloseIsDropped(t *testing.T) {
	db := setupAuditDB(t)
	s := NewAuditService(db, 10)
	s.Close()

	assert.NotPanics(t, func() {
		s.LogAsync(AuditEntry{Action: AuditActionLogin, Outcome: AuditOutcomeFailure})
	})
	assert.NotPanics(t, s.Close)

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuditService_NilIsNoop(t *testing.T) {
	var s *AuditService
	assert.NotPanics(t, func() {
		s.LogAsync(AuditEntry{Action: AuditActionLogin})
		s.Close()
	})
}

func TestAuditService_RecentWithoutUserFilter(t *testing.T) {
	db := setupAuditDB(t)
	s := NewAuditService(db, 10)

	a, b := uuid.New(), uuid.New()
	s.LogAsync(AuditEntry{UserID: &a, Action: AuditActionRegister, Outcome: AuditOutcomeSuccess})
	s.LogAsync(AuditEntry{UserID: &b, Action: AuditActionRegister, Outcome: AuditOutcomeSuccess})
	s.Close()

	rows, err := s.Recent(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
