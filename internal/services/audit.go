package services

import (
	"context"
	"sync"
	"time"

	"github.com/credguard/backend/internal/models"
	"github.com/credguard/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AuditActionRegister         = "user.register"
	AuditActionLogin            = "user.login"
	AuditActionLockout          = "user.lockout"
	AuditActionUnlock           = "user.unlock"
	AuditActionDeactivate       = "user.deactivate"
	AuditActionActivate         = "user.activate"
	AuditActionPasswordChange   = "user.password_change"
	AuditActionTwoFactorSetup   = "two_factor.setup"
	AuditActionTwoFactorEnable  = "two_factor.enable"
	AuditActionTwoFactorDisable = "two_factor.disable"
	AuditActionBackupCodeUsed   = "two_factor.backup_code_used"
	AuditActionBackupCodesRenew = "two_factor.backup_codes_regenerated"

	AuditOutcomeSuccess = "success"
	AuditOutcomeFailure = "failure"
)

type AuditEntry struct {
	UserID  *uuid.UUID
	Action  string
	Outcome string
	Details map[string]interface{}
}

// AuditService writes audit rows from a single background goroutine. A nil
// *AuditService discards entries.
type AuditService struct {
	DB    *gorm.DB
	queue chan models.AuditLog
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAuditService(db *gorm.DB, queueSize int) *AuditService {
	if queueSize <= 0 {
		queueSize = 1000
	}
	s := &AuditService{
		DB:    db,
		queue: make(chan models.AuditLog, queueSize),
		done:  make(chan struct{}),
	}
	go s.processQueue()
	return s
}

func (s *AuditService) LogAsync(entry AuditEntry) {
	if s == nil {
		return
	}
	row := models.AuditLog{
		UserID:    entry.UserID,
		Action:    entry.Action,
		Outcome:   entry.Outcome,
		Details:   entry.Details,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		logger.Warn("audit_service_closed", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
		return
	}

	select {
	case s.queue <- row:
	default:
		logger.Warn("audit_queue_full", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
	}
}

func (s *AuditService) processQueue() {
	defer close(s.done)
	for row := range s.queue {
		if err := s.DB.Create(&row).Error; err != nil {
			logger.Error("audit_log_insert_failed", err, map[string]interface{}{
				"action": row.Action,
			})
		}
	}
}

// Close stops accepting entries and waits until queued rows are written.
func (s *AuditService) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

// Recent returns the newest rows first, optionally for a single user.
func (s *AuditService) Recent(ctx context.Context, userID *uuid.UUID, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	q := s.DB.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var rows []models.AuditLog
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
