package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"gorm.io/gorm"
)

// FailedJobRecord is a job that exhausted its retries, kept for
// `storefront queue:failed`.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JobType  string    `gorm:"size:255;not null;index"  json:"job_type"`
	Payload  string    `gorm:"type:text;not null"        json:"payload"`
	Error    string    `gorm:"type:text"                 json:"error"`
	Attempts int       `gorm:"not null;default:0"        json:"attempts"`
	FailedAt time.Time `gorm:"autoCreateTime"            json:"failed_at"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

var failedJobDB *gorm.DB

// UseDB persists failed jobs to db. The table is created by migrations.
func UseDB(db *gorm.DB) {
	defaultManager.mu.Lock()
	failedJobDB = db
	defaultManager.mu.Unlock()
}

// ListFailed returns the most recent persisted failures, newest first.
func ListFailed(db *gorm.DB, limit int) ([]FailedJobRecord, error) {
	var rows []FailedJobRecord
	err := db.Order("id desc").Limit(limit).Find(&rows).Error
	return rows, err
}

func (m *Manager) persistFailed(job Job, typeName string, lastErr error, attempts int) {
	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{
		Type: typeName, Job: job, Err: lastErr, FailedAt: time.Now(), Attempts: attempts,
	})
	db := failedJobDB
	m.mu.Unlock()

	if db == nil {
		return
	}

	payload, err := json.Marshal(job)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"error": "could not marshal: %v"}`, err))
	}

	msg := ""
	if lastErr != nil {
		msg = lastErr.Error()
	}
	record := FailedJobRecord{
		JobType:  typeName,
		Payload:  string(payload),
		Error:    msg,
		Attempts: attempts,
	}
	if err := db.Create(&record).Error; err != nil {
		logger.Error("queue: persist failed job", "type", typeName, "error", err)
	}
}
