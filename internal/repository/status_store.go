package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FanOutRun is one row of the fan-out audit trail.
type FanOutRun struct {
	RequestID  string `gorm:"primaryKey"`
	Kind       string
	Sender     string
	Recipients int
	Reached    int
	Status     string
	Detail     string
	UpdatedAt  time.Time
}

// StatusStore persists fan-out runs in a relational table for the ops
// dashboards. It is an optional collaborator; the engines run without it.
type StatusStore struct {
	db        *gorm.DB
	tableName string
}

func NewStatusStore(db *gorm.DB, tableName string) (*StatusStore, error) {
	if tableName == "" {
		tableName = "fanout_runs"
	}
	if err := db.Table(tableName).AutoMigrate(&FanOutRun{}); err != nil {
		return nil, err
	}
	return &StatusStore{
		db:        db,
		tableName: tableName,
	}, nil
}

// UpsertRun inserts the run on first sight and updates its terminal fields
// afterwards. Kind, sender and recipient count are set on insert only.
func (s *StatusStore) UpsertRun(ctx context.Context, requestID, kind, sender, status string, recipients, reached int, detail string) error {
	run := FanOutRun{
		RequestID:  requestID,
		Kind:       kind,
		Sender:     sender,
		Recipients: recipients,
		Reached:    reached,
		Status:     status,
		Detail:     detail,
		UpdatedAt:  time.Now(),
	}
	return s.db.WithContext(ctx).Table(s.tableName).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "reached", "detail", "updated_at"}),
		}).Create(&run).Error
}
