package memoir

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ Store = &PostgresStore{}

// turnRecord is the persisted shape of a Turn. Seq is the insertion order
// within the table; it is what chronological replay sorts on.
type turnRecord struct {
	Seq       uint   `gorm:"primaryKey;autoIncrement;index:idx_turn_records_session_seq,priority:2"`
	TurnID    string `gorm:"uniqueIndex;size:64;not null"`
	SessionID string `gorm:"index:idx_turn_records_session_seq,priority:1;size:128;not null"`
	Role      string `gorm:"size:16;not null"`
	Content   string `gorm:"not null"`
	CreatedAt time.Time
}

func (turnRecord) TableName() string {
	return "memoir_turns"
}

func recordFromTurn(sessionID string, t Turn) turnRecord {
	t = t.withDefaults(sessionID)
	return turnRecord{
		TurnID:    t.ID,
		SessionID: t.SessionID,
		Role:      string(t.Role),
		Content:   t.Content,
		CreatedAt: t.CreatedAt,
	}
}

func (r turnRecord) turn() Turn {
	return Turn{
		ID:        r.TurnID,
		SessionID: r.SessionID,
		Role:      Role(r.Role),
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}

// PostgresStore implements the Store interface on PostgreSQL. It is the
// multi-process variant: any number of programs pointed at the same database
// share each session's memory.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to the database at uri and migrates the schema.
func NewPostgresStore(uri string) (*PostgresStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("postgres uri is empty")
	}

	db, err := gorm.Open(postgres.Open(uri), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initDB() error {
	return s.db.AutoMigrate(&turnRecord{})
}

func (s *PostgresStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	records := make([]turnRecord, 0, len(turns))
	for _, t := range turns {
		records = append(records, recordFromTurn(sessionID, t))
	}

	if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("failed to append turns: %w", err)
	}
	return nil
}

func (s *PostgresStore) Turns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	query := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []turnRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}

	// Newest-first from the query; reverse into chronological order.
	turns := make([]Turn, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		turns = append(turns, records[i].turn())
	}
	return turns, nil
}

func (s *PostgresStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&turnRecord{}).Error; err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Sessions(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&turnRecord{}).
		Distinct().
		Order("session_id").
		Pluck("session_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}
	return sqlDB.Close()
}
