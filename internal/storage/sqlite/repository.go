package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/persona-agent/internal/models"
	"github.com/persona-agent/internal/storage"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db *gorm.DB
}

var _ storage.Repository = (*Repository)(nil)

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		dir := filepath.Dir(dsn)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single connection keeps in-memory databases shared and serializes writers
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.History{},
		&models.Session{},
		&models.Diagnosis{},
	)
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}

// History operations

func (r *Repository) SaveHistory(ctx context.Context, history *models.History) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *Repository) ListHistory(ctx context.Context, filter storage.HistoryFilter) ([]*models.History, error) {
	var rows []*models.History
	query := r.db.WithContext(ctx).Model(&models.History{})

	if filter.AccountName != nil {
		query = query.Where("account_name = ?", *filter.AccountName)
	}
	if filter.Industry != nil {
		query = query.Where("industry = ?", *filter.Industry)
	}

	query = query.Order("created_at DESC").Order("id DESC")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Session operations

func (r *Repository) CreateSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *Repository) UpdateSession(ctx context.Context, session *models.Session) error {
	if session.ID == 0 {
		return fmt.Errorf("session %q has not been created", session.PublicID)
	}
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *Repository) GetSession(ctx context.Context, publicID string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&session).Error; err != nil {
		return nil, notFound(err)
	}
	return &session, nil
}

var sessionOrderColumns = map[string]bool{
	"updated_at": true,
	"created_at": true,
	"id":         true,
}

func (r *Repository) ListSessions(ctx context.Context, filter storage.SessionFilter) ([]*models.Session, error) {
	var sessions []*models.Session
	query := r.db.WithContext(ctx).Model(&models.Session{})

	if filter.Industry != nil {
		query = query.Where("industry = ?", *filter.Industry)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.UpdatedSince != nil {
		query = query.Where("updated_at >= ?", *filter.UpdatedSince)
	}
	if filter.ActiveSince != nil {
		query = query.Where("active_at >= ?", *filter.ActiveSince)
	}

	// Ordering
	orderCol := "updated_at"
	if sessionOrderColumns[filter.OrderBy] {
		orderCol = filter.OrderBy
	}
	dir := " ASC"
	if filter.OrderDesc {
		dir = " DESC"
	}
	query = query.Order(orderCol + dir).Order("id" + dir)

	// Pagination
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Diagnosis operations

func (r *Repository) SaveDiagnosis(ctx context.Context, diagnosis *models.Diagnosis) error {
	return r.db.WithContext(ctx).Create(diagnosis).Error
}

func (r *Repository) ListDiagnoses(ctx context.Context, limit int) ([]*models.Diagnosis, error) {
	var rows []*models.Diagnosis
	query := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
