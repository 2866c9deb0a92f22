package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"solecart/pkg/domain"
)

const migrateLockID int64 = 51720417

// CartModel is the carts table: one JSON document per account.
type CartModel struct {
	UserID    string         `gorm:"primaryKey;size:128"`
	Items     datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (CartModel) TableName() string {
	return "carts"
}

// GormCartStore implements CartStore using GORM + Postgres.
type GormCartStore struct {
	db *gorm.DB
}

// NewGormCartStore opens the DB and runs auto-migrations.
func NewGormCartStore(dsn string) (*GormCartStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&CartModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormCartStore{db: db}, nil
}

// NewGormCartStoreFromDB wraps an already opened connection without migrating.
func NewGormCartStoreFromDB(db *gorm.DB) *GormCartStore {
	return &GormCartStore{db: db}
}

func (s *GormCartStore) Load(ctx context.Context, userID string) (domain.Lines, error) {
	var model CartModel
	err := s.db.WithContext(ctx).Where("user_id = ?", strings.TrimSpace(userID)).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Lines{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return decodeLines(model.Items)
}

func (s *GormCartStore) Save(ctx context.Context, userID string, items domain.Lines) error {
	model, err := cartToModel(userID, items)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
	}).Create(&model).Error
}

func (s *GormCartStore) Delete(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Delete(&CartModel{}).Error
}

// Close releases the underlying connection pool.
func (s *GormCartStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func cartToModel(userID string, items domain.Lines) (CartModel, error) {
	if items == nil {
		items = domain.Lines{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return CartModel{}, fmt.Errorf("encode cart: %w", err)
	}
	return CartModel{
		UserID:    strings.TrimSpace(userID),
		Items:     datatypes.JSON(data),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}
