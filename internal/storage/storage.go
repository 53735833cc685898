package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/liamashdown/buyalert/internal/config"
	"github.com/liamashdown/buyalert/internal/metrics"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DB wraps the GORM database connection
type DB struct {
	conn *gorm.DB
	log  *logrus.Logger
}

// New creates a new database connection with GORM
func New(cfg *config.Config, log *logrus.Logger) (*DB, error) {
	gormLogger := logger.New(
		&gormLogAdapter{log: log},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(mysql.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DatabaseMaxConns)
	sqlDB.SetMaxIdleConns(cfg.DatabaseMaxConns / 2)
	sqlDB.SetConnMaxIdleTime(cfg.DatabaseMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("Database connection established")

	return &DB{conn: conn, log: log}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs GORM auto-migration
func (db *DB) AutoMigrate() error {
	return db.conn.AutoMigrate(&BuyAlert{})
}

// InsertBuyAlert records a buy alert. A second record for the same
// tx hash is ignored.
func (db *DB) InsertBuyAlert(ctx context.Context, alert *BuyAlert) error {
	err := db.conn.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(alert).Error
	metrics.RecordDatabaseQuery("insert_buy_alert", err)
	return err
}

// RecentTxHashes returns the tx hashes of the newest limit alerts for
// token, oldest first
func (db *DB) RecentTxHashes(ctx context.Context, token string, limit int) ([]string, error) {
	var hashes []string
	err := recentTxHashes(db.conn.WithContext(ctx), token, limit).
		Pluck("tx_hash", &hashes).Error
	metrics.RecordDatabaseQuery("recent_tx_hashes", err)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(hashes)-1; i < j; i, j = i+1, j-1 {
		hashes[i], hashes[j] = hashes[j], hashes[i]
	}
	return hashes, nil
}

func recentTxHashes(tx *gorm.DB, token string, limit int) *gorm.DB {
	return tx.Model(&BuyAlert{}).
		Where("token_address = ?", token).
		Order("id DESC").
		Limit(limit)
}

// gormLogAdapter adapts logrus to GORM's logger interface
type gormLogAdapter struct {
	log *logrus.Logger
}

func (l *gormLogAdapter) Printf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
