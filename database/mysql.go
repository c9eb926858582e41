package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ConnectMySQL opens and pings a MySQL pool. The DSN must set parseTime=True.
func ConnectMySQL(ctx context.Context, dsn string, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping mysql")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	log.Info("Database connected successfully", zap.String("driver", "mysql"))
	return db, nil
}

// CreateTables lays out one user record as a users row plus the rows of the
// four child tables keyed by owner_id.
func CreateTables(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id          VARCHAR(36) PRIMARY KEY,
			username    VARCHAR(50) NOT NULL,
			full_name   VARCHAR(100),
			avatar      VARCHAR(255),
			password    VARCHAR(255) NOT NULL,
			created_at  DATETIME(3) NOT NULL,
			updated_at  DATETIME(3) DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
			UNIQUE KEY uk_username (username)
		)`,
		`CREATE TABLE IF NOT EXISTS sent_requests (
			seq         BIGINT AUTO_INCREMENT PRIMARY KEY,
			owner_id    VARCHAR(36) NOT NULL,
			target_id   VARCHAR(36) NOT NULL,
			created_at  DATETIME(3) NOT NULL,
			UNIQUE KEY uk_owner_target (owner_id, target_id)
		)`,
		`CREATE TABLE IF NOT EXISTS received_requests (
			seq          BIGINT AUTO_INCREMENT PRIMARY KEY,
			owner_id     VARCHAR(36) NOT NULL,
			requester_id VARCHAR(36) NOT NULL,
			created_at   DATETIME(3) NOT NULL,
			UNIQUE KEY uk_owner_requester (owner_id, requester_id)
		)`,
		`CREATE TABLE IF NOT EXISTS friend_edges (
			seq         BIGINT AUTO_INCREMENT PRIMARY KEY,
			owner_id    VARCHAR(36) NOT NULL,
			edge_id     VARCHAR(36) NOT NULL,
			friend_id   VARCHAR(36) NOT NULL,
			created_at  DATETIME(3) NOT NULL,
			UNIQUE KEY uk_owner_friend (owner_id, friend_id),
			INDEX idx_edge (edge_id)
		)`,
		`CREATE TABLE IF NOT EXISTS edge_messages (
			seq          BIGINT AUTO_INCREMENT PRIMARY KEY,
			owner_id     VARCHAR(36) NOT NULL,
			edge_id      VARCHAR(36) NOT NULL,
			message_id   VARCHAR(36) NOT NULL,
			sender_id    VARCHAR(36) NOT NULL,
			recipient_id VARCHAR(36) NOT NULL,
			body         TEXT NOT NULL,
			sent_at      DATETIME(3) NOT NULL,
			INDEX idx_owner_edge (owner_id, edge_id, seq)
		)`,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return errors.Wrap(err, "create table")
		}
	}

	log.Info("Database tables created successfully")
	return nil
}
