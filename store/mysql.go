package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"friendbox/errs"
	"friendbox/models"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

const mysqlDuplicateEntry = 1062

// MySQL stores a user record as its users row plus the child rows owned by
// it. Every mutation runs in one transaction that first locks the owner's
// users row, which is the record boundary.
type MySQL struct {
	db *sql.DB
}

func NewMySQL(db *sql.DB) *MySQL {
	return &MySQL{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *MySQL) withRecord(ctx context.Context, userID string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id = ? FOR UPDATE", userID).Scan(&id)
	if err == sql.ErrNoRows {
		return errs.TargetNotFound(userID)
	}
	if err != nil {
		return errors.Wrap(err, "lock user record")
	}

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func (s *MySQL) CreateUser(ctx context.Context, u *models.User) error {
	u.Username = NormalizeHandle(u.Username)
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, full_name, avatar, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.Username, u.FullName, u.Avatar, u.PasswordHash, u.CreatedAt, u.CreatedAt,
	)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return ErrUsernameTaken
	}
	return errors.Wrap(err, "insert user")
}

func (s *MySQL) FetchUser(ctx context.Context, userID string) (*models.User, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	return loadUser(ctx, tx, userID)
}

func (s *MySQL) FetchUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM users WHERE username = ?", NormalizeHandle(handle)).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, errs.TargetNotFound(handle)
	}
	if err != nil {
		return nil, errors.Wrap(err, "lookup username")
	}
	return s.FetchUser(ctx, id)
}

func (s *MySQL) Summaries(ctx context.Context, userIDs []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(userIDs)-1) + "?"
	args := make([]interface{}, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, COALESCE(full_name, ''), COALESCE(avatar, '')
		FROM users
		WHERE id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query summaries")
	}
	defer rows.Close()

	for rows.Next() {
		var sum models.UserSummary
		if err := rows.Scan(&sum.ID, &sum.Username, &sum.FullName, &sum.Avatar); err != nil {
			return nil, errors.Wrap(err, "scan summary")
		}
		out[sum.ID] = sum
	}
	return out, errors.Wrap(rows.Err(), "iterate summaries")
}

func (s *MySQL) AddSentRequest(ctx context.Context, userID, targetID string) (*models.User, error) {
	var updated *models.User
	err := s.withRecord(ctx, userID, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO sent_requests (owner_id, target_id, created_at) VALUES (?, ?, ?)",
			userID, targetID, time.Now().UTC(),
		); err != nil {
			return errors.Wrap(err, "insert sent request")
		}
		var err error
		updated, err = loadUser(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *MySQL) AddReceivedRequest(ctx context.Context, userID, requesterID string) error {
	return s.withRecord(ctx, userID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO received_requests (owner_id, requester_id, created_at) VALUES (?, ?, ?)",
			userID, requesterID, time.Now().UTC(),
		)
		return errors.Wrap(err, "insert received request")
	})
}

func (s *MySQL) RemoveSentRequest(ctx context.Context, userID, targetID string) error {
	return s.withRecord(ctx, userID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM sent_requests WHERE owner_id = ? AND target_id = ?", userID, targetID)
		return errors.Wrap(err, "delete sent request")
	})
}

func (s *MySQL) RemoveReceivedRequest(ctx context.Context, userID, requesterID string) error {
	return s.withRecord(ctx, userID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM received_requests WHERE owner_id = ? AND requester_id = ?", userID, requesterID)
		return errors.Wrap(err, "delete received request")
	})
}

func (s *MySQL) AddFriendEdge(ctx context.Context, userID string, edge models.FriendEdge, clear models.PendingSide) (*models.User, error) {
	if edge.FriendID == userID {
		return nil, errs.InvalidTransition("a user cannot befriend themselves")
	}

	var updated *models.User
	err := s.withRecord(ctx, userID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO friend_edges (owner_id, edge_id, friend_id, created_at) VALUES (?, ?, ?, ?)",
			userID, edge.ID, edge.FriendID, edge.CreatedAt,
		)
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return errs.InvalidTransition("edge already exists")
		}
		if err != nil {
			return errors.Wrap(err, "insert friend edge")
		}

		switch clear {
		case models.PendingSent:
			_, err = tx.ExecContext(ctx, "DELETE FROM sent_requests WHERE owner_id = ? AND target_id = ?", userID, edge.FriendID)
		case models.PendingReceived:
			_, err = tx.ExecContext(ctx, "DELETE FROM received_requests WHERE owner_id = ? AND requester_id = ?", userID, edge.FriendID)
		}
		if err != nil {
			return errors.Wrap(err, "clear pending request")
		}

		updated, err = loadUser(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *MySQL) AppendMessageToEdge(ctx context.Context, userID, counterpartID string, msg models.Message) error {
	return s.withRecord(ctx, userID, func(tx *sql.Tx) error {
		var edgeID string
		err := tx.QueryRowContext(ctx,
			"SELECT edge_id FROM friend_edges WHERE owner_id = ? AND friend_id = ?",
			userID, counterpartID,
		).Scan(&edgeID)
		if err == sql.ErrNoRows {
			return errs.EdgeNotFound(userID, counterpartID)
		}
		if err != nil {
			return errors.Wrap(err, "lookup edge")
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO edge_messages (owner_id, edge_id, message_id, sender_id, recipient_id, body, sent_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, userID, edgeID, msg.ID, msg.From, msg.To, msg.Body, msg.Timestamp)
		return errors.Wrap(err, "insert message")
	})
}

func loadUser(ctx context.Context, q queryer, userID string) (*models.User, error) {
	u := &models.User{}
	err := q.QueryRowContext(ctx,
		"SELECT id, username, COALESCE(full_name, ''), COALESCE(avatar, ''), password, created_at FROM users WHERE id = ?",
		userID,
	).Scan(&u.ID, &u.Username, &u.FullName, &u.Avatar, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.TargetNotFound(userID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}

	if u.SentRequests, err = loadIDs(ctx, q,
		"SELECT target_id FROM sent_requests WHERE owner_id = ? ORDER BY seq", userID); err != nil {
		return nil, err
	}
	if u.ReceivedRequests, err = loadIDs(ctx, q,
		"SELECT requester_id FROM received_requests WHERE owner_id = ? ORDER BY seq", userID); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		"SELECT edge_id, friend_id, created_at FROM friend_edges WHERE owner_id = ? ORDER BY seq", userID)
	if err != nil {
		return nil, errors.Wrap(err, "load edges")
	}
	index := make(map[string]int)
	for rows.Next() {
		var edge models.FriendEdge
		if err := rows.Scan(&edge.ID, &edge.FriendID, &edge.CreatedAt); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan edge")
		}
		index[edge.ID] = len(u.Friends)
		u.Friends = append(u.Friends, edge)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate edges")
	}
	if len(u.Friends) == 0 {
		return u, nil
	}

	rows, err = q.QueryContext(ctx, `
		SELECT edge_id, message_id, sender_id, recipient_id, body, sent_at
		FROM edge_messages
		WHERE owner_id = ?
		ORDER BY seq
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load messages")
	}
	defer rows.Close()
	for rows.Next() {
		var edgeID string
		var msg models.Message
		if err := rows.Scan(&edgeID, &msg.ID, &msg.From, &msg.To, &msg.Body, &msg.Timestamp); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		if i, ok := index[edgeID]; ok {
			msg.Timestamp = msg.Timestamp.UTC()
			u.Friends[i].Messages = append(u.Friends[i].Messages, msg)
		}
	}
	return u, errors.Wrap(rows.Err(), "iterate messages")
}

func loadIDs(ctx context.Context, q queryer, query, userID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan id")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "iterate ids")
}
