package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/chatinsight/insight-bot/internal/core/domain"
)

// Message is an alias for the domain type.
type Message = domain.Message

// MessageData carries the fields of one inbound message to persist.
type MessageData struct {
	UserID      int64
	TGMessageID int64
	ChatID      int64
	Text        string
	CreatedAt   time.Time
}

// MessageFilter narrows message queries. Zero values impose no
// constraint; set fields are combined with AND.
type MessageFilter struct {
	ChatID int64
	Since  time.Time
	Until  time.Time
	Limit  int
}

const saveMessageQuery = `
INSERT INTO messages (user_id, tg_message_id, chat_id, text, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (tg_message_id, chat_id) DO NOTHING
RETURNING id, user_id, tg_message_id, chat_id, text, created_at`

// SaveMessage inserts a message. Re-delivery of the same
// (tg_message_id, chat_id) pair returns (nil, nil): the duplicate is a
// no-op, never an error.
func (db *DB) SaveMessage(ctx context.Context, data MessageData) (*Message, error) {
	createdAt := data.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row := db.Pool.QueryRow(ctx, saveMessageQuery,
		data.UserID, data.TGMessageID, data.ChatID, toText(data.Text), toTimestamptz(createdAt))

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("save message: %w", err)
	}

	return msg, nil
}

// MessagesByUser returns a user's messages newest first, narrowed by
// the filter.
func (db *DB) MessagesByUser(ctx context.Context, userID int64, filter MessageFilter) ([]Message, error) {
	where, args := buildMessageWhere([]string{"user_id = $1"}, []interface{}{userID}, filter)

	query := `SELECT id, user_id, tg_message_id, chat_id, text, created_at FROM messages ` +
		where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(filter.Limit)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("messages by user: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// CountMessagesByUser counts a user's messages within the filter.
func (db *DB) CountMessagesByUser(ctx context.Context, userID int64, filter MessageFilter) (int64, error) {
	where, args := buildMessageWhere([]string{"user_id = $1"}, []interface{}{userID}, filter)

	var count int64
	if err := db.Pool.QueryRow(ctx, "SELECT count(*) FROM messages "+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count messages by user: %w", err)
	}

	return count, nil
}

// TopUsers ranks users by message count within the filter. Ties fall
// back to database order.
func (db *DB) TopUsers(ctx context.Context, limit int, filter MessageFilter) ([]domain.TopUser, error) {
	where, args := buildPrefixedMessageWhere("m.", nil, nil, filter)

	query := `
SELECT u.id, u.tg_user_id, u.username, u.first_name, count(m.id) AS cnt
FROM messages m
JOIN users u ON u.id = m.user_id
` + where + `
GROUP BY u.id, u.tg_user_id, u.username, u.first_name
ORDER BY cnt DESC
LIMIT ` + strconv.Itoa(limit)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	defer rows.Close()

	var result []domain.TopUser

	for rows.Next() {
		var (
			top                 domain.TopUser
			username, firstName pgtype.Text
		)

		if err := rows.Scan(&top.UserID, &top.TGUserID, &username, &firstName, &top.Count); err != nil {
			return nil, fmt.Errorf("scan top user: %w", err)
		}

		top.Username = fromText(username)
		top.FirstName = fromText(firstName)
		result = append(result, top)
	}

	return result, rows.Err()
}

// AggregateStats holds distinct totals over the filtered message set.
type AggregateStats struct {
	TotalMessages int64
	TotalUsers    int64
}

// Aggregate returns total message and distinct user counts within the
// filter.
func (db *DB) Aggregate(ctx context.Context, filter MessageFilter) (AggregateStats, error) {
	where, args := buildMessageWhere(nil, nil, filter)

	var stats AggregateStats

	query := "SELECT count(*), count(DISTINCT user_id) FROM messages " + where
	if err := db.Pool.QueryRow(ctx, query, args...).Scan(&stats.TotalMessages, &stats.TotalUsers); err != nil {
		return AggregateStats{}, fmt.Errorf("aggregate stats: %w", err)
	}

	return stats, nil
}

// MessagesByChat returns a chat's messages inside [from, to) oldest
// first, capped at limit.
func (db *DB) MessagesByChat(ctx context.Context, chatID int64, from, to time.Time, limit int) ([]Message, error) {
	query := `
SELECT id, user_id, tg_message_id, chat_id, text, created_at
FROM messages
WHERE chat_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at ASC
LIMIT $4`

	rows, err := db.Pool.Query(ctx, query, chatID, toTimestamptz(from), toTimestamptz(to), limit)
	if err != nil {
		return nil, fmt.Errorf("messages by chat: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// UserActivities returns the dashboard user table: per-user lifetime
// counts with first and last message timestamps.
func (db *DB) UserActivities(ctx context.Context) ([]domain.UserActivity, error) {
	query := `
SELECT u.id, u.tg_user_id, u.username, u.first_name,
       count(m.id), min(m.created_at), max(m.created_at)
FROM users u
LEFT JOIN messages m ON m.user_id = u.id
GROUP BY u.id, u.tg_user_id, u.username, u.first_name
ORDER BY count(m.id) DESC`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("user activities: %w", err)
	}
	defer rows.Close()

	var result []domain.UserActivity

	for rows.Next() {
		var (
			act                 domain.UserActivity
			username, firstName pgtype.Text
			first, last         pgtype.Timestamptz
		)

		if err := rows.Scan(&act.UserID, &act.TGUserID, &username, &firstName, &act.MessageCount, &first, &last); err != nil {
			return nil, fmt.Errorf("scan user activity: %w", err)
		}

		act.Username = fromText(username)
		act.FirstName = fromText(firstName)
		act.FirstMessage = fromTimestamptzPtr(first)
		act.LastMessage = fromTimestamptzPtr(last)
		result = append(result, act)
	}

	return result, rows.Err()
}

// DailyMessageCounts returns the message-count series for the last N
// calendar days, oldest first. Days without messages are omitted.
func (db *DB) DailyMessageCounts(ctx context.Context, days int) ([]domain.DailyCount, error) {
	query := `
SELECT to_char(date_trunc('day', created_at), 'YYYY-MM-DD') AS day, count(*)
FROM messages
WHERE created_at >= now() - make_interval(days => $1)
GROUP BY 1
ORDER BY 1 ASC`

	rows, err := db.Pool.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("daily message counts: %w", err)
	}
	defer rows.Close()

	var result []domain.DailyCount

	for rows.Next() {
		var dc domain.DailyCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}

		result = append(result, dc)
	}

	return result, rows.Err()
}

// buildMessageWhere extends base conditions with the filter's set
// fields, continuing positional placeholders from len(args).
func buildMessageWhere(conds []string, args []interface{}, filter MessageFilter) (string, []interface{}) {
	return buildPrefixedMessageWhere("", conds, args, filter)
}

func buildPrefixedMessageWhere(prefix string, conds []string, args []interface{}, filter MessageFilter) (string, []interface{}) {
	if filter.ChatID != 0 {
		args = append(args, filter.ChatID)
		conds = append(conds, prefix+"chat_id = $"+strconv.Itoa(len(args)))
	}

	if !filter.Since.IsZero() {
		args = append(args, toTimestamptz(filter.Since))
		conds = append(conds, prefix+"created_at >= $"+strconv.Itoa(len(args)))
	}

	if !filter.Until.IsZero() {
		args = append(args, toTimestamptz(filter.Until))
		conds = append(conds, prefix+"created_at < $"+strconv.Itoa(len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanMessage(row pgx.Row) (*Message, error) {
	var (
		msg       Message
		text      pgtype.Text
		createdAt pgtype.Timestamptz
	)

	if err := row.Scan(&msg.ID, &msg.UserID, &msg.TGMessageID, &msg.ChatID, &text, &createdAt); err != nil {
		return nil, err
	}

	msg.Text = fromText(text)
	msg.CreatedAt = fromTimestamptz(createdAt)

	return &msg, nil
}

func collectMessages(rows pgx.Rows) ([]Message, error) {
	var result []Message

	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}

		result = append(result, *msg)
	}

	return result, rows.Err()
}
