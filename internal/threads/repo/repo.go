package threadsrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/MedAli03/atpsm-messaging/internal/threads"
	userdomain "github.com/MedAli03/atpsm-messaging/internal/users/domain"
	usersrepo "github.com/MedAli03/atpsm-messaging/internal/users/repo"
)

type Repo struct {
	db        *sqlx.DB
	usersRepo userdomain.Repo
}

func New(db *sqlx.DB, usersRepo userdomain.Repo) *Repo {
	return &Repo{db: db, usersRepo: usersRepo}
}

type lastMessageRow struct {
	ID           sql.NullInt64  `db:"id"`
	SenderUserID sql.NullInt64  `db:"sender_user_id"`
	Text         sql.NullString `db:"text"`
	CreatedAt    sql.NullTime   `db:"created_at"`
}

func (r lastMessageRow) preview() *threads.MessagePreview {
	if !r.ID.Valid {
		return nil
	}
	return &threads.MessagePreview{
		ID:           r.ID.Int64,
		SenderUserID: r.SenderUserID.Int64,
		Text:         r.Text.String,
		CreatedAt:    r.CreatedAt.Time,
	}
}

type threadsRow struct {
	ThreadID                   int64           `db:"thread_id"`
	Title                      sql.NullString  `db:"title"`
	Archived                   bool            `db:"archived"`
	User                       userdomain.User `db:"user"`
	LastMessage                lastMessageRow  `db:"last_message"`
	UnreadCount                int64           `db:"unread_count"`
	OthersMaxLastReadMessageID int64           `db:"others_max_last_read_message_id"`
}

// CreateThread inserts the thread, its participants and the optional first
// message in one transaction, so the thread is never observable without
// both. The creator is always a participant.
func (r *Repo) CreateThread(ctx context.Context, creatorID int64, req threads.CreateThreadRequest) (*threads.ThreadInfo, error) {
	const op = "threads.repo.CreateThread"

	userIDs := uniquePositiveInts(append([]int64{creatorID}, req.UserIDs...))
	if len(userIDs) == 0 {
		return nil, threads.ErrEmptyParticipants
	}

	users, err := r.usersRepo.GetUsers(ctx, userIDs)
	if err != nil {
		if errors.Is(err, usersrepo.ErrUserNotFound) {
			return nil, threads.ErrUnknownUser
		}
		return nil, fmt.Errorf("%s: resolve users: %w", op, err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback()

	var t threads.Thread
	err = tx.QueryRowxContext(ctx, tx.Rebind(`
		INSERT INTO threads (title, child_id)
		VALUES (?, ?)
		RETURNING id, title, child_id, archived, created_at, last_activity_at
	`), req.Title, req.ChildID).StructScan(&t)
	if err != nil {
		return nil, fmt.Errorf("%s: insert thread: %w", op, err)
	}

	if err := addParticipants(ctx, tx, t.ID, userIDs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.InitialMessage != nil && strings.TrimSpace(*req.InitialMessage) != "" {
		var createdAt sql.NullTime
		err = tx.QueryRowxContext(ctx, tx.Rebind(`
			INSERT INTO messages (thread_id, sender_user_id, text)
			VALUES (?, ?, ?)
			RETURNING created_at
		`), t.ID, creatorID, *req.InitialMessage).Scan(&createdAt)
		if err != nil {
			return nil, fmt.Errorf("%s: insert initial message: %w", op, err)
		}
		if createdAt.Valid {
			t.LastActivityAt = createdAt.Time
			_, err = tx.ExecContext(ctx, tx.Rebind(`
				UPDATE threads SET last_activity_at = ? WHERE id = ?
			`), createdAt.Time, t.ID)
			if err != nil {
				return nil, fmt.Errorf("%s: bump last activity: %w", op, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit tx: %w", op, err)
	}

	info := &threads.ThreadInfo{Thread: t}
	for _, u := range users {
		info.Participants = append(info.Participants, threads.Participant{
			User:     u,
			JoinedAt: t.CreatedAt,
		})
	}

	return info, nil
}

func (r *Repo) GetThread(ctx context.Context, threadID int64) (*threads.ThreadInfo, error) {
	const op = "threads.repo.GetThread"

	var t threads.Thread
	err := r.db.GetContext(ctx, &t, r.db.Rebind(`
		SELECT id, title, child_id, archived, created_at, last_activity_at
		FROM threads WHERE id = ?
	`), threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, threads.ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: select thread: %w", op, err)
	}

	type participantRow struct {
		JoinedAt          sql.NullTime    `db:"joined_at"`
		LeftAt            sql.NullTime    `db:"left_at"`
		LastReadMessageID int64           `db:"last_read_message_id"`
		User              userdomain.User `db:"user"`
	}

	var rows []participantRow
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT
			tp.joined_at             AS "joined_at",
			tp.left_at               AS "left_at",
			tp.last_read_message_id  AS "last_read_message_id",
			u.id                     AS "user.id",
			u.name                   AS "user.name",
			u.role                   AS "user.role"
		FROM thread_participants tp
		JOIN users u ON u.id = tp.user_id
		WHERE tp.thread_id = ?
		ORDER BY tp.joined_at ASC, u.id ASC
	`), threadID)
	if err != nil {
		return nil, fmt.Errorf("%s: select participants: %w", op, err)
	}

	info := &threads.ThreadInfo{Thread: t}
	for _, row := range rows {
		p := threads.Participant{
			User:              row.User,
			JoinedAt:          row.JoinedAt.Time,
			LastReadMessageID: row.LastReadMessageID,
		}
		if row.LeftAt.Valid {
			left := row.LeftAt.Time
			p.LeftAt = &left
		}
		info.Participants = append(info.Participants, p)
	}

	return info, nil
}

// GetThreads builds the viewer's summaries: active membership, participant
// list, last-message preview, unread count, others' max read marker.
// Archived threads are hidden unless asked for.
func (r *Repo) GetThreads(ctx context.Context, userID int64, includeArchived bool) ([]threads.ThreadListItem, error) {
	const op = "threads.repo.GetThreads"

	q := `
		WITH
			my_participation AS (
				SELECT thread_id, user_id, last_read_message_id
				FROM thread_participants
				WHERE user_id = ? AND left_at IS NULL
			),

			last_message AS (
				SELECT thread_id, id, sender_user_id, text, created_at
				FROM (
					SELECT
						m.thread_id, m.id, m.sender_user_id, m.text, m.created_at,
						ROW_NUMBER() OVER (
							PARTITION BY m.thread_id
							ORDER BY m.created_at DESC, m.id DESC
						) AS rn
					FROM messages m
				) ranked
				WHERE rn = 1
			),

			unread_counts AS (
				SELECT mp.thread_id, COUNT(*) AS unread_count
				FROM messages m
				JOIN my_participation mp ON mp.thread_id = m.thread_id
				WHERE m.id > mp.last_read_message_id
					AND m.sender_user_id <> mp.user_id
				GROUP BY mp.thread_id
			),

			others_max_read AS (
				SELECT
					tp.thread_id,
					COALESCE(MAX(tp.last_read_message_id), 0) AS others_max_last_read_message_id
				FROM thread_participants tp
				JOIN my_participation mp ON mp.thread_id = tp.thread_id
				WHERE tp.user_id <> mp.user_id AND tp.left_at IS NULL
				GROUP BY tp.thread_id
			)

		SELECT
			tp.thread_id                                    AS "thread_id",
			t.title                                         AS "title",
			t.archived                                      AS "archived",
			tp.user_id                                      AS "user.id",
			u.name                                          AS "user.name",
			u.role                                          AS "user.role",

			lm.id                                           AS "last_message.id",
			lm.sender_user_id                               AS "last_message.sender_user_id",
			COALESCE(lm.text, '')                           AS "last_message.text",
			lm.created_at                                   AS "last_message.created_at",

			COALESCE(uc.unread_count, 0)                    AS "unread_count",
			COALESCE(om.others_max_last_read_message_id, 0) AS "others_max_last_read_message_id"

		FROM thread_participants tp
		JOIN users u ON u.id = tp.user_id
		JOIN threads t ON t.id = tp.thread_id
		JOIN my_participation mp ON mp.thread_id = tp.thread_id
		LEFT JOIN last_message lm ON lm.thread_id = tp.thread_id
		LEFT JOIN unread_counts uc ON uc.thread_id = tp.thread_id
		LEFT JOIN others_max_read om ON om.thread_id = tp.thread_id
		WHERE tp.left_at IS NULL`

	if !includeArchived {
		q += `
			AND NOT t.archived`
	}

	q += `
		ORDER BY
			CASE WHEN lm.created_at IS NULL THEN 1 ELSE 0 END,
			lm.created_at DESC,
			lm.id DESC,
			tp.thread_id,
			tp.user_id`

	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(q), userID)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	var (
		items   []threads.ThreadListItem
		current *threads.ThreadListItem
	)

	flush := func() {
		if current != nil {
			current.Users = slices.Clone(current.Users)
			items = append(items, *current)
		}
	}

	for rows.Next() {
		var row threadsRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}

		if current == nil || current.ID != row.ThreadID {
			flush()
			var title *string
			if row.Title.Valid {
				s := row.Title.String
				title = &s
			}
			current = &threads.ThreadListItem{
				ID:                         row.ThreadID,
				Title:                      title,
				Archived:                   row.Archived,
				LastMessage:                row.LastMessage.preview(),
				UnreadCount:                row.UnreadCount,
				OthersMaxLastReadMessageID: row.OthersMaxLastReadMessageID,
			}
		}

		current.Users = append(current.Users, row.User)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	flush()

	if items == nil {
		items = []threads.ThreadListItem{}
	}

	return items, nil
}

// SetArchived toggles the listing flag; messages stay visible either way.
func (r *Repo) SetArchived(ctx context.Context, threadID int64, archived bool) error {
	const op = "threads.repo.SetArchived"

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE threads SET archived = ? WHERE id = ?
	`), archived, threadID)
	if err != nil {
		return fmt.Errorf("%s: update: %w", op, err)
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		return threads.ErrThreadNotFound
	}

	return nil
}

func (r *Repo) AddParticipants(ctx context.Context, threadID int64, userIDs []int64) ([]userdomain.User, error) {
	const op = "threads.repo.AddParticipants"

	userIDs = uniquePositiveInts(userIDs)
	if len(userIDs) == 0 {
		return nil, threads.ErrEmptyParticipants
	}

	users, err := r.usersRepo.GetUsers(ctx, userIDs)
	if err != nil {
		if errors.Is(err, usersrepo.ErrUserNotFound) {
			return nil, threads.ErrUnknownUser
		}
		return nil, fmt.Errorf("%s: resolve users: %w", op, err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback()

	var one int
	err = tx.GetContext(ctx, &one, tx.Rebind(`SELECT 1 FROM threads WHERE id = ?`), threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, threads.ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: thread check: %w", op, err)
	}

	if err := addParticipants(ctx, tx, threadID, userIDs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit tx: %w", op, err)
	}

	return users, nil
}

// RemoveParticipant marks the membership departed, keeping history. A thread
// always keeps at least one active participant.
func (r *Repo) RemoveParticipant(ctx context.Context, threadID, userID int64) error {
	const op = "threads.repo.RemoveParticipant"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback()

	var one int
	err = tx.GetContext(ctx, &one, tx.Rebind(`SELECT 1 FROM threads WHERE id = ?`), threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return threads.ErrThreadNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: thread check: %w", op, err)
	}

	err = tx.GetContext(ctx, &one, tx.Rebind(`
		SELECT 1 FROM thread_participants
		WHERE thread_id = ? AND user_id = ? AND left_at IS NULL
	`), threadID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return threads.ErrParticipantNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: participant check: %w", op, err)
	}

	var active int64
	if err := tx.GetContext(ctx, &active, tx.Rebind(`
		SELECT COUNT(*) FROM thread_participants
		WHERE thread_id = ? AND left_at IS NULL
	`), threadID); err != nil {
		return fmt.Errorf("%s: count active: %w", op, err)
	}
	if active <= 1 {
		return threads.ErrLastParticipant
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE thread_participants
		SET left_at = CURRENT_TIMESTAMP
		WHERE thread_id = ? AND user_id = ? AND left_at IS NULL
	`), threadID, userID)
	if err != nil {
		return fmt.Errorf("%s: update: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit tx: %w", op, err)
	}

	return nil
}

// addParticipants upserts memberships; re-adding a departed user reactivates
// the existing row instead of duplicating it.
func addParticipants(ctx context.Context, tx *sqlx.Tx, threadID int64, userIDs []int64) error {
	const op = "threads.repo.addParticipants"

	query := tx.Rebind(`
		INSERT INTO thread_participants (thread_id, user_id)
		VALUES (?, ?)
		ON CONFLICT (thread_id, user_id) DO UPDATE SET left_at = NULL
	`)

	for _, userID := range userIDs {
		if _, err := tx.ExecContext(ctx, query, threadID, userID); err != nil {
			return fmt.Errorf("%s: insert user %d: %w", op, userID, err)
		}
	}

	return nil
}

func uniquePositiveInts(input []int64) []int64 {
	seen := make(map[int64]bool)
	result := []int64{}

	for _, v := range input {
		if v <= 0 {
			continue
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}
