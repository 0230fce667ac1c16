package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mailstudy/mailstudy/internal/grading"
	"github.com/mailstudy/mailstudy/internal/session"
)

// Record is one persisted submission, as exported to researchers.
type Record struct {
	session.Submission
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// SQLStore persists submissions and expected solutions. Submissions
// are append-only; solutions are replaced per email as a block, with a
// "default" block merged under every email on read.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// SaveSubmission appends one answer set. A test-mode submission for a
// (participant, email) pair that already has one is rejected with
// session.ErrAlreadyAnswered; the check and the insert share a
// transaction so two racing tabs cannot both get through.
func (s *SQLStore) SaveSubmission(ctx context.Context, sub session.Submission) error {
	buf, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if sub.Mode == session.ModeTest {
		var exist int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM submissions WHERE mode='test' AND participant_id=$1 AND email_id=$2`,
			sub.ParticipantID, sub.EmailID).Scan(&exist)
		if err == nil {
			return session.ErrAlreadyAnswered
		}
		if err != sql.ErrNoRows {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO submissions (id,email_id,participant_id,mode,answers_json,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		uuid.NewString(), sub.EmailID, sub.ParticipantID, string(sub.Mode), string(buf), time.Now().Unix())
	if err != nil {
		return err
	}
	return tx.Commit()
}

// AnsweredIDs lists the emails a participant has submitted for, in any
// mode; an empty participant matches every submission.
func (s *SQLStore) AnsweredIDs(ctx context.Context, participantID string) ([]string, error) {
	q := `SELECT DISTINCT email_id FROM submissions ORDER BY email_id`
	args := []any{}
	if participantID != "" {
		q = `SELECT DISTINCT email_id FROM submissions WHERE participant_id=$1 ORDER BY email_id`
		args = append(args, participantID)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Solutions returns the normalized expected solutions for an email:
// the "default" block overlaid by the email's own entries.
func (s *SQLStore) Solutions(ctx context.Context, emailID string) (map[string]grading.Solution, error) {
	out := map[string]grading.Solution{}
	for _, key := range []string{"default", emailID} {
		if key == "" || (key == emailID && emailID == "default") {
			continue
		}
		rows, err := s.db.QueryContext(ctx,
			`SELECT question_id, entry_json FROM solutions WHERE email_id=$1`, key)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var qid, entry string
			if err := rows.Scan(&qid, &entry); err != nil {
				rows.Close()
				return nil, err
			}
			out[qid] = grading.Parse(json.RawMessage(entry))
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReplaceSolutions swaps an email's solution block for the given one.
func (s *SQLStore) ReplaceSolutions(ctx context.Context, emailID string, sols map[string]grading.Solution) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM solutions WHERE email_id=$1`, emailID); err != nil {
		return err
	}
	now := time.Now().Unix()
	for qid, sol := range sols {
		buf, err := json.Marshal(sol)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO solutions (email_id,question_id,entry_json,updated_at) VALUES ($1,$2,$3,$4)`,
			emailID, qid, string(buf), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Participants lists every participant id that has submitted.
func (s *SQLStore) Participants(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT participant_id FROM submissions WHERE participant_id <> '' ORDER BY participant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pids []string
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return nil, err
		}
		pids = append(pids, pid)
	}
	return pids, rows.Err()
}

// Records returns stored submissions, optionally filtered by
// participant, oldest first. Used by the researcher export.
func (s *SQLStore) Records(ctx context.Context, participantID string) ([]Record, error) {
	q := `SELECT id,email_id,participant_id,mode,answers_json,created_at FROM submissions ORDER BY created_at, id`
	args := []any{}
	if participantID != "" {
		q = `SELECT id,email_id,participant_id,mode,answers_json,created_at FROM submissions
		     WHERE participant_id=$1 ORDER BY created_at, id`
		args = append(args, participantID)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var mode, answers string
		var created int64
		if err := rows.Scan(&r.ID, &r.EmailID, &r.ParticipantID, &mode, &answers, &created); err != nil {
			return nil, err
		}
		r.Mode = session.Mode(mode)
		r.Timestamp = time.Unix(created, 0).UTC()
		if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			continue // a corrupt row never blocks the export
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
