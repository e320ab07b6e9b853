package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"onlevel/internal/model"
)

// Fixed-width timestamps keep lexical order equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type sqliteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (Repository, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &sqliteRepository{db: db}, nil
}

func (r *sqliteRepository) Close() error {
	return r.db.Close()
}

// CreateUser creates a new user record
func (r *sqliteRepository) CreateUser(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, formatTime(user.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (r *sqliteRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Name, &user.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateInterview creates a new interview record
func (r *sqliteRepository) CreateInterview(ctx context.Context, iv *model.Interview) error {
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = time.Now()
	}
	techstack, err := marshalList(iv.TechStack)
	if err != nil {
		return err
	}
	questions, err := marshalList(iv.Questions)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO interviews (
			id, user_id, role, level, type, techstack, questions,
			finalized, cover_image, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		iv.ID, iv.UserID, iv.Role, iv.Level, iv.Type, techstack, questions,
		boolToInt(iv.Finalized), iv.CoverImage, formatTime(iv.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create interview: %w", err)
	}
	return nil
}

const interviewColumns = `id, user_id, role, level, type, techstack, questions, finalized, cover_image, created_at`

// GetInterview retrieves an interview by ID
func (r *sqliteRepository) GetInterview(ctx context.Context, id string) (*model.Interview, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = ?`, id)
	iv, err := scanInterview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("interview %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	return iv, nil
}

// ListInterviewsByUser retrieves the interviews a user created
func (r *sqliteRepository) ListInterviewsByUser(ctx context.Context, userID string) ([]model.Interview, error) {
	return r.queryInterviews(ctx, `
		SELECT `+interviewColumns+`
		FROM interviews
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
}

// ListLatestInterviews retrieves finalized interviews created by other users
func (r *sqliteRepository) ListLatestInterviews(ctx context.Context, userID string, limit int) ([]model.Interview, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	return r.queryInterviews(ctx, `
		SELECT `+interviewColumns+`
		FROM interviews
		WHERE finalized = 1 AND user_id != ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
}

func (r *sqliteRepository) queryInterviews(ctx context.Context, query string, args ...any) ([]model.Interview, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interviews: %w", err)
	}
	defer rows.Close()

	interviews := []model.Interview{}
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		interviews = append(interviews, *iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return interviews, nil
}

// SaveFeedback inserts or replaces a feedback record. Replacing a record of
// another user fails with ErrNotFound.
func (r *sqliteRepository) SaveFeedback(ctx context.Context, fb *model.Feedback) error {
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now()
	}
	categories, err := json.Marshal(nonNilScores(fb.CategoryScores))
	if err != nil {
		return fmt.Errorf("failed to marshal category scores: %w", err)
	}
	strengths, err := marshalList(fb.Strengths)
	if err != nil {
		return err
	}
	areas, err := marshalList(fb.AreasForImprovement)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO feedback (
			id, interview_id, user_id, total_score, category_scores,
			strengths, areas_for_improvement, final_assessment, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			interview_id = excluded.interview_id,
			total_score = excluded.total_score,
			category_scores = excluded.category_scores,
			strengths = excluded.strengths,
			areas_for_improvement = excluded.areas_for_improvement,
			final_assessment = excluded.final_assessment,
			created_at = excluded.created_at
		WHERE feedback.user_id = excluded.user_id`,
		fb.ID, fb.InterviewID, fb.UserID, fb.TotalScore, string(categories),
		strengths, areas, fb.FinalAssessment, formatTime(fb.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	// An id owned by another user leaves the row untouched.
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("feedback %s: %w", fb.ID, ErrNotFound)
	}
	return nil
}

const feedbackColumns = `id, interview_id, user_id, total_score, category_scores, strengths, areas_for_improvement, final_assessment, created_at`

// GetFeedbackByInterview retrieves the user's latest feedback for an interview
func (r *sqliteRepository) GetFeedbackByInterview(ctx context.Context, interviewID, userID string) (*model.Feedback, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+feedbackColumns+`
		FROM feedback
		WHERE user_id = ? AND interview_id = ?
		ORDER BY created_at DESC
		LIMIT 1`, userID, interviewID)
	fb, err := scanFeedback(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("feedback for interview %s: %w", interviewID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return fb, nil
}

// ListFeedbackByUser retrieves all feedback of a user
func (r *sqliteRepository) ListFeedbackByUser(ctx context.Context, userID string) ([]model.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+feedbackColumns+`
		FROM feedback
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	feedback := []model.Feedback{}
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		feedback = append(feedback, *fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return feedback, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInterview(s scanner) (*model.Interview, error) {
	var iv model.Interview
	var techstack, questions, createdAt string
	var finalized int
	if err := s.Scan(
		&iv.ID, &iv.UserID, &iv.Role, &iv.Level, &iv.Type,
		&techstack, &questions, &finalized, &iv.CoverImage, &createdAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(techstack), &iv.TechStack); err != nil {
		return nil, fmt.Errorf("failed to unmarshal techstack: %w", err)
	}
	if err := json.Unmarshal([]byte(questions), &iv.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	iv.Finalized = finalized != 0
	var err error
	if iv.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &iv, nil
}

func scanFeedback(s scanner) (*model.Feedback, error) {
	var fb model.Feedback
	var categories, strengths, areas, createdAt string
	if err := s.Scan(
		&fb.ID, &fb.InterviewID, &fb.UserID, &fb.TotalScore, &categories,
		&strengths, &areas, &fb.FinalAssessment, &createdAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(categories), &fb.CategoryScores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal category scores: %w", err)
	}
	if err := json.Unmarshal([]byte(strengths), &fb.Strengths); err != nil {
		return nil, fmt.Errorf("failed to unmarshal strengths: %w", err)
	}
	if err := json.Unmarshal([]byte(areas), &fb.AreasForImprovement); err != nil {
		return nil, fmt.Errorf("failed to unmarshal areas for improvement: %w", err)
	}
	var err error
	if fb.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &fb, nil
}

func marshalList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to marshal list: %w", err)
	}
	return string(raw), nil
}

func nonNilScores(scores []model.CategoryScore) []model.CategoryScore {
	if scores == nil {
		return []model.CategoryScore{}
	}
	return scores
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
