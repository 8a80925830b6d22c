package repository

import (
	"context"
	"fmt"

	"voteon/internal/domain"
	"voteon/pkg/database"

	"github.com/jackc/pgx/v5"
)

const studentColumns = `
	id, admission_number, name, email, password_digest, class_name, section,
	attendance_percent, is_verified, is_candidate, is_approved,
	is_college_candidate, has_won, won_tier, position, manifesto, bio,
	manifesto_points, photo_ref, votes_received, otp_code, otp_expires_at,
	created_at, updated_at
`

type PgStudentRepository struct {
	db *database.PostgresDB
}

func NewPgStudentRepository(db *database.PostgresDB) *PgStudentRepository {
	return &PgStudentRepository{db: db}
}

func (r *PgStudentRepository) Create(ctx context.Context, s *domain.Student) error {
	query := `
		INSERT INTO students (
			admission_number, name, email, password_digest, class_name,
			section, attendance_percent, is_verified, otp_code, otp_expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		s.AdmissionNumber, s.Name, s.Email, s.PasswordDigest,
		s.ClassName, s.Section, s.AttendancePercent, s.IsVerified,
		s.OTPCode, s.OTPExpiresAt,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

func (r *PgStudentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	return r.getOne(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
}

func (r *PgStudentRepository) GetByAdmissionNumber(ctx context.Context, admissionNumber string) (*domain.Student, error) {
	return r.getOne(ctx, `SELECT `+studentColumns+` FROM students WHERE admission_number = $1`, admissionNumber)
}

func (r *PgStudentRepository) GetByEmail(ctx context.Context, email string) (*domain.Student, error) {
	return r.getOne(ctx, `SELECT `+studentColumns+` FROM students WHERE email = $1`, email)
}

func (r *PgStudentRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.Student, error) {
	row := r.db.Pool.QueryRow(ctx, query, arg)
	s, err := scanStudent(row)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return s, nil
}

func (r *PgStudentRepository) Update(ctx context.Context, s *domain.Student) error {
	query := `
		UPDATE students
		SET name = $1, email = $2, password_digest = $3, class_name = $4,
		    section = $5, attendance_percent = $6, is_verified = $7,
		    is_candidate = $8, is_approved = $9, is_college_candidate = $10,
		    has_won = $11, won_tier = $12, position = $13, manifesto = $14,
		    bio = $15, manifesto_points = $16, photo_ref = $17,
		    votes_received = $18, otp_code = $19, otp_expires_at = $20,
		    updated_at = now()
		WHERE id = $21
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		s.Name, s.Email, s.PasswordDigest, s.ClassName, s.Section,
		s.AttendancePercent, s.IsVerified, s.IsCandidate, s.IsApproved,
		s.IsCollegeCandidate, s.HasWon, string(s.WonTier), s.Position,
		s.Manifesto, s.Bio, s.ManifestoPoints, s.PhotoRef, s.VotesReceived,
		s.OTPCode, s.OTPExpiresAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStudentNotFound
	}
	return nil
}

func (r *PgStudentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStudentNotFound
	}
	return nil
}

func (r *PgStudentRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ANY($1)`, ids)
}

func (r *PgStudentRepository) ListPendingCandidates(ctx context.Context) ([]*domain.Student, error) {
	return r.list(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE is_candidate = true AND is_approved = false
		ORDER BY updated_at DESC
	`)
}

func (r *PgStudentRepository) ListClassWinners(ctx context.Context) ([]*domain.Student, error) {
	return r.list(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE has_won = true
		ORDER BY name ASC
	`)
}

// PromoteClassWinners is a single conditional update, so re-running it is a
// no-op once every winner carries the college-candidate flag.
func (r *PgStudentRepository) PromoteClassWinners(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE students
		SET is_college_candidate = true, updated_at = now()
		WHERE has_won = true AND is_college_candidate = false
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to promote class winners: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgStudentRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Student, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []*domain.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStudent(row rowScanner) (*domain.Student, error) {
	var s domain.Student
	var wonTier string

	err := row.Scan(
		&s.ID, &s.AdmissionNumber, &s.Name, &s.Email, &s.PasswordDigest,
		&s.ClassName, &s.Section, &s.AttendancePercent, &s.IsVerified,
		&s.IsCandidate, &s.IsApproved, &s.IsCollegeCandidate, &s.HasWon,
		&wonTier, &s.Position, &s.Manifesto, &s.Bio, &s.ManifestoPoints,
		&s.PhotoRef, &s.VotesReceived, &s.OTPCode, &s.OTPExpiresAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.WonTier = domain.Tier(wonTier)
	return &s, nil
}
