package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voteon/internal/domain"
	"voteon/pkg/database"

	"github.com/jackc/pgx/v5"
)

// PgElectionRepository stores the Election aggregate across three tables:
// elections, election_candidates and election_voters. The voter ledger's
// primary key (election_id, student_id) is the storage-level exactly-once
// guarantee.
type PgElectionRepository struct {
	db *database.PostgresDB
}

func NewPgElectionRepository(db *database.PostgresDB) *PgElectionRepository {
	return &PgElectionRepository{db: db}
}

func (r *PgElectionRepository) Create(ctx context.Context, e *domain.Election) error {
	query := `
		INSERT INTO elections (
			title, description, type, position, class_name, section,
			start_date, end_date, status, min_attendance_required,
			created_by, created_by_role
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, version, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		e.Title,
		e.Description,
		string(e.Type),
		e.Position,
		nullable(e.ClassName),
		nullable(e.Section),
		e.StartDate,
		e.EndDate,
		string(e.Status),
		e.MinAttendanceRequired,
		nullable(e.CreatedBy),
		nullable(e.CreatedByRole),
	).Scan(&e.ID, &e.Version, &e.CreatedAt, &e.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create election: %w", err)
	}
	return nil
}

func (r *PgElectionRepository) GetByID(ctx context.Context, id string) (*domain.Election, error) {
	var e domain.Election
	var className, section, winnerID, createdBy, createdByRole *string
	var electionType, status string

	query := `
		SELECT id, title, description, type, position, class_name, section,
		       start_date, end_date, status, winner_id, total_votes,
		       min_attendance_required, created_by, created_by_role,
		       version, created_at, updated_at
		FROM elections
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.Description, &electionType, &e.Position,
		&className, &section, &e.StartDate, &e.EndDate, &status,
		&winnerID, &e.TotalVotes, &e.MinAttendanceRequired,
		&createdBy, &createdByRole, &e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrElectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get election: %w", err)
	}

	e.Type = domain.Tier(electionType)
	e.Status = domain.ElectionStatus(status)
	e.ClassName = deref(className)
	e.Section = deref(section)
	e.WinnerID = deref(winnerID)
	e.CreatedBy = deref(createdBy)
	e.CreatedByRole = deref(createdByRole)

	if err := r.loadRoster(ctx, &e); err != nil {
		return nil, err
	}
	if err := r.loadVoters(ctx, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PgElectionRepository) loadRoster(ctx context.Context, e *domain.Election) error {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT student_id, votes_count, added_at
		FROM election_candidates
		WHERE election_id = $1
		ORDER BY added_at ASC
	`, e.ID)
	if err != nil {
		return fmt.Errorf("failed to load candidates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.CandidateEntry
		if err := rows.Scan(&c.StudentID, &c.VotesCount, &c.AddedAt); err != nil {
			return fmt.Errorf("failed to scan candidate: %w", err)
		}
		e.Candidates = append(e.Candidates, c)
	}
	return rows.Err()
}

func (r *PgElectionRepository) loadVoters(ctx context.Context, e *domain.Election) error {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT student_id, voted_at
		FROM election_voters
		WHERE election_id = $1
		ORDER BY voted_at ASC
	`, e.ID)
	if err != nil {
		return fmt.Errorf("failed to load voters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.VoterEntry
		if err := rows.Scan(&v.StudentID, &v.VotedAt); err != nil {
			return fmt.Errorf("failed to scan voter: %w", err)
		}
		e.Voters = append(e.Voters, v)
	}
	return rows.Err()
}

func (r *PgElectionRepository) List(ctx context.Context, filter ElectionFilter) ([]*domain.Election, error) {
	query := `
		SELECT id, title, description, type, position, class_name, section,
		       start_date, end_date, status, winner_id, total_votes,
		       min_attendance_required, created_by, created_by_role,
		       version, created_at, updated_at
		FROM elections
	`
	var args []interface{}
	var conds []string

	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list elections: %w", err)
	}
	defer rows.Close()

	var elections []*domain.Election
	for rows.Next() {
		var e domain.Election
		var className, section, winnerID, createdBy, createdByRole *string
		var electionType, status string

		if err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &electionType, &e.Position,
			&className, &section, &e.StartDate, &e.EndDate, &status,
			&winnerID, &e.TotalVotes, &e.MinAttendanceRequired,
			&createdBy, &createdByRole, &e.Version, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}

		e.Type = domain.Tier(electionType)
		e.Status = domain.ElectionStatus(status)
		e.ClassName = deref(className)
		e.Section = deref(section)
		e.WinnerID = deref(winnerID)
		e.CreatedBy = deref(createdBy)
		e.CreatedByRole = deref(createdByRole)
		elections = append(elections, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read elections: %w", err)
	}

	for _, e := range elections {
		if err := r.loadRoster(ctx, e); err != nil {
			return nil, err
		}
		if err := r.loadVoters(ctx, e); err != nil {
			return nil, err
		}
	}
	return elections, nil
}

// Update writes the mutable election fields conditioned on the version the
// caller read, bumping it on success.
func (r *PgElectionRepository) Update(ctx context.Context, e *domain.Election) error {
	query := `
		UPDATE elections
		SET title = $1, description = $2, start_date = $3, end_date = $4,
		    status = $5, winner_id = $6, min_attendance_required = $7,
		    version = version + 1, updated_at = now()
		WHERE id = $8 AND version = $9
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		e.Title, e.Description, e.StartDate, e.EndDate,
		string(e.Status), nullable(e.WinnerID), e.MinAttendanceRequired,
		e.ID, e.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update election: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM elections WHERE id = $1)`, e.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check election existence: %w", err)
		}
		if !exists {
			return domain.ErrElectionNotFound
		}
		return domain.ErrVersionConflict
	}
	e.Version++
	return nil
}

func (r *PgElectionRepository) AddCandidate(ctx context.Context, electionID string, entry domain.CandidateEntry) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		// The status guard and version bump on the parent row serialize
		// roster changes against lifecycle transitions.
		tag, err := tx.Exec(ctx, `
			UPDATE elections
			SET version = version + 1, updated_at = now()
			WHERE id = $1 AND status IN ('Draft', 'Scheduled')
		`, electionID)
		if err != nil {
			return fmt.Errorf("failed to guard election status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM elections WHERE id = $1)`, electionID,
			).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check election existence: %w", err)
			}
			if !exists {
				return domain.ErrElectionNotFound
			}
			return domain.ErrInvalidStatus
		}

		tag, err = tx.Exec(ctx, `
			INSERT INTO election_candidates (election_id, student_id, votes_count, added_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`, electionID, entry.StudentID, entry.VotesCount, entry.AddedAt)
		if err != nil {
			return fmt.Errorf("failed to add candidate: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrDuplicateCandidate
		}
		return nil
	})
}

// CastVote applies the ledger append and both tally increments as one
// transaction. The conditional insert into election_voters carries the
// exactly-once guarantee: two concurrent votes from the same student race on
// the primary key and exactly one wins.
func (r *PgElectionRepository) CastVote(ctx context.Context, electionID, voterID, candidateID string, votedAt time.Time) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE elections
			SET total_votes = total_votes + 1, version = version + 1, updated_at = now()
			WHERE id = $1 AND status = 'Active'
		`, electionID)
		if err != nil {
			return fmt.Errorf("failed to increment total votes: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM elections WHERE id = $1)`, electionID,
			).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check election existence: %w", err)
			}
			if !exists {
				return domain.ErrElectionNotFound
			}
			return domain.ErrNotActive
		}

		tag, err = tx.Exec(ctx, `
			INSERT INTO election_voters (election_id, student_id, voted_at)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, electionID, voterID, votedAt)
		if err != nil {
			return fmt.Errorf("failed to append voter: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrAlreadyVoted
		}

		tag, err = tx.Exec(ctx, `
			UPDATE election_candidates
			SET votes_count = votes_count + 1
			WHERE election_id = $1 AND student_id = $2
		`, electionID, candidateID)
		if err != nil {
			return fmt.Errorf("failed to increment candidate tally: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUnknownCandidate
		}
		return nil
	})
}

func (r *PgElectionRepository) FindPositionConflict(ctx context.Context, studentID, position, excludeElectionID string) (*domain.Election, error) {
	var id string
	query := `
		SELECT e.id
		FROM elections e
		JOIN election_candidates c ON c.election_id = e.id
		WHERE c.student_id = $1
		  AND e.position = $2
		  AND e.id <> $3
		  AND e.status IN ('Draft', 'Scheduled', 'Active', 'Tie')
		LIMIT 1
	`

	err := r.db.Pool.QueryRow(ctx, query, studentID, position, excludeElectionID).Scan(&id)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check position conflict: %w", err)
	}

	conflict, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrElectionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return conflict, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
