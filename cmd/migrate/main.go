package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS audit_logs CASCADE`,
		`DROP TABLE IF EXISTS election_voters CASCADE`,
		`DROP TABLE IF EXISTS election_candidates CASCADE`,
		`DROP TABLE IF EXISTS elections CASCADE`,
		`DROP TABLE IF EXISTS students CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS students (
			id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			admission_number     TEXT NOT NULL UNIQUE,
			name                 TEXT NOT NULL,
			email                TEXT NOT NULL UNIQUE,
			password_digest      TEXT NOT NULL DEFAULT '',
			class_name           TEXT NOT NULL DEFAULT '',
			section              TEXT NOT NULL DEFAULT '',
			attendance_percent   DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_verified          BOOLEAN NOT NULL DEFAULT FALSE,
			is_candidate         BOOLEAN NOT NULL DEFAULT FALSE,
			is_approved          BOOLEAN NOT NULL DEFAULT FALSE,
			is_college_candidate BOOLEAN NOT NULL DEFAULT FALSE,
			has_won              BOOLEAN NOT NULL DEFAULT FALSE,
			won_tier             TEXT NOT NULL DEFAULT '',
			position             TEXT NOT NULL DEFAULT '',
			manifesto            TEXT NOT NULL DEFAULT '',
			bio                  TEXT NOT NULL DEFAULT '',
			manifesto_points     TEXT[] NOT NULL DEFAULT '{}',
			photo_ref            TEXT NOT NULL DEFAULT '',
			votes_received       INTEGER NOT NULL DEFAULT 0,
			otp_code             TEXT NOT NULL DEFAULT '',
			otp_expires_at       TIMESTAMPTZ,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS elections (
			id                      UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title                   TEXT NOT NULL,
			description             TEXT NOT NULL DEFAULT '',
			type                    TEXT NOT NULL CHECK (type IN ('class', 'college')),
			position                TEXT NOT NULL,
			class_name              TEXT,
			section                 TEXT,
			start_date              TIMESTAMPTZ NOT NULL,
			end_date                TIMESTAMPTZ NOT NULL,
			status                  TEXT NOT NULL DEFAULT 'Draft'
				CHECK (status IN ('Draft', 'Scheduled', 'Active', 'Tie', 'Completed', 'Cancelled')),
			winner_id               UUID REFERENCES students(id),
			total_votes             INTEGER NOT NULL DEFAULT 0,
			min_attendance_required DOUBLE PRECISION NOT NULL DEFAULT 75,
			created_by              TEXT,
			created_by_role         TEXT,
			version                 BIGINT NOT NULL DEFAULT 1,
			created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS election_candidates (
			election_id UUID NOT NULL REFERENCES elections(id) ON DELETE CASCADE,
			student_id  UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
			votes_count INTEGER NOT NULL DEFAULT 0,
			added_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (election_id, student_id)
		)`,

		// The primary key is the exactly-once guarantee for votes.
		`CREATE TABLE IF NOT EXISTS election_voters (
			election_id UUID NOT NULL REFERENCES elections(id) ON DELETE CASCADE,
			student_id  UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
			voted_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (election_id, student_id)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_logs (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			action     TEXT NOT NULL,
			module     TEXT NOT NULL,
			details    TEXT NOT NULL DEFAULT '',
			actor_id   TEXT NOT NULL DEFAULT '',
			actor_role TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_elections_status ON elections(status)`,
		`CREATE INDEX IF NOT EXISTS idx_elections_type ON elections(type)`,
		`CREATE INDEX IF NOT EXISTS idx_elections_position ON elections(position)`,
		`CREATE INDEX IF NOT EXISTS idx_election_candidates_student ON election_candidates(student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_students_pending
			ON students(is_candidate) WHERE is_candidate = TRUE AND is_approved = FALSE`,
		`CREATE INDEX IF NOT EXISTS idx_students_winners
			ON students(has_won) WHERE has_won = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	fmt.Println("  Created: students, elections, election_candidates, election_voters, audit_logs")

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	students := []struct {
		admission, name, email, class, section string
		attendance                             float64
	}{
		{"ADM-1001", "Asha Verma", "asha@example.edu", "10", "A", 92},
		{"ADM-1002", "Rahul Nair", "rahul@example.edu", "10", "A", 88},
		{"ADM-1003", "Priya Singh", "priya@example.edu", "10", "A", 79},
		{"ADM-1004", "Dev Patel", "dev@example.edu", "10", "B", 95},
		{"ADM-1005", "Meera Iyer", "meera@example.edu", "10", "B", 71},
		{"ADM-1006", "Arjun Rao", "arjun@example.edu", "11", "A", 85},
	}

	for _, s := range students {
		_, err := conn.Exec(ctx, `
			INSERT INTO students (admission_number, name, email, class_name, section, attendance_percent, is_verified)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE)
			ON CONFLICT (admission_number) DO NOTHING
		`, s.admission, s.name, s.email, s.class, s.section, s.attendance)
		if err != nil {
			return fmt.Errorf("failed to seed student %s: %w", s.admission, err)
		}
	}
	fmt.Printf("  Seeded %d students\n", len(students))

	_, err := conn.Exec(ctx, `
		INSERT INTO elections (title, description, type, position, class_name, section, start_date, end_date)
		SELECT 'Class Representative 10A', 'Demo election', 'class', 'Class Representative', '10', 'A', $1, $2
		WHERE NOT EXISTS (SELECT 1 FROM elections WHERE title = 'Class Representative 10A')
	`, time.Now(), time.Now().Add(7*24*time.Hour))
	if err != nil {
		return fmt.Errorf("failed to seed election: %w", err)
	}
	fmt.Println("  Seeded demo election")

	return nil
}
