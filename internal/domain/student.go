package domain

import "time"

// Tier identifies the election level a candidacy or election belongs to.
type Tier string

const (
	TierClass   Tier = "class"
	TierCollege Tier = "college"
)

// Roles resolved by the identity service.
const (
	RoleStudent          = "student"
	RoleTeacher          = "teacher"
	RoleAdmin            = "admin"
	RoleReturningOfficer = "returning_officer"
)

// Identity is the resolved caller of a core operation: who they are, what
// they may do, and which class scope they carry.
type Identity struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	ClassName string `json:"class_name,omitempty"`
	Section   string `json:"section,omitempty"`
}

// IsOfficial reports whether the identity may run election lifecycle
// operations (start, end, resolve ties).
func (i Identity) IsOfficial() bool {
	return i.Role == RoleAdmin || i.Role == RoleReturningOfficer
}

// Student is one entity in a dual role: registered voter and, potentially,
// candidate. Candidacy flags live here; per-election tallies live on the
// Election aggregate.
type Student struct {
	ID                string    `json:"id"`
	AdmissionNumber   string    `json:"admission_number"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	PasswordDigest    string    `json:"-"`
	ClassName         string    `json:"class_name"`
	Section           string    `json:"section"`
	AttendancePercent float64   `json:"attendance_percent"`
	IsVerified        bool      `json:"is_verified"`

	IsCandidate        bool `json:"is_candidate"`
	IsApproved         bool `json:"is_approved"`
	IsCollegeCandidate bool `json:"is_college_candidate"`
	HasWon             bool `json:"has_won"`
	WonTier            Tier `json:"won_tier,omitempty"`

	Position        string   `json:"position,omitempty"`
	Manifesto       string   `json:"manifesto,omitempty"`
	Bio             string   `json:"bio,omitempty"`
	ManifestoPoints []string `json:"manifesto_points,omitempty"`
	PhotoRef        string   `json:"photo_ref,omitempty"`
	VotesReceived   int      `json:"votes_received"`

	OTPCode      string     `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CandidacyState is the tagged candidacy state derived from the stored
// flags, so transition guards operate on one value instead of four booleans.
type CandidacyState string

const (
	StateNotCandidate     CandidacyState = "NotCandidate"
	StateNominated        CandidacyState = "Nominated"
	StateApproved         CandidacyState = "Approved"
	StateWonClass         CandidacyState = "WonClass"
	StateCollegeCandidate CandidacyState = "CollegeCandidate"
	StateWonCollege       CandidacyState = "WonCollege"
)

// CandidacyStage derives the tagged state from the flags. Flag combinations
// unreachable through legal transitions map onto the nearest legal state so
// reads stay total.
func (s *Student) CandidacyStage() CandidacyState {
	switch {
	case s.HasWon && s.WonTier == TierCollege:
		return StateWonCollege
	case s.HasWon && s.IsCollegeCandidate:
		return StateCollegeCandidate
	case s.HasWon:
		return StateWonClass
	case s.IsCandidate && s.IsApproved:
		return StateApproved
	case s.IsCandidate:
		return StateNominated
	default:
		return StateNotCandidate
	}
}

// Votable reports whether the student counts toward an election's minimum
// of startable candidates: explicitly approved, a prior winner, or a
// promoted college candidate.
func (s *Student) Votable() bool {
	return s.IsApproved || s.HasWon || s.IsCollegeCandidate
}

// ClearCandidacy resets every candidate-related field back to defaults.
// Used on rejection and candidacy removal.
func (s *Student) ClearCandidacy() {
	s.IsCandidate = false
	s.IsApproved = false
	s.Position = ""
	s.Manifesto = ""
	s.Bio = ""
	s.ManifestoPoints = nil
	s.PhotoRef = ""
	s.VotesReceived = 0
}

// ApplyWin records an election win on the student record. This is the one
// authorized cross-aggregate write-back from the Election aggregate.
func (s *Student) ApplyWin(tier Tier, position string, votes int) {
	s.HasWon = true
	s.VotesReceived = votes
	s.Position = position
	if s.WonTier != TierCollege {
		s.WonTier = tier
	}
	if tier == TierClass {
		s.IsCollegeCandidate = true
	}
}

// AuditEntry is one record of a privileged action, persisted best-effort.
type AuditEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Module    string    `json:"module"`
	Details   string    `json:"details"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	CreatedAt time.Time `json:"created_at"`
}
