package domain

import (
	"strings"
	"time"
)

// ClassMatcher decides whether a student's class/section places them inside
// a class election's scope. It is a swappable strategy because historical
// registration data carries inconsistent free-text class naming.
type ClassMatcher interface {
	Matches(studentClass, studentSection, electionClass, electionSection string) bool
}

// MatchMode selects a class matching strategy.
type MatchMode string

const (
	// MatchExact is the default: case-insensitive equality on class and
	// section.
	MatchExact MatchMode = "exact"
	// MatchNormalized folds case and surrounding/internal whitespace before
	// comparing.
	MatchNormalized MatchMode = "normalized"
	// MatchLegacyFuzzy is bidirectional substring containment, preserved
	// from the earlier system. It can false-positive (class "10" matches
	// "110"), so it must be opted into explicitly.
	MatchLegacyFuzzy MatchMode = "legacy-fuzzy"
)

// NewClassMatcher returns the matcher for mode, defaulting to exact.
func NewClassMatcher(mode MatchMode) ClassMatcher {
	switch mode {
	case MatchNormalized:
		return normalizedMatcher{}
	case MatchLegacyFuzzy:
		return legacyFuzzyMatcher{}
	default:
		return exactMatcher{}
	}
}

type exactMatcher struct{}

func (exactMatcher) Matches(sClass, sSection, eClass, eSection string) bool {
	return strings.EqualFold(sClass, eClass) && strings.EqualFold(sSection, eSection)
}

type normalizedMatcher struct{}

func (normalizedMatcher) Matches(sClass, sSection, eClass, eSection string) bool {
	return normalize(sClass) == normalize(eClass) && normalize(sSection) == normalize(eSection)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

type legacyFuzzyMatcher struct{}

func (legacyFuzzyMatcher) Matches(sClass, sSection, eClass, eSection string) bool {
	sc := strings.ToLower(sClass)
	ec := strings.ToLower(eClass)
	ss := strings.ToLower(sSection)
	es := strings.ToLower(eSection)

	classMatch := strings.Contains(sc, ec) || strings.Contains(ec, sc)
	sectionMatch := (ss == "" && es == "") ||
		(ss != "" && es != "" && (strings.Contains(ss, es) || strings.Contains(es, ss)))

	return classMatch && sectionMatch
}

// CanNominate reports whether a student may stand as a candidate: attendance
// at or above the threshold and no active candidacy already held.
func CanNominate(s *Student, minAttendance float64) error {
	if s.AttendancePercent < minAttendance {
		return ErrAttendanceTooLow
	}
	if s.IsCandidate {
		return ErrAlreadyCandidate
	}
	return nil
}

// CanVote evaluates every precondition for a vote in order and returns the
// first failure: election active, window open, voter verified, voter in
// scope (class elections), voter not already in the ledger, candidate
// enrolled. Pure; the caller supplies now.
func CanVote(e *Election, voter *Student, candidateID string, now time.Time, matcher ClassMatcher) error {
	if e.Status != StatusActive {
		return ErrNotActive
	}
	if !e.WindowOpen(now) {
		return ErrOutsideWindow
	}
	if !voter.IsVerified {
		return ErrUnverified
	}
	if e.Type == TierClass && !matcher.Matches(voter.ClassName, voter.Section, e.ClassName, e.Section) {
		return ErrScopeMismatch
	}
	if e.HasVoted(voter.ID) {
		return ErrAlreadyVoted
	}
	if e.Candidate(candidateID) == nil {
		return ErrUnknownCandidate
	}
	return nil
}

// InScope reports whether a student belongs to an election's audience.
// College elections are open to every verified student.
func InScope(e *Election, s *Student, matcher ClassMatcher) bool {
	if e.Type != TierClass {
		return true
	}
	return matcher.Matches(s.ClassName, s.Section, e.ClassName, e.Section)
}
