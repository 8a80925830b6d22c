package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"voteon/internal/domain"
	"voteon/internal/repository"
	"voteon/pkg/credentials"
	apperrors "voteon/pkg/errors"
	"voteon/pkg/logger"

	"go.uber.org/zap"
)

const auditModuleStudents = "students"

const (
	ActionStudentRegistered = "STUDENT_REGISTERED"
	ActionStudentVerified   = "STUDENT_VERIFIED"
	ActionAttendanceUpdated = "ATTENDANCE_UPDATED"
)

// otpTTL is how long a registration OTP stays redeemable.
const otpTTL = 10 * time.Minute

// RegisterInput carries the fields a student submits at sign-up.
type RegisterInput struct {
	AdmissionNumber string `json:"admission_number"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ClassName       string `json:"class_name"`
	Section         string `json:"section"`
}

// LoginResult is the response to a successful login.
type LoginResult struct {
	Token   string          `json:"token"`
	Student *domain.Student `json:"student"`
}

// StudentService manages registration, OTP verification, login and the
// administrative student record updates.
type StudentService struct {
	students repository.StudentRepository
	hasher   credentials.Hasher
	notifier Notifier
	auth     AuthService
	audit    AuditRecorder
	logger   *logger.Logger
	now      func() time.Time
}

func NewStudentService(
	students repository.StudentRepository,
	hasher credentials.Hasher,
	notifier Notifier,
	auth AuthService,
	audit AuditRecorder,
	log *logger.Logger,
) *StudentService {
	return &StudentService{
		students: students,
		hasher:   hasher,
		notifier: notifier,
		auth:     auth,
		audit:    audit,
		logger:   log,
		now:      time.Now,
	}
}

// Register creates an unverified student record and sends the OTP. If the
// OTP cannot be sent the record is deleted again so the admission number
// stays free for a retry.
func (s *StudentService) Register(ctx context.Context, in RegisterInput) (*domain.Student, error) {
	if err := validateRegisterInput(in); err != nil {
		return nil, err
	}

	if existing, err := s.students.GetByAdmissionNumber(ctx, in.AdmissionNumber); err == nil && existing != nil {
		return nil, apperrors.NewConflictError("admission number is already registered")
	}
	if existing, err := s.students.GetByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, apperrors.NewConflictError("email is already registered")
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to process credentials", err)
	}

	code, err := generateOTP()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to generate verification code", err)
	}
	expires := s.now().Add(otpTTL)

	student := &domain.Student{
		AdmissionNumber: in.AdmissionNumber,
		Name:            in.Name,
		Email:           in.Email,
		PasswordDigest:  digest,
		ClassName:       in.ClassName,
		Section:         in.Section,
		OTPCode:         code,
		OTPExpiresAt:    &expires,
	}

	if err := s.students.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, student.Email, code); err != nil {
		// Compensate so the registration can be retried cleanly.
		if delErr := s.students.Delete(ctx, student.ID); delErr != nil {
			s.logger.Error("failed to roll back registration after notification failure",
				zap.String("student_id", student.ID), zap.Error(delErr))
		}
		return nil, apperrors.NewExternalError("failed to send verification code", err)
	}

	s.audit.Record(ctx, ActionStudentRegistered, auditModuleStudents,
		fmt.Sprintf("student %s registered", student.AdmissionNumber),
		student.ID, domain.RoleStudent)
	return student, nil
}

func validateRegisterInput(in RegisterInput) error {
	details := map[string]interface{}{}
	if in.AdmissionNumber == "" {
		details["admission_number"] = "admission_number is required"
	}
	if in.Name == "" {
		details["name"] = "name is required"
	}
	if in.Email == "" {
		details["email"] = "email is required"
	}
	if len(in.Password) < 8 {
		details["password"] = "password must be at least 8 characters"
	}
	if in.ClassName == "" {
		details["class_name"] = "class_name is required"
	}
	if in.Section == "" {
		details["section"] = "section is required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid registration input", details)
	}
	return nil
}

// VerifyOTP redeems a registration code and marks the account verified.
func (s *StudentService) VerifyOTP(ctx context.Context, admissionNumber, code string) (*domain.Student, error) {
	student, err := s.students.GetByAdmissionNumber(ctx, admissionNumber)
	if err != nil {
		return nil, err
	}
	if student.IsVerified {
		return student, nil
	}
	if student.OTPCode == "" || student.OTPCode != code {
		return nil, apperrors.NewAuthenticationError("invalid verification code")
	}
	if student.OTPExpiresAt == nil || s.now().After(*student.OTPExpiresAt) {
		return nil, apperrors.NewAuthenticationError("verification code has expired")
	}

	student.IsVerified = true
	student.OTPCode = ""
	student.OTPExpiresAt = nil
	if err := s.students.Update(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to verify student: %w", err)
	}

	s.audit.Record(ctx, ActionStudentVerified, auditModuleStudents,
		fmt.Sprintf("student %s verified", admissionNumber),
		student.ID, domain.RoleStudent)
	return student, nil
}

// Login checks the credentials of a verified student and issues a token.
func (s *StudentService) Login(ctx context.Context, admissionNumber, password string) (*LoginResult, error) {
	student, err := s.students.GetByAdmissionNumber(ctx, admissionNumber)
	if err != nil {
		// Same response for unknown accounts and bad passwords.
		return nil, apperrors.NewAuthenticationError("invalid credentials")
	}
	if !s.hasher.Verify(password, student.PasswordDigest) {
		return nil, apperrors.NewAuthenticationError("invalid credentials")
	}
	if !student.IsVerified {
		return nil, apperrors.NewAuthenticationError("account is not verified")
	}

	token, err := s.auth.IssueToken(domain.Identity{
		ID:        student.ID,
		Role:      domain.RoleStudent,
		ClassName: student.ClassName,
		Section:   student.Section,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue token", err)
	}

	return &LoginResult{Token: token, Student: student}, nil
}

// Get loads one student record.
func (s *StudentService) Get(ctx context.Context, id string) (*domain.Student, error) {
	return s.students.GetByID(ctx, id)
}

// UpdateAttendance sets a student's attendance percentage. Restricted to
// teachers and election officials since attendance gates candidacy.
func (s *StudentService) UpdateAttendance(ctx context.Context, actor domain.Identity, studentID string, percent float64) (*domain.Student, error) {
	if actor.Role != domain.RoleTeacher && !actor.IsOfficial() {
		return nil, apperrors.NewAuthorizationError("only teachers and election officials can update attendance")
	}
	if percent < 0 || percent > 100 {
		return nil, apperrors.NewValidationError("invalid attendance", map[string]interface{}{
			"attendance_percent": "must be between 0 and 100",
		})
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	student.AttendancePercent = percent
	if err := s.students.Update(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to update attendance: %w", err)
	}

	s.audit.Record(ctx, ActionAttendanceUpdated, auditModuleStudents,
		fmt.Sprintf("attendance of student %s set to %.1f%%", studentID, percent),
		actor.ID, actor.Role)
	return student, nil
}

// generateOTP returns a 6-digit numeric code from crypto/rand.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
