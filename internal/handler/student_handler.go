package handler

import (
	"net/http"

	"voteon/internal/middleware"
	"voteon/internal/service"
	apperrors "voteon/pkg/errors"
	"voteon/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// StudentHandler exposes registration, verification, login and student
// record endpoints.
type StudentHandler struct {
	students *service.StudentService
	logger   *logger.Logger
}

func NewStudentHandler(students *service.StudentService, log *logger.Logger) *StudentHandler {
	return &StudentHandler{students: students, logger: log}
}

// Register handles POST /api/v1/auth/register
func (h *StudentHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeBody(r, &in); err != nil {
		respondError(w, h.logger, err)
		return
	}

	student, err := h.students.Register(r.Context(), in)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "registration accepted, verification code sent",
		"student": student,
	})
}

type verifyOTPRequest struct {
	AdmissionNumber string `json:"admission_number"`
	Code            string `json:"code"`
}

// VerifyOTP handles POST /api/v1/auth/verify-otp
func (h *StudentHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.AdmissionNumber == "" || req.Code == "" {
		respondError(w, h.logger, apperrors.NewValidationError("admission_number and code are required", nil))
		return
	}

	student, err := h.students.VerifyOTP(r.Context(), req.AdmissionNumber, req.Code)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, student)
}

type loginRequest struct {
	AdmissionNumber string `json:"admission_number"`
	Password        string `json:"password"`
}

// Login handles POST /api/v1/auth/login
func (h *StudentHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.AdmissionNumber == "" || req.Password == "" {
		respondError(w, h.logger, apperrors.NewValidationError("admission_number and password are required", nil))
		return
	}

	result, err := h.students.Login(r.Context(), req.AdmissionNumber, req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Me handles GET /api/v1/students/me
func (h *StudentHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, h.logger, apperrors.NewAuthenticationError("Authentication required"))
		return
	}

	student, err := h.students.Get(r.Context(), identity.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, student)
}

type updateAttendanceRequest struct {
	AttendancePercent float64 `json:"attendance_percent"`
}

// UpdateAttendance handles PUT /api/v1/students/{studentID}/attendance
func (h *StudentHandler) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, h.logger, apperrors.NewAuthenticationError("Authentication required"))
		return
	}

	var req updateAttendanceRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	student, err := h.students.UpdateAttendance(r.Context(), identity, chi.URLParam(r, "studentID"), req.AttendancePercent)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, student)
}
