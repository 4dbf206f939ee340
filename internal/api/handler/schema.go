package handler

import "time"

// --- Request types ---

type registerRequest struct {
	Email          string `json:"email"          validate:"required,email"`
	Password       string `json:"password"       validate:"required,min=8,max=128"`
	FirstName      string `json:"firstName"      validate:"required,max=100"`
	LastName       string `json:"lastName"       validate:"required,max=100"`
	Role           string `json:"role"           validate:"required"`
	Specialization string `json:"specialization" validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshTokenRequest struct {
	AccessToken  string `json:"accessToken"  validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"       validate:"required,email"`
	Token       string `json:"token"       validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
}

// createUserRequest is the admin variant of registration; any role is allowed.
type createUserRequest registerRequest

type updateUserRequest struct {
	Email          *string `json:"email"          validate:"omitempty,email"`
	FirstName      *string `json:"firstName"      validate:"omitempty,min=1,max=100"`
	LastName       *string `json:"lastName"       validate:"omitempty,min=1,max=100"`
	Specialization *string `json:"specialization" validate:"omitempty,max=100"`
	Role           *string `json:"role"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8,max=128"`
}

type profilePictureRequest struct {
	ProfilePictureURL string `json:"profilePictureUrl" validate:"required,url"`
}

type createAppointmentRequest struct {
	Title     string    `json:"title"     validate:"required,max=200"`
	PatientID string    `json:"patientId" validate:"required"`
	DoctorID  string    `json:"doctorId"  validate:"required"`
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime"   validate:"required"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"     validate:"max=2000"`
}

type updateAppointmentRequest struct {
	Title     *string    `json:"title"     validate:"omitempty,min=1,max=200"`
	PatientID *string    `json:"patientId" validate:"omitempty,min=1"`
	DoctorID  *string    `json:"doctorId"  validate:"omitempty,min=1"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Status    *string    `json:"status"`
	Notes     *string    `json:"notes"     validate:"omitempty,max=2000"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type sendMessageRequest struct {
	ReceiverID  string `json:"receiverId"  validate:"required"`
	Content     string `json:"content"     validate:"required,max=4000"`
	IsEncrypted bool   `json:"isEncrypted"`
	Hash        string `json:"hash"        validate:"max=512"`
}

// createReminderRequest defaults UserID to the caller when omitted.
type createReminderRequest struct {
	UserID           string    `json:"userId"`
	AppointmentID    string    `json:"appointmentId"    validate:"required"`
	Title            string    `json:"title"            validate:"required,max=200"`
	Message          string    `json:"message"          validate:"max=2000"`
	ReminderDateTime time.Time `json:"reminderDateTime" validate:"required"`
}

// --- Response types ---

type userResponse struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Role              string    `json:"role"`
	Specialization    string    `json:"specialization,omitempty"`
	ProfilePictureURL string    `json:"profilePictureUrl,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type authResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type messageOnlyResponse struct {
	Message string `json:"message"`
}

type appointmentResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	PatientID string    `json:"patientId"`
	DoctorID  string    `json:"doctorId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type messageResponse struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"senderId"`
	ReceiverID  string     `json:"receiverId"`
	Content     string     `json:"content"`
	IsEncrypted bool       `json:"isEncrypted"`
	Hash        string     `json:"hash,omitempty"`
	IsRead      bool       `json:"isRead"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type appointmentSummaryResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    string    `json:"status"`
}

// reminderResponse renders Appointment as null for orphaned reminders.
type reminderResponse struct {
	ID               string                      `json:"id"`
	UserID           string                      `json:"userId"`
	AppointmentID    string                      `json:"appointmentId"`
	Title            string                      `json:"title"`
	Message          string                      `json:"message"`
	ReminderDateTime time.Time                   `json:"reminderDateTime"`
	IsRead           bool                        `json:"isRead"`
	Appointment      *appointmentSummaryResponse `json:"appointment"`
	CreatedAt        time.Time                   `json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

type markAllReadResponse struct {
	Updated int64 `json:"updated"`
}
