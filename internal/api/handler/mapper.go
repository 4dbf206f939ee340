package handler

import (
	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/ports"
)

// parseRole maps a request role name onto the closed Role enum.
func parseRole(s string) (domain.Role, error) {
	r, ok := domain.ParseRole(s)
	if !ok {
		return "", domain.Invalid("role", "must be one of: Patient, Doctor, Admin")
	}
	return r, nil
}

// parseStatus maps a request status name onto AppointmentStatus.
// An empty string is left empty so the service can apply its default.
func parseStatus(s string) (domain.AppointmentStatus, error) {
	if s == "" {
		return "", nil
	}
	st, ok := domain.ParseAppointmentStatus(s)
	if !ok {
		return "", domain.Invalid("status", "must be one of: Pending, Confirmed, Cancelled, Completed")
	}
	return st, nil
}

func toUserResponse(v ports.UserView) userResponse {
	return userResponse{
		ID:                v.ID,
		Email:             v.Email,
		FirstName:         v.FirstName,
		LastName:          v.LastName,
		Role:              v.Role.String(),
		Specialization:    v.Specialization,
		ProfilePictureURL: v.ProfilePictureURL,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}

func toUserResponses(vs []ports.UserView) []userResponse {
	out := make([]userResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toUserResponse(v))
	}
	return out
}

func toAuthResponse(r *ports.AuthResult) authResponse {
	return authResponse{
		User:         toUserResponse(r.User),
		AccessToken:  r.Tokens.AccessToken,
		RefreshToken: r.Tokens.RefreshToken,
	}
}

func toAppointmentResponse(v ports.AppointmentView) appointmentResponse {
	return appointmentResponse{
		ID:        v.ID,
		Title:     v.Title,
		PatientID: v.PatientID,
		DoctorID:  v.DoctorID,
		StartTime: v.StartTime,
		EndTime:   v.EndTime,
		Status:    string(v.Status),
		Notes:     v.Notes,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func toAppointmentResponses(vs []ports.AppointmentView) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toAppointmentResponse(v))
	}
	return out
}

func toMessageResponse(v ports.MessageView) messageResponse {
	return messageResponse{
		ID:          v.ID,
		SenderID:    v.SenderID,
		ReceiverID:  v.ReceiverID,
		Content:     v.Content,
		IsEncrypted: v.IsEncrypted,
		Hash:        v.Hash,
		IsRead:      v.IsRead,
		ReadAt:      v.ReadAt,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func toMessageResponses(vs []ports.MessageView) []messageResponse {
	out := make([]messageResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toMessageResponse(v))
	}
	return out
}

func toReminderResponse(v ports.ReminderView) reminderResponse {
	r := reminderResponse{
		ID:               v.ID,
		UserID:           v.UserID,
		AppointmentID:    v.AppointmentID,
		Title:            v.Title,
		Message:          v.Message,
		ReminderDateTime: v.ReminderDateTime,
		IsRead:           v.IsRead,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
	if a := v.Appointment; a != nil {
		r.Appointment = &appointmentSummaryResponse{
			ID:        a.ID,
			Title:     a.Title,
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
			Status:    string(a.Status),
		}
	}
	return r
}

func toReminderResponses(vs []ports.ReminderView) []reminderResponse {
	out := make([]reminderResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toReminderResponse(v))
	}
	return out
}
