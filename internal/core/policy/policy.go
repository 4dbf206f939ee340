// Package policy holds the authorization predicates evaluated by the HTTP
// surface before a domain service is invoked. Services do not re-check them.
package policy

import "github.com/carepoint/scheduling-api/internal/core/domain"

// CanAccessOwnedResource allows admins and the resource owner.
func CanAccessOwnedResource(caller domain.Principal, ownerID string) bool {
	return caller.IsAdmin() || (caller.ID != "" && caller.ID == ownerID)
}

// CanAccessAppointment allows admins and either participant.
func CanAccessAppointment(caller domain.Principal, doctorID, patientID string) bool {
	if caller.IsAdmin() {
		return true
	}
	if caller.ID == "" {
		return false
	}
	return caller.ID == doctorID || caller.ID == patientID
}

// CanAccessMessage allows admins, the sender and the receiver.
func CanAccessMessage(caller domain.Principal, senderID, receiverID string) bool {
	return CanAccessAppointment(caller, senderID, receiverID)
}

// HasRole is an exact role match with no ownership fallback.
func HasRole(caller domain.Principal, roles ...domain.Role) bool {
	for _, r := range roles {
		if caller.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin gates admin-only operations.
func IsAdmin(caller domain.Principal) bool {
	return caller.Role == domain.RoleAdmin
}
