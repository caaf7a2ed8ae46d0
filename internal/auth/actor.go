package auth

import (
	"fmt"

	"crono/internal/models"
	"crono/internal/service"
)

// Actor is the authenticated caller of a request.
type Actor struct {
	Type      UserType
	StudentID uint
	AdminID   uint
}

func (a Actor) IsAdmin() bool {
	return a.Type == UserTypeAdmin
}

func (a Actor) IsStudent() bool {
	return a.Type == UserTypeStudent
}

// CancelPolicy lets a student remove their own turn. Admins may remove any turn.
func (a Actor) CancelPolicy() service.Authorizer {
	return service.AuthorizerFunc(func(t *models.Turn) bool {
		if a.IsAdmin() {
			return true
		}
		return a.IsStudent() && t.StudentID == a.StudentID
	})
}

// ProcessPolicy only lets admins mark turns as served.
func (a Actor) ProcessPolicy() service.Authorizer {
	return service.AuthorizerFunc(func(*models.Turn) bool {
		return a.IsAdmin()
	})
}

func (a Actor) validate() error {
	switch a.Type {
	case UserTypeStudent:
		if a.StudentID == 0 {
			return fmt.Errorf("student session without student_id")
		}
	case UserTypeAdmin:
		if a.AdminID == 0 {
			return fmt.Errorf("admin session without admin_id")
		}
	default:
		return fmt.Errorf("unknown user type %q", a.Type)
	}
	return nil
}
