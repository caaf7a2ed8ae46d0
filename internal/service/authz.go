package service

import "crono/internal/models"

// Authorizer decides whether the caller may remove a given turn. The service
// asks it once the target turn has been loaded; how the caller was
// authenticated is not the service's concern.
type Authorizer interface {
	CanRemove(turn *models.Turn) bool
}

type AuthorizerFunc func(turn *models.Turn) bool

func (f AuthorizerFunc) CanRemove(turn *models.Turn) bool {
	return f(turn)
}

// AllowAll authorizes every removal. Meant for trusted internal callers.
var AllowAll Authorizer = AuthorizerFunc(func(*models.Turn) bool { return true })
