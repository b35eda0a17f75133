package service

import "github.com/iliyamo/maternal-vitals/internal/model"

// Principal is the authenticated caller.  Transports build it from a
// verified session (the JWT middleware) and pass it explicitly.
type Principal struct {
	AccountID string
	Role      model.Role
}

func (p Principal) IsPatient() bool { return p.Role == model.RolePatient }

func (p Principal) IsDoctor() bool { return p.Role == model.RoleDoctor }
