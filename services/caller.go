package services

import (
	"fmt"

	"github.com/yeremiapane/school-journal/models"
)

// Caller is the authenticated identity an operation runs as. The only
// implementations are Teacher and Student; every authorization point switches
// over both and treats anything else as forbidden.
type Caller interface {
	UserID() uint
	Role() models.Role
	sealed()
}

type Teacher struct{ ID uint }

type Student struct{ ID uint }

func (t Teacher) UserID() uint      { return t.ID }
func (t Teacher) Role() models.Role { return models.RoleTeacher }
func (Teacher) sealed()             {}

func (s Student) UserID() uint      { return s.ID }
func (s Student) Role() models.Role { return models.RoleStudent }
func (Student) sealed()             {}

// CallerFor maps a stored user onto its caller variant.
func CallerFor(user models.User) (Caller, error) {
	switch user.Role {
	case models.RoleTeacher:
		return Teacher{ID: user.ID}, nil
	case models.RoleStudent:
		return Student{ID: user.ID}, nil
	default:
		return nil, fmt.Errorf("user %d has unknown role %q", user.ID, user.Role)
	}
}

func requireTeacher(caller Caller) (Teacher, error) {
	switch c := caller.(type) {
	case Teacher:
		return c, nil
	case Student:
		return Teacher{}, ErrForbidden
	default:
		return Teacher{}, ErrForbidden
	}
}

func requireStudent(caller Caller) (Student, error) {
	switch c := caller.(type) {
	case Student:
		return c, nil
	case Teacher:
		return Student{}, ErrForbidden
	default:
		return Student{}, ErrForbidden
	}
}
