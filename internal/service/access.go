package service

import "strings"

// Roles recognised by the access rules.
const (
	RoleStudent = "student"
	RoleParent  = "parent"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// ParseRole normalises a role claim and reports whether it is one of the recognised roles.
func ParseRole(value string) (string, bool) {
	role := strings.ToLower(strings.TrimSpace(value))
	switch role {
	case RoleStudent, RoleParent, RoleTeacher, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

// Actor identifies the authenticated caller.
type Actor struct {
	UserID uint
	Role   string
}

// CanAccessStudent reports whether the actor may read or act on the student's assessments.
// Students only reach their own records; guardians and staff reach any student.
func (a Actor) CanAccessStudent(studentID uint) bool {
	role, _ := ParseRole(a.Role)
	switch role {
	case RoleParent, RoleTeacher, RoleAdmin:
		return true
	case RoleStudent:
		return a.UserID != 0 && a.UserID == studentID
	default:
		return false
	}
}

// IsReviewer reports whether the actor may see canonical answers of completed assessments.
func (a Actor) IsReviewer() bool {
	role, _ := ParseRole(a.Role)
	switch role {
	case RoleParent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}
