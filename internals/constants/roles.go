package constants

import "fmt"

const (
	RoleStudent = "student"
	RoleTrainer = "trainer"
	RoleAdmin   = "admin"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// Role error message templates
const (
	ErrOnlyAdminsCanAccess   = "Only admins can access %s."
	ErrOnlyTrainersCanAccess = "Only trainers can access %s."
	ErrOnlyStudentsCanAccess = "Only students can access %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorTrainer(feature string) string {
	return fmt.Sprintf(ErrOnlyTrainersCanAccess, feature)
}

func RoleErrorStudent(feature string) string {
	return fmt.Sprintf(ErrOnlyStudentsCanAccess, feature)
}

// ==========================
// Grouped role slices
// ==========================
var (
	AllRoles = []string{
		RoleStudent,
		RoleTrainer,
		RoleAdmin,
	}

	StaffRoles = []string{
		RoleTrainer,
		RoleAdmin,
	}

	AdminOnly = []string{
		RoleAdmin,
	}

	TrainerOnly = []string{
		RoleTrainer,
	}

	StudentOnly = []string{
		RoleStudent,
	}
)

func IsValidRole(r string) bool {
	for _, x := range AllRoles {
		if x == r {
			return true
		}
	}
	return false
}
