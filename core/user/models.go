package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/campus/core"
)

// Role is the portal a User has access to.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var Roles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// Status is the approval state of a User account.
//  pending -> active
//  pending -> rejected
// active and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether the account may move from s to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusPending && (target == StatusActive || target == StatusRejected)
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	Branch       string    `json:"branch,omitempty"`      // students: Branch ID
	Year         int       `json:"year,omitempty"`        // students: year of study
	Designation  string    `json:"designation,omitempty"` // teachers
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }
func (u User) IsActive() bool  { return u.Status == StatusActive }

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            Role   `json:"role" validate:"required,oneof=student teacher"`
	Branch          string `json:"branch"`
	Year            int    `json:"year" validate:"omitempty,min=1,max=6"`
	Designation     string `json:"designation"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = Role(core.CleanString(string(nu.Role), true /* lower */))
	nu.Branch = core.CleanString(nu.Branch)
	nu.Designation = core.CleanString(nu.Designation)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

type QueryFilter struct {
	Search      string   `query:"search"`
	IDs         []string `query:"id"`
	Role        Role     `query:"role"`
	Status      Status   `query:"status"`
	Branch      string   `query:"branch"`
	Year        int      `query:"year"`
	Designation string   `query:"designation"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = Role(core.CleanString(string(qf.Role), true /* lower */))
	qf.Status = Status(core.CleanString(string(qf.Status), true /* lower */))
	qf.Branch = core.CleanString(qf.Branch)
	qf.Designation = core.CleanString(qf.Designation)
}

// Match reports whether usr satisfies every set field of the filter.
// Search does a case-insensitive match on one of User.Name or User.Email.
func (qf QueryFilter) Match(usr User) bool {
	if qf.Search != "" && !containsFold(usr.Name, qf.Search) && !containsFold(usr.Email, qf.Search) {
		return false
	}
	if len(qf.IDs) > 0 && !containsString(qf.IDs, usr.ID) {
		return false
	}
	if qf.Role != "" && usr.Role != qf.Role {
		return false
	}
	if qf.Status != "" && usr.Status != qf.Status {
		return false
	}
	if qf.Branch != "" && usr.Branch != qf.Branch {
		return false
	}
	if qf.Year != 0 && usr.Year != qf.Year {
		return false
	}
	if qf.Designation != "" && usr.Designation != qf.Designation {
		return false
	}
	return true
}

// FilterData lists the distinct values the admin portal can filter users by.
type FilterData struct {
	Branches     []string `json:"branches"`
	Years        []int    `json:"years"`
	Designations []string `json:"designations"`
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func containsString(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}
