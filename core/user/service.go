package user

import (
	"context"
	"net/mail"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("user not found")
	ErrEmailExists       = errors.New("a user with this email already exists")
	ErrStatusChanged     = errors.New("user status has changed")
	errAdminRegistration = errors.New("admin accounts cannot be registered")
	errInvalidResetLink  = errors.New("the password reset link is invalid or has expired")
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists if another User (not in excludedUsers) has this email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		QueryUsers(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]User, error)
		CountUsers(ctx context.Context, filter QueryFilter) (int, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		// TransitionStatus moves the User from one status to another in a single conditional write.
		// It fails with ErrStatusChanged if the current status is not `from`.
		TransitionStatus(ctx context.Context, id string, from, to Status, updatedAt time.Time) (User, error)
	}

	Service interface {
		Register(ctx context.Context, nu NewUser) (User, error)
		Approve(ctx context.Context, id string) (User, error)
		Reject(ctx context.Context, id string) (User, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]User, error)
		QueryPending(ctx context.Context) ([]User, error)
		Count(ctx context.Context, role Role) (int, error)
		FilterData(ctx context.Context) (FilterData, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetActive(ctx context.Context, id string, role Role) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	service struct {
		repo     Repository
		mailSvc  core.EmailService
		tokenGen *tokenGenerator
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		tokenGen: newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

func (svc *service) checkEmailUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

// Register creates a pending User. Admins are only created from the admin CLI.
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if nu.Role == RoleAdmin || !nu.Role.IsValid() {
		return User{}, core.NewValidationError(errAdminRegistration, core.FieldError{Field: "role", Error: "role must be one of student or teacher"})
	}
	if err := svc.checkEmailUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Name:        nu.Name,
		Email:       nu.Email,
		Role:        nu.Role,
		Status:      StatusPending,
		Designation: nu.Designation,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if usr.IsStudent() {
		usr.Branch = nu.Branch
		usr.Year = nu.Year
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	return usr, errors.Wrap(err, "creating user")
}

func (svc *service) transition(ctx context.Context, id string, to Status) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !usr.Status.CanTransitionTo(to) {
		return User{}, core.NewConflictError("cannot move a " + string(usr.Status) + " account to " + string(to))
	}
	usr, err = svc.repo.TransitionStatus(ctx, id, usr.Status, to, time.Now().UTC())
	if err != nil {
		if errors.Cause(err) == ErrStatusChanged {
			return User{}, core.NewConflictError("account status has changed concurrently")
		}
		return User{}, errors.Wrap(err, "updating status")
	}
	return usr, nil
}

func (svc *service) Approve(ctx context.Context, id string) (User, error) {
	usr, err := svc.transition(ctx, id, StatusActive)
	if err != nil {
		return User{}, err
	}
	svc.sendStatusMail(usr, "account_approved", "Your account has been approved")
	return usr, nil
}

func (svc *service) Reject(ctx context.Context, id string) (User, error) {
	usr, err := svc.transition(ctx, id, StatusRejected)
	if err != nil {
		return User{}, err
	}
	svc.sendStatusMail(usr, "account_rejected", "Your registration request")
	return usr, nil
}

func (svc *service) sendStatusMail(usr User, tmpl, subject string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      subject,
		TemplateName: tmpl,
		TemplateData: map[string]interface{}{"Name": usr.Name, "Role": usr.Role},
	})
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	filter.Clean()
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) QueryPending(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(
		ctx,
		QueryFilter{Status: StatusPending},
		[]core.DBOrdering{{Field: "created_at", Ascending: true}},
	)
}

func (svc *service) Count(ctx context.Context, role Role) (int, error) {
	return svc.repo.CountUsers(ctx, QueryFilter{Role: role})
}

func (svc *service) FilterData(ctx context.Context) (FilterData, error) {
	users, err := svc.repo.QueryUsers(ctx, QueryFilter{Status: StatusActive}, nil)
	if err != nil {
		return FilterData{}, errors.Wrap(err, "querying active users")
	}

	branches := make(map[string]struct{})
	years := make(map[int]struct{})
	designations := make(map[string]struct{})
	for _, usr := range users {
		switch usr.Role {
		case RoleStudent:
			if usr.Branch != "" {
				branches[usr.Branch] = struct{}{}
			}
			if usr.Year != 0 {
				years[usr.Year] = struct{}{}
			}
		case RoleTeacher:
			if usr.Designation != "" {
				designations[usr.Designation] = struct{}{}
			}
		}
	}

	data := FilterData{
		Branches:     make([]string, 0, len(branches)),
		Years:        make([]int, 0, len(years)),
		Designations: make([]string, 0, len(designations)),
	}
	for b := range branches {
		data.Branches = append(data.Branches, b)
	}
	for y := range years {
		data.Years = append(data.Years, y)
	}
	for d := range designations {
		data.Designations = append(data.Designations, d)
	}
	sort.Strings(data.Branches)
	sort.Ints(data.Years)
	sort.Strings(data.Designations)
	return data, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// GetActive returns the active User with the given role, or a NotFound error.
func (svc *service) GetActive(ctx context.Context, id string, role Role) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if usr.Role != role || !usr.IsActive() {
		return User{}, core.NewNotFoundError(string(role) + " not found")
	}
	return usr, nil
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	now := time.Now().UTC()
	usr.LastLogin = now
	usr.UpdatedAt = now
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestPasswordReset emails a password reset link to the active User with this email.
func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive() {
		return ErrNotFound
	}

	token, err := svc.tokenGen.makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{"Name": usr.Name, "UID": encodeUID(usr), "Token": token},
	})
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	invalidLink := core.NewValidationError(errInvalidResetLink)

	id, err := decodeUID(data.UID)
	if err != nil {
		return invalidLink
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return invalidLink
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokenGen.verifyToken(usr, data.Token); err != nil {
		return invalidLink
	}
	if err = ValidatePassword(data.Password, usr.Name, usr.Email); err != nil {
		return err
	}

	if err = usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}
