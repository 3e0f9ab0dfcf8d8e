package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

// createAdmin creates an active admin, or promotes and activates the user owning email.
func (cli *commandLine) createAdmin(name, email, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name, false)
	if name == "" {
		name = email
	}
	if err := user.ValidatePassword(pwd, name, email); err != nil {
		return err
	}

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			Name:      name,
			Email:     email,
			Role:      user.RoleAdmin,
			Status:    user.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		if usr, err = cli.usrRepo.CreateUser(ctx, usr); err != nil {
			return err
		}
		cli.logger.Info("admin created", map[string]interface{}{"user_id": usr.ID, "email": usr.Email})
		return nil
	}

	if usr.Status == user.StatusPending {
		if usr, err = cli.usrRepo.TransitionStatus(ctx, usr.ID, user.StatusPending, user.StatusActive, time.Now().UTC()); err != nil {
			return err
		}
	}
	if !usr.IsActive() {
		return core.NewConflictError("cannot promote a " + string(usr.Status) + " account")
	}
	usr.Role = user.RoleAdmin
	usr.Branch = ""
	usr.Year = 0
	usr.UpdatedAt = time.Now().UTC()
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err = cli.usrRepo.UpdateUser(ctx, usr); err != nil {
		return err
	}
	cli.logger.Info("user promoted to admin", map[string]interface{}{"user_id": usr.ID, "email": usr.Email})
	return nil
}
