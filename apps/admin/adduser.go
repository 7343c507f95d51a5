package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, name, pwd string, isAdmin bool) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	role := string(session.RoleInstructor)
	if isAdmin {
		role = string(session.RoleAdmin)
	}

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			usr, err = cli.usrRepo.GetUserByUsernameOrEmail(email)
		}
		if err != nil && errors.Cause(err) != user.ErrNotFound {
			return err
		}
	}

	if usr.ID == "" {
		now := time.Now().UTC()
		usr = user.User{
			ID:        uuid.New().String(),
			Name:      name,
			Username:  uname,
			Email:     email,
			Role:      role,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(usr)
		return err
	}

	usr.Role = role
	if name != "" {
		usr.Name = name
	}
	usr.UpdatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	active := true
	_, err = cli.usrRepo.UpdateUser(usr, &active)
	return err
}
