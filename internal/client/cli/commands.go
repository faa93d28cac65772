package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/policyportal/internal/client/apiclient"
)

// ErrNotLoggedIn is returned by commands that need a saved session.
var ErrNotLoggedIn = errors.New("not logged in, run 'login' first")

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out, "Password")
	if err != nil {
		return err
	}
	fullName, err := GetSimpleText(a.reader, "Full name", a.out)
	if err != nil {
		return err
	}
	dob, err := GetSimpleText(a.reader, "Date of birth (YYYY-MM-DD)", a.out)
	if err != nil {
		return err
	}

	s, err := a.api.Register(ctx, apiclient.RegisterRequest{
		Email: email, Password: password, FullName: fullName, DateOfBirth: dob,
	})
	if err != nil {
		return report(a.out, err)
	}
	if err := a.startSession(s); err != nil {
		return report(a.out, err)
	}

	success(a.out, "Registered %s, policy %s", s.User.Email, s.User.PolicyNumber)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out, "Password")
	if err != nil {
		return err
	}

	s, err := a.api.Login(ctx, email, password)
	if err != nil {
		return report(a.out, err)
	}
	if err := a.startSession(s); err != nil {
		return report(a.out, err)
	}

	success(a.out, "Logged in as %s", s.User.Email)
	return nil
}

func (a *App) Me(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	u, err := a.api.Me(ctx, a.token)
	if err != nil {
		return a.fail(err)
	}
	a.email = u.Email
	printUser(a.out, u)
	return nil
}

func (a *App) Password(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	current, err := GetPassword(a.out, "Current password")
	if err != nil {
		return err
	}
	next, err := GetPassword(a.out, "New password")
	if err != nil {
		return err
	}

	if err := a.api.UpdatePassword(ctx, a.token, current, next); err != nil {
		return a.fail(err)
	}
	success(a.out, "Password updated successfully")
	return nil
}

func (a *App) Email(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "New email", a.out)
	if err != nil {
		return err
	}

	stored, err := a.api.UpdateEmail(ctx, a.token, email)
	if err != nil {
		return a.fail(err)
	}
	a.email = stored
	success(a.out, "Email updated to %s", stored)
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	fullName, err := GetOptionalText(a.reader, "Full name", a.out)
	if err != nil {
		return err
	}
	dob, err := GetOptionalText(a.reader, "Date of birth", a.out)
	if err != nil {
		return err
	}
	if fullName == nil && dob == nil {
		warn(a.out, "Nothing to update")
		return nil
	}

	u, err := a.api.UpdateProfile(ctx, a.token, apiclient.ProfileRequest{FullName: fullName, DateOfBirth: dob})
	if err != nil {
		return a.fail(err)
	}
	success(a.out, "Profile updated successfully")
	printUser(a.out, u)
	return nil
}

// Logout revokes the token on the server and forgets it locally. The local
// copy is cleared even when the server call fails.
func (a *App) Logout(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	apiErr := a.api.Logout(ctx, a.token)
	if err := a.endSession(); err != nil {
		return report(a.out, err)
	}
	if apiErr != nil {
		var e *apiclient.APIError
		if !errors.As(apiErr, &e) || !e.Unauthorized() {
			return report(a.out, apiErr)
		}
	}
	success(a.out, "Logged out successfully")
	return nil
}

func (a *App) startSession(s *apiclient.Session) error {
	if err := a.tokens.Save(s.Token); err != nil {
		return err
	}
	a.token = s.Token
	a.email = s.User.Email
	return nil
}

func (a *App) endSession() error {
	a.token = ""
	a.email = ""
	return a.tokens.Clear()
}

func (a *App) requireSession() error {
	if !a.isLoggedIn() {
		return report(a.out, ErrNotLoggedIn)
	}
	return nil
}

// fail reports err; a rejected token also ends the local session.
func (a *App) fail(err error) error {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		_ = a.endSession()
	}
	return report(a.out, err)
}
