package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/testmart/internal/common"
)

// Register prompts for an email and password and creates the account. The
// password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.api.Register(ctx, email, password); err != nil {
		return err
	}

	printlnFn("Registration successful. Please check your email to confirm your account.")
	return nil
}

// Login prompts for credentials and keeps the access token on success.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	a.userName = s.Email
	printlnFn(fmt.Sprintf("Logged in as %s until %s", s.Email, s.ExpiresAt.Local().Format("15:04")))
	return nil
}

// Logout drops the access token.
func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	if !a.api.LoggedIn() {
		a.userName = ""
	}
	if err != nil {
		return err
	}
	printlnFn("User logged out successfully.")
	return nil
}
