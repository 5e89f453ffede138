package cli

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

var errConfirmInput = errors.New("a confirmation link or user id and code are required")

// Confirm redeems an email confirmation. The user may paste the whole link
// from the email, or enter the user id and code separately.
func (a *App) Confirm(ctx context.Context) error {
	input, err := getSimpleText(a.reader, "Paste the confirmation link (or enter your user id)", a.out)
	if err != nil {
		return err
	}

	userID, code, ok := parseConfirmationLink(input)
	if !ok {
		userID = input
		code, err = getSimpleText(a.reader, "Enter confirmation code", a.out)
		if err != nil {
			return err
		}
	}
	if userID == "" || code == "" {
		return errConfirmInput
	}

	if err := a.api.ConfirmEmail(ctx, userID, code); err != nil {
		return err
	}
	printlnFn("Email confirmed successfully.")
	return nil
}

// parseConfirmationLink extracts userId and code from a confirmation URL.
func parseConfirmationLink(s string) (userID, code string, ok bool) {
	if !strings.Contains(s, "?") {
		return "", "", false
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", "", false
	}
	q := u.Query()
	userID, code = q.Get("userId"), q.Get("code")
	return userID, code, userID != "" && code != ""
}

// Delete removes the logged-in account once the user types "yes".
func (a *App) Delete(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "Delete your account permanently? Type 'yes' to continue", a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		printlnFn("Cancelled.")
		return nil
	}

	if err := a.api.DeleteAccount(ctx); err != nil {
		return err
	}
	a.userName = ""
	printlnFn("User account deleted successfully.")
	return nil
}
