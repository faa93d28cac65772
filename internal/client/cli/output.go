package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/dmitrijs2005/policyportal/internal/client/apiclient"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	keyColor  = color.New(color.Bold)
)

func success(w io.Writer, format string, args ...any) {
	_, _ = okColor.Fprintf(w, format+"\n", args...)
}

func warn(w io.Writer, format string, args ...any) {
	_, _ = warnColor.Fprintf(w, format+"\n", args...)
}

// report prints err for the user and returns it unchanged.
func report(w io.Writer, err error) error {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		_, _ = errColor.Fprintf(w, "Error: %s\n", apiErr.Message)
		for _, f := range apiErr.Fields {
			_, _ = errColor.Fprintf(w, "  %s: %s\n", f.Field, f.Message)
		}
	case errors.Is(err, apiclient.ErrUnavailable):
		_, _ = errColor.Fprintln(w, "Error: server is not reachable")
	default:
		_, _ = errColor.Fprintf(w, "Error: %v\n", err)
	}
	return err
}

func printUser(w io.Writer, u *apiclient.User) {
	rows := [][2]string{
		{"ID", u.ID},
		{"Email", u.Email},
		{"Full name", u.FullName},
		{"Date of birth", u.DateOfBirth},
		{"Policy number", u.PolicyNumber},
		{"Policy status", u.PolicyStatus},
	}
	for _, r := range rows {
		_, _ = keyColor.Fprintf(w, "%-14s", r[0]+":")
		fmt.Fprintln(w, " "+r[1])
	}
}
