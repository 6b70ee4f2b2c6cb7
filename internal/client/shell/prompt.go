package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/KeyNest/internal/models"
	"github.com/atinyakov/KeyNest/internal/passgen"
	"github.com/atinyakov/KeyNest/internal/totp"
	"github.com/google/uuid"
	"golang.org/x/term"
)

func ask(sc *bufio.Scanner, out io.Writer, prompt string) string {
	fmt.Fprint(out, prompt)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}

// PromptForEntry reads a new entry from sc. An empty password is replaced by
// a generated one.
func PromptForEntry(sc *bufio.Scanner, out io.Writer, now time.Time) (models.VaultEntry, error) {
	e := models.VaultEntry{
		ID:        uuid.NewString(),
		Tags:      []string{},
		UpdatedAt: models.NowMillis(now),
	}
	e.Title = ask(sc, out, "Enter title: ")
	e.Username = ask(sc, out, "Enter username: ")
	e.Password = ask(sc, out, "Enter password (leave empty to generate): ")
	if e.Password == "" {
		pw, err := passgen.Generate(passgen.DefaultOptions)
		if err != nil {
			return models.VaultEntry{}, fmt.Errorf("generate password: %w", err)
		}
		e.Password = pw
		fmt.Fprintln(out, "Generated password:", pw)
	}
	if err := setTOTP(&e, ask(sc, out, "Enter TOTP secret or otpauth:// URI (optional): ")); err != nil {
		return models.VaultEntry{}, err
	}
	e.Tags = models.AddTagsFromInput(e.Tags, ask(sc, out, "Enter tags (comma separated): "))
	e.Notes = models.StringPtr(ask(sc, out, "Enter notes: "))
	return e, nil
}

// PromptEditEntry reads replacement values for e. Empty answers keep the
// current value; "-" clears an optional field.
func PromptEditEntry(sc *bufio.Scanner, out io.Writer, e *models.VaultEntry) error {
	if v := ask(sc, out, fmt.Sprintf("Title [%s]: ", e.Title)); v != "" {
		e.Title = v
	}
	if v := ask(sc, out, fmt.Sprintf("Username [%s]: ", e.Username)); v != "" {
		e.Username = v
	}
	if v := ask(sc, out, "New password (leave empty to keep): "); v != "" {
		e.Password = v
	}
	switch v := ask(sc, out, "TOTP secret or URI (empty keeps, - clears): "); v {
	case "":
	case "-":
		e.TOTPSecret, e.TOTPIssuer, e.TOTPAccount = nil, nil, nil
	default:
		if err := setTOTP(e, v); err != nil {
			return err
		}
	}
	switch v := ask(sc, out, fmt.Sprintf("Tags [%s] (empty keeps, - clears): ", strings.Join(e.Tags, ", "))); v {
	case "":
	case "-":
		e.Tags = []string{}
	default:
		e.Tags = models.AddTagsFromInput([]string{}, v)
	}
	switch v := ask(sc, out, "Notes (empty keeps, - clears): "); v {
	case "":
	case "-":
		e.Notes = nil
	default:
		e.Notes = models.StringPtr(v)
	}
	return nil
}

func setTOTP(e *models.VaultEntry, input string) error {
	if input == "" {
		return nil
	}
	if strings.HasPrefix(strings.ToLower(input), "otpauth://") {
		u, err := totp.ParseURI(input)
		if err != nil {
			return err
		}
		e.TOTPSecret = models.StringPtr(u.Secret)
		e.TOTPIssuer = models.StringPtr(u.Issuer)
		e.TOTPAccount = models.StringPtr(u.Account)
		return nil
	}
	secret := totp.NormaliseSecret(input)
	if err := totp.ValidateSecret(secret); err != nil {
		return err
	}
	e.TOTPSecret = models.StringPtr(secret)
	return nil
}

// PasswordReader reads a master password after printing prompt.
type PasswordReader func(prompt string) (string, error)

// terminalPassword reads without echo when in is a terminal and falls back to
// a plain line from sc otherwise.
func terminalPassword(in io.Reader, sc *bufio.Scanner, out io.Writer) PasswordReader {
	return func(prompt string) (string, error) {
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			fmt.Fprint(out, prompt)
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out)
			if err != nil {
				return "", fmt.Errorf("read password: %w", err)
			}
			return string(b), nil
		}
		fmt.Fprint(out, prompt)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", fmt.Errorf("read password: %w", err)
			}
			return "", io.EOF
		}
		return sc.Text(), nil
	}
}

// TerminalRestorer snapshots the mode of f and returns a func that puts it
// back, so an interrupt during a hidden prompt does not leave echo off. It is
// a no-op when f is not a terminal.
func TerminalRestorer(f *os.File) func() {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}
	state, err := term.GetState(fd)
	if err != nil {
		return func() {}
	}
	return func() { _ = term.Restore(fd, state) }
}
