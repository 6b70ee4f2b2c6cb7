// Package shell implements the interactive KeyNest terminal client.
package shell

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/KeyNest/internal/health"
	"github.com/atinyakov/KeyNest/internal/models"
	"github.com/atinyakov/KeyNest/internal/passgen"
	"github.com/atinyakov/KeyNest/internal/totp"
	"github.com/atinyakov/KeyNest/internal/vaulterr"
	"go.uber.org/zap"
)

const helpText = `Available commands:
  help            show this message
  init            create a new vault
  unlock          unlock the vault
  lock            lock the vault
  list [tag]      list entries, optionally filtered by tag
  get <id>        show an entry
  add             add an entry
  edit <id>       edit an entry
  delete <id>     delete an entry
  totp <id>       show the current one-time code of an entry
  health          report weak, reused, old and no-2fa entries
  gen [len]       generate a password
  exit            quit`

// Vault is the engine surface used by the shell.
type Vault interface {
	Exists(path string) bool
	Init(path, password string) error
	Unlock(path, password string) (*models.VaultData, error)
	Lock() error
	Load(path string) (*models.VaultData, error)
	Save(path string, data *models.VaultData) error
}

// Shell is a line-oriented vault client.
type Shell struct {
	vault    Vault
	path     string
	sc       *bufio.Scanner
	out      io.Writer
	password PasswordReader
	now      func() time.Time
	log      *zap.Logger

	data *models.VaultData
}

// Option configures a Shell.
type Option func(*Shell)

// WithPasswordReader replaces the terminal password prompt.
func WithPasswordReader(r PasswordReader) Option {
	return func(s *Shell) { s.password = r }
}

// WithClock sets the time source used for timestamps and codes.
func WithClock(now func() time.Time) Option {
	return func(s *Shell) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Shell) { s.log = l }
}

// New returns a shell operating on the vault file at path.
func New(vault Vault, path string, in io.Reader, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		vault: vault,
		path:  path,
		sc:    bufio.NewScanner(in),
		out:   out,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	s.password = terminalPassword(in, s.sc, out)
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run reads commands until exit or end of input. The vault is locked on
// return.
func (s *Shell) Run() error {
	defer func() {
		if err := s.vault.Lock(); err != nil {
			s.log.Warn("lock on exit failed", zap.Error(err))
		}
	}()
	for {
		fmt.Fprint(s.out, "keynest> ")
		if !s.sc.Scan() {
			return s.sc.Err()
		}
		args := strings.Fields(s.sc.Text())
		if len(args) == 0 {
			continue
		}
		if !s.Exec(args) {
			return nil
		}
	}
}

// Exec runs one command and reports whether the shell should continue.
func (s *Shell) Exec(args []string) bool {
	var err error
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "init":
		err = s.create()
	case "unlock":
		err = s.unlock()
	case "lock":
		err = s.lock()
	case "list":
		err = s.list(args[1:])
	case "get":
		err = s.withID(args, s.get)
	case "add":
		err = s.add()
	case "edit":
		err = s.withID(args, s.edit)
	case "delete":
		err = s.withID(args, s.delete)
	case "totp":
		err = s.withID(args, s.totp)
	case "health":
		err = s.health()
	case "gen":
		err = s.gen(args[1:])
	case "exit", "quit":
		fmt.Fprintln(s.out, "Bye")
		return false
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	if err != nil {
		fmt.Fprintln(s.out, "Error:", err)
	}
	return true
}

func (s *Shell) withID(args []string, fn func(id string) error) error {
	if len(args) < 2 {
		fmt.Fprintf(s.out, "Usage: %s <id>\n", args[0])
		return nil
	}
	return fn(args[1])
}

func (s *Shell) create() error {
	if s.vault.Exists(s.path) {
		return vaulterr.E("init", vaulterr.ErrAlreadyExists, nil)
	}
	pw, err := s.password("New master password: ")
	if err != nil {
		return err
	}
	confirm, err := s.password("Repeat master password: ")
	if err != nil {
		return err
	}
	if pw != confirm {
		fmt.Fprintln(s.out, "Passwords do not match")
		return nil
	}
	if pw == "" {
		fmt.Fprintln(s.out, "Master password must not be empty")
		return nil
	}
	if err := s.vault.Init(s.path, pw); err != nil {
		return err
	}
	s.data = models.NewVaultData()
	fmt.Fprintln(s.out, "Vault created at", s.path)
	return nil
}

func (s *Shell) unlock() error {
	pw, err := s.password("Master password: ")
	if err != nil {
		return err
	}
	data, err := s.vault.Unlock(s.path, pw)
	if err != nil {
		return err
	}
	s.data = data
	fmt.Fprintf(s.out, "Vault unlocked (%d entries)\n", len(data.Entries))
	return nil
}

func (s *Shell) lock() error {
	s.data = nil
	if err := s.vault.Lock(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Vault locked")
	return nil
}

// refresh re-reads the vault so changes made by another process are seen.
func (s *Shell) refresh() error {
	data, err := s.vault.Load(s.path)
	if err != nil {
		if errors.Is(err, vaulterr.ErrLocked) {
			s.data = nil
		}
		return err
	}
	if data == nil {
		s.data = nil
		return vaulterr.E("load", vaulterr.ErrNotFound, nil)
	}
	s.data = data
	return nil
}

func (s *Shell) save() error {
	return s.vault.Save(s.path, s.data)
}

func (s *Shell) list(args []string) error {
	if err := s.refresh(); err != nil {
		return err
	}
	n := 0
	for _, e := range s.data.Entries {
		if len(args) > 0 && !models.HasTag(e.Tags, models.NormaliseTag(strings.Join(args, " "))) {
			continue
		}
		fmt.Fprintf(s.out, "%s  %s  %s", e.ID, e.Title, e.Username)
		if len(e.Tags) > 0 {
			fmt.Fprintf(s.out, "  [%s]", strings.Join(e.Tags, ", "))
		}
		fmt.Fprintln(s.out)
		n++
	}
	if n == 0 {
		fmt.Fprintln(s.out, "No entries")
	}
	return nil
}

func (s *Shell) entry(id string) (*models.VaultEntry, error) {
	if err := s.refresh(); err != nil {
		return nil, err
	}
	e := s.data.Get(id)
	if e == nil {
		fmt.Fprintln(s.out, "Entry not found")
	}
	return e, nil
}

func (s *Shell) get(id string) error {
	e, err := s.entry(id)
	if err != nil || e == nil {
		return err
	}
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	fmt.Fprintln(s.out, string(b))
	return nil
}

func (s *Shell) add() error {
	if err := s.refresh(); err != nil {
		return err
	}
	e, err := PromptForEntry(s.sc, s.out, s.now())
	if err != nil {
		return err
	}
	s.data.Add(e)
	if err := s.save(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Entry added:", e.ID)
	return nil
}

func (s *Shell) edit(id string) error {
	e, err := s.entry(id)
	if err != nil || e == nil {
		return err
	}
	edited := *e
	edited.Tags = append([]string{}, e.Tags...)
	if err := PromptEditEntry(s.sc, s.out, &edited); err != nil {
		return err
	}
	s.data.Edit(id, models.NowMillis(s.now()), func(e *models.VaultEntry) {
		*e = edited
	})
	if err := s.save(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Entry updated")
	return nil
}

func (s *Shell) delete(id string) error {
	if err := s.refresh(); err != nil {
		return err
	}
	if !s.data.Delete(id) {
		fmt.Fprintln(s.out, "Entry not found")
		return nil
	}
	if err := s.save(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Entry deleted")
	return nil
}

func (s *Shell) totp(id string) error {
	e, err := s.entry(id)
	if err != nil || e == nil {
		return err
	}
	if e.TOTPSecret == nil {
		fmt.Fprintln(s.out, "Entry has no TOTP secret")
		return nil
	}
	code, err := totp.Generate(*e.TOTPSecret, s.now())
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s (%ds left)\n", code.Code, code.Remaining)
	return nil
}

func (s *Shell) health() error {
	if err := s.refresh(); err != nil {
		return err
	}
	r := health.Analyse(s.data.Entries, s.now())
	fmt.Fprintf(s.out, "weak: %d  reused: %d  old: %d  no-2fa: %d\n",
		r.Summary.Weak, r.Summary.Reused, r.Summary.Old, r.Summary.No2FA)
	for _, is := range r.Issues {
		title := is.EntryID
		if e := s.data.Get(is.EntryID); e != nil {
			title = e.Title
		}
		if is.Detail != "" {
			fmt.Fprintf(s.out, "  %-7s %s (%s)\n", is.Type, title, is.Detail)
		} else {
			fmt.Fprintf(s.out, "  %-7s %s\n", is.Type, title)
		}
	}
	return nil
}

func (s *Shell) gen(args []string) error {
	opts := passgen.DefaultOptions
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Fprintln(s.out, "Usage: gen [len]")
			return nil
		}
		opts.Length = n
	}
	pw, err := passgen.Generate(opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, pw)
	return nil
}
