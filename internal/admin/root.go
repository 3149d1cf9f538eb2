// Package admin implements the podmate-admin command line: database
// migrations and offline user management against the configured store.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/podmate/internal/buildinfo"
	"github.com/dmitrijs2005/podmate/internal/logging"
	"github.com/dmitrijs2005/podmate/internal/server/config"
	"github.com/dmitrijs2005/podmate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/podmate/internal/server/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a seam for tests.
var readPassword = func(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}

	return readLine(cmd.InOrStdin())
}

// readLine reads up to a newline one byte at a time, so consecutive
// prompts can share an unbuffered reader.
func readLine(r io.Reader) (string, error) {
	var (
		sb  strings.Builder
		buf [1]byte
	)
	for {
		n, err := r.Read(buf[:])
		if n == 1 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(sb.String(), "\r"), nil
}

type options struct {
	dsn string
}

// NewRootCmd builds the command tree. The DSN defaults to the server's
// configured one (defaults, then environment).
func NewRootCmd() *cobra.Command {
	defaults := &config.Config{}
	defaults.LoadDefaults()
	if v := os.Getenv("PODMATE_DATABASE_DSN"); v != "" {
		defaults.DatabaseDSN = v
	}

	opts := &options{}

	root := &cobra.Command{
		Use:           "podmate-admin",
		Short:         "Administer a PodMate database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", defaults.DatabaseDSN, "database DSN (SQLite path or postgres:// URL)")

	root.AddCommand(
		newVersionCmd(),
		newMigrateCmd(opts),
		newUserCmd(opts),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openStore(cmd.Context(), opts.dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newUserCmd(opts *options) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user; the password is read from the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			confirm, err := readPassword(cmd, "Confirm password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}

			db, store, err := openStore(cmd.Context(), opts.dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			acct, err := store.Register(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", acct.UserName, acct.ID)
			return nil
		},
	}

	verify := &cobra.Command{
		Use:   "verify <username>",
		Short: "Check a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			db, store, err := openStore(cmd.Context(), opts.dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			acct, err := store.Verify(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %s (created %s)\n", acct.UserName, acct.CreatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	user.AddCommand(add, verify)
	return user
}

// openStore opens and migrates the database behind dsn.
func openStore(ctx context.Context, dsn string) (*sql.DB, *services.CredentialStore, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	db, repos, err := repomanager.Open(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := repos.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, services.NewCredentialStore(db, repos, logging.Discard()), nil
}
