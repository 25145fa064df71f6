package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spec-kit/evaluation-service/internal/client"
	"github.com/spec-kit/evaluation-service/internal/dashboard"
	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/session"
)

var (
	apiURL      string
	sessionPath string
	orgName     string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "evalctl",
		Short:         "Intern evaluation dashboards for managers, interns and HR",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `evalctl signs in to the evaluation API and shows the dashboard for your role.

  evalctl login --email you@algo8.ai --password ...
  evalctl manager list
  evalctl intern feedback 12 --comment "..."
  evalctl hr review 12 --comment "..." --adjustment 1
  evalctl export 12`,
	}

	root.PersistentFlags().StringVar(&apiURL, "api", envOr("EVALCTL_API_URL", "http://127.0.0.1:8080"), "API base URL")
	root.PersistentFlags().StringVar(&sessionPath, "session", os.Getenv("EVALCTL_SESSION"), "session file (default ~/.evalctl/session.json)")
	root.PersistentFlags().StringVar(&orgName, "org", envOr("ORG_NAME", "Algo8.ai"), "organisation name printed on reports")

	root.AddCommand(newLoginCmd(), newRegisterCmd(), newLogoutCmd(), newWhoamiCmd())
	root.AddCommand(newManagerCmd(), newInternCmd(), newHRCmd(), newExportCmd())
	return root
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func openStore() (*session.FileStore, error) {
	return session.NewFileStore(sessionPath)
}

// requireRole is the route guard: it loads the stored session and admits
// only the given role, sending everyone else back to login.
func requireRole(role domain.Role) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		if err := session.Guard(s, role); err != nil {
			if errors.Is(err, session.ErrRoleMismatch) {
				return fmt.Errorf("%w: signed in as %s, this view needs %s; run 'evalctl login'", err, s.Role, role)
			}
			return fmt.Errorf("%w: run 'evalctl login'", err)
		}
		cmd.SetContext(session.WithSession(cmd.Context(), s))
		return nil
	}
}

// requireSession admits any role with a live session.
func requireSession(cmd *cobra.Command, _ []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	if err := session.Guard(s, s.Role); err != nil {
		return fmt.Errorf("%w: run 'evalctl login'", err)
	}
	cmd.SetContext(session.WithSession(cmd.Context(), s))
	return nil
}

func loadSession() (*session.Session, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	s, err := store.Load()
	if errors.Is(err, session.ErrUnauthenticated) {
		return nil, fmt.Errorf("%w: run 'evalctl login'", err)
	}
	return s, err
}

// actionError adds the re-login hint when the API rejected the stored session.
func actionError(err error) error {
	if errors.Is(err, session.ErrUnauthenticated) {
		return fmt.Errorf("%w: run 'evalctl login'", err)
	}
	return err
}

func currentSession(cmd *cobra.Command) *session.Session {
	s, _ := session.FromContext(cmd.Context())
	return s
}

func apiFor(cmd *cobra.Command) *client.Client {
	token := ""
	if s := currentSession(cmd); s != nil {
		token = s.Token
	}
	return client.New(apiURL, token)
}

func dashboardOptions() dashboard.Options {
	opts := dashboard.Options{Toaster: dashboard.NewToaster()}
	if store, err := openStore(); err == nil {
		opts.Store = store
	}
	return opts
}

func printToasts(w io.Writer, t *dashboard.Toaster) {
	if out := dashboard.RenderToasts(t.Active()); out != "" {
		fmt.Fprintln(w, out)
	}
}

func printPage(w io.Writer, p *dashboard.Page) {
	if p != nil {
		fmt.Fprintln(w, dashboard.RenderPage(p))
	}
}
