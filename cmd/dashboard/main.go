package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/config"
	"github.com/foxxcyber/dealer-dashboard/internal/dashboard"
	"github.com/foxxcyber/dealer-dashboard/internal/logging"
)

// app is the state shared by every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer
	in     io.Reader

	// doer and sessionPath are overridden in tests.
	doer        dashboard.Doer
	sessionPath string

	apiURL   string
	storeID  string
	selector string
	start    string
	end      string

	log      *zap.Logger
	store    dashboard.FileSessionStore
	session  *dashboard.Session
	client   *dashboard.Client
	dash     *dashboard.Dashboard
	redirect sync.Once
}

func main() {
	_ = godotenv.Load()

	a := &app{out: os.Stdout, errOut: os.Stderr, in: os.Stdin}
	os.Exit(run(context.Background(), a, os.Args[1:]))
}

// errShown marks a failure the user has already been told about.
var errShown = errors.New("already reported")

func run(ctx context.Context, a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if !errors.Is(err, errShown) {
		fmt.Fprintln(a.errOut, errorStyle.Render("Error: "+err.Error()))
	}
	return 1
}

func newRootCmd(a *app) *cobra.Command {
	cfg := config.LoadClient()

	root := &cobra.Command{
		Use:   "dashboard",
		Short: "Vehicle processing dashboard",
		Long: `Review vehicle processing results for your dealership.

Sign in with 'dashboard login', then use 'stats', 'vehicles' and
'activity' to explore a date range. Ranges default to month to date.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, cfg)
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetIn(a.in)

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiURL, "api-url", cfg.APIURL, "Data service base URL")
	flags.StringVar(&a.storeID, "store", "", "Store id to view (defaults to the saved selection)")
	flags.StringVar(&a.selector, "range", string(dashboard.MonthToDate),
		"Date range: month_to_date, this_month, last_month, year_to_date, this_year, quick_N_days, custom")
	flags.StringVar(&a.start, "start", "", "Custom range start (YYYY-MM-DD)")
	flags.StringVar(&a.end, "end", "", "Custom range end (YYYY-MM-DD)")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newStatsCmd(a),
		newVehiclesCmd(a),
		newVehicleCmd(a),
		newDeleteCmd(a),
		newStoresCmd(a),
		newUseStoreCmd(a),
		newActivityCmd(a),
		newRefreshCmd(a),
	)
	return root
}

// setup restores the session and builds the client for this invocation.
func (a *app) setup(cmd *cobra.Command, cfg *config.ClientConfig) error {
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	a.log = log

	if a.sessionPath == "" {
		path, err := dashboard.DefaultSessionPath()
		if err != nil {
			return err
		}
		a.sessionPath = path
	}
	a.store = dashboard.FileSessionStore{Path: a.sessionPath}
	a.session = dashboard.NewSession()
	if err := a.store.Load(a.session); err != nil {
		a.log.Warn("ignoring unreadable session", zap.Error(err))
	}
	if a.storeID != "" {
		a.session.SetStore(a.storeID)
	}

	doer := a.doer
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}
	gw, err := dashboard.NewGateway(a.apiURL, doer, a.session, dashboard.RedirectFunc(a.toLogin), a.log)
	if err != nil {
		return err
	}
	a.client = dashboard.NewClient(gw, a.session)
	a.dash = dashboard.New(a.client, dashboard.NotifierFunc(a.toast), dashboard.NewResolver(), a.log)

	sel, err := dashboard.ParseSelector(a.selector)
	if err != nil {
		return err
	}
	changed, err := a.dash.SetRange(sel, a.start, a.end)
	if err != nil {
		return err
	}
	if !changed && sel == dashboard.Custom {
		fmt.Fprintln(a.errOut, mutedStyle.Render("Custom range needs valid --start and --end; showing "+a.dash.Range().Label))
	}
	return nil
}

// toLogin is the CLI's login screen: the stale session is dropped from disk
// and the user is told how to sign in again.
func (a *app) toLogin() {
	a.redirect.Do(func() {
		if err := a.store.Save(a.session); err != nil {
			a.log.Warn("could not clear session", zap.Error(err))
		}
		fmt.Fprintln(a.errOut, warnStyle.Render("Not signed in. Run 'dashboard login' to continue."))
	})
}

func (a *app) toast(message string) {
	fmt.Fprintln(a.errOut, errorStyle.Render(message))
}

// failed reports err for a call made outside the dashboard views. Auth
// failures were already handled by the login redirect.
func (a *app) failed(what string, err error) error {
	switch dashboard.Kind(err) {
	case dashboard.KindAuthRequired:
	case dashboard.KindTransportFailure, dashboard.KindServerRejected:
		a.toast("Error " + what + ": " + dashboard.UserMessage(err))
	default:
		return err
	}
	return errShown
}
