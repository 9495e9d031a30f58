package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foxxcyber/dealer-dashboard/internal/dashboard"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("DASHBOARD_PASSWORD")
			}
			reader := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				username = prompt(a, reader, "Username: ")
			}
			if password == "" {
				password = prompt(a, reader, "Password: ")
			}
			if username == "" || password == "" {
				return errors.New("username and password are required")
			}

			if err := a.client.Login(cmd.Context(), username, password); err != nil {
				return a.failed("signing in", err)
			}
			if err := a.store.Save(a.session); err != nil {
				return err
			}
			fmt.Fprintln(a.out, okStyle.Render("Signed in as "+username))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (or DASHBOARD_PASSWORD)")
	return cmd
}

func prompt(a *app, r *bufio.Reader, label string) string {
	fmt.Fprint(a.out, label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a.client.Logout()
			if err := a.store.Save(a.session); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show processing statistics for the date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.dash.Statistics.Load(cmd.Context(), a.dash.Range(), a.session.StoreID())
			if err != nil {
				return errShown
			}
			fmt.Fprintln(a.out, renderStatistics(res))
			return nil
		},
	}
}

func newVehiclesCmd(a *app) *cobra.Command {
	var (
		search, status, description string
		page, perPage               int
		noDates                     bool
	)
	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List processed vehicles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := dashboard.FilterState{
				Search:      search,
				Status:      dashboard.StatusFilter(strings.ToLower(status)),
				Description: dashboard.DescriptionFilter(strings.ToLower(description)),
				StoreID:     a.session.StoreID(),
				Page:        page,
				PerPage:     perPage,
			}
			switch f.Status {
			case dashboard.StatusAny, dashboard.StatusSuccess, dashboard.StatusFailed, dashboard.StatusPending:
			default:
				return fmt.Errorf("unknown status filter %q", status)
			}
			switch f.Description {
			case dashboard.DescriptionAny, dashboard.DescriptionUpdated, dashboard.DescriptionNotUpdated:
			default:
				return fmt.Errorf("unknown description filter %q", description)
			}

			var rng *dashboard.DateRange
			if !noDates {
				r := a.dash.Range()
				rng = &r
			}
			res, err := a.dash.Vehicles.Load(cmd.Context(), f, rng)
			if err != nil {
				return errShown
			}
			fmt.Fprintln(a.out, renderVehicles(res))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&search, "search", "s", "", "Stock number search")
	flags.StringVar(&status, "status", "", "Status filter for the page: success, failed, pending")
	flags.StringVar(&description, "description", "", "Description filter for the page: updated, not_updated")
	flags.IntVar(&page, "page", 1, "Page number")
	flags.IntVar(&perPage, "per-page", 20, "Vehicles per page (max 100)")
	flags.BoolVar(&noDates, "all-dates", false, "Ignore the date range")
	return cmd
}

func vehicleID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid vehicle id %q", arg)
	}
	return id, nil
}

func newVehicleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vehicle <id>",
		Short: "Show the full processing record of a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := vehicleID(args[0])
			if err != nil {
				return err
			}
			v, err := a.client.Vehicle(cmd.Context(), id)
			if err != nil {
				return a.failed("loading vehicle", err)
			}
			fmt.Fprintln(a.out, renderVehicleDetail(v))
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a vehicle record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := vehicleID(args[0])
			if err != nil {
				return err
			}
			msg, err := a.client.DeleteVehicle(cmd.Context(), id)
			if err != nil {
				return a.failed("deleting vehicle", err)
			}
			fmt.Fprintln(a.out, okStyle.Render(msg))
			return nil
		},
	}
}

func newStoresCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "List the stores you can view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stores, err := a.client.Stores(cmd.Context())
			if err != nil {
				return a.failed("loading stores", err)
			}
			fmt.Fprintln(a.out, renderStores(stores, a.session.StoreID()))
			return nil
		},
	}
}

func newUseStoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use-store [id]",
		Short: "Select the store to view; no id selects all stores",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.Authenticated() {
				a.toLogin()
				return errShown
			}
			id := ""
			if len(args) == 1 {
				id = strings.TrimSpace(args[0])
			}
			a.session.SetStore(id)
			if err := a.store.Save(a.session); err != nil {
				return err
			}
			if id == "" {
				fmt.Fprintln(a.out, "Viewing all stores")
			} else {
				fmt.Fprintln(a.out, "Viewing store "+id)
			}
			return nil
		},
	}
}

func newActivityCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the most recent processing events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.client.RecentActivity(cmd.Context(), limit, a.session.StoreID())
			if err != nil {
				return a.failed("loading activity", err)
			}
			fmt.Fprintln(a.out, renderActivity(items))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of events (max 50)")
	return cmd
}

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Load statistics and the first page of vehicles together",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := a.dash.Refresh(cmd.Context())
			if stats := a.dash.Statistics.Current(); stats != nil {
				fmt.Fprintln(a.out, renderStatistics(stats))
			}
			if list := a.dash.Vehicles.Current(); list != nil {
				fmt.Fprintln(a.out, renderVehicles(list))
			}
			if err != nil {
				return errShown
			}
			return nil
		},
	}
}
