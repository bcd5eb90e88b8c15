package main

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/userlocale/internal/locale"
	"github.com/sakif/userlocale/internal/service"
)

// systemActor is recorded as the actor of changes made from the command line.
const systemActor = "system"

// systemAuthorizer lets the operator edit any profile. Whoever can run this
// binary against the database already has full access to it.
type systemAuthorizer struct{}

func (systemAuthorizer) CanEditUserProfile(context.Context, string, string) (bool, error) {
	return true, nil
}

func (c *cli) localesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locales",
		Short: "List the installed locales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := locale.NewCatalog(c.cfg.Locales)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, id := range catalog.Available() {
				marker := ""
				if id == c.cfg.SiteLocale {
					marker = "(default)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", id, catalog.Label(id), marker)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) preferenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preference",
		Short: "Read or change a user's preferred locale",
	}

	var getLogin string
	get := &cobra.Command{
		Use:   "get",
		Short: "Print a user's stored locale preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			comps, err := c.components(cmd.Context())
			if err != nil {
				return err
			}
			defer comps.DB.Close()

			user, err := comps.Auth.GetUserByLogin(cmd.Context(), getLogin)
			if err != nil {
				return err
			}
			pref, err := comps.Preferences.Get(cmd.Context(), user.ID)
			if err != nil {
				return err
			}
			switch {
			case !pref.Found:
				fmt.Fprintln(cmd.OutOrStdout(), "(not set)")
			case pref.Locale == "":
				fmt.Fprintln(cmd.OutOrStdout(), "(site default)")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), pref.Locale)
			}
			return nil
		},
	}
	get.Flags().StringVar(&getLogin, "user", "", "user login")
	_ = get.MarkFlagRequired("user")

	var setLogin, setLocale string
	set := &cobra.Command{
		Use:   "set",
		Short: "Store a user's locale preference (empty --locale selects the site default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			comps, err := c.components(cmd.Context())
			if err != nil {
				return err
			}
			defer comps.DB.Close()

			user, err := comps.Auth.GetUserByLogin(cmd.Context(), setLogin)
			if err != nil {
				return err
			}
			if setLocale != "" && !comps.Catalog.Contains(setLocale) {
				c.logger.Warn("locale is not installed; it is stored but pages may fall back",
					slog.String("locale", setLocale))
			}

			prefs := service.NewPreferenceService(comps.DB, systemAuthorizer{}, c.logger)
			if err := prefs.Set(cmd.Context(), user.ID, setLocale, systemActor); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %q\n", user.Login, setLocale)
			return nil
		},
	}
	set.Flags().StringVar(&setLogin, "user", "", "user login")
	set.Flags().StringVar(&setLocale, "locale", "", "locale identifier, e.g. de_DE")
	_ = set.MarkFlagRequired("user")

	cmd.AddCommand(get, set)
	return cmd
}

func (c *cli) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var login, role string
	roleCmd := &cobra.Command{
		Use:   "role",
		Short: "Set a user's role (administrator or subscriber)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			comps, err := c.components(cmd.Context())
			if err != nil {
				return err
			}
			defer comps.DB.Close()

			user, err := comps.Auth.SetRole(cmd.Context(), login, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Login, user.Role)
			return nil
		},
	}
	roleCmd.Flags().StringVar(&login, "login", "", "user login")
	roleCmd.Flags().StringVar(&role, "role", "", "administrator or subscriber")
	_ = roleCmd.MarkFlagRequired("login")
	_ = roleCmd.MarkFlagRequired("role")

	var deleteLogin string
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user account together with its locale preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			comps, err := c.components(cmd.Context())
			if err != nil {
				return err
			}
			defer comps.DB.Close()

			user, err := comps.Auth.DeleteUser(cmd.Context(), deleteLogin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", user.Login)
			return nil
		},
	}
	deleteCmd.Flags().StringVar(&deleteLogin, "login", "", "user login")
	_ = deleteCmd.MarkFlagRequired("login")

	cmd.AddCommand(roleCmd, deleteCmd)
	return cmd
}
