package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"guessr/config"
)

func newPrefsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change saved preferences",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prefs, err := opts.preferences()
			if err != nil {
				return err
			}
			path, _ := opts.preferencesPath()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file:    %s\n", path)
			fmt.Fprintf(out, "theme:   %s\n", prefs.Theme)
			fmt.Fprintf(out, "api url: %s\n", prefs.APIBaseURL)
			fmt.Fprintf(out, "email:   %s\n", prefs.Email)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Save --theme, --api-url and --email as the new defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prefs, err := opts.preferences()
			if err != nil {
				return err
			}
			path, err := opts.preferencesPath()
			if err != nil {
				return err
			}
			if err := config.SavePreferences(path, prefs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved preferences to %s\n", path)
			return nil
		},
	})

	return cmd
}
