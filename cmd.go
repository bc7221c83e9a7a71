package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"guessr/clients"
	"guessr/config"
)

// cliOptions are the flags shared by every subcommand.
type cliOptions struct {
	apiURL    string
	email     string
	password  string
	prefsPath string
	theme     string
	logLevel  string

	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{v: viper.New()}
	opts.v.SetEnvPrefix("GUESSR")
	opts.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	opts.v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "guessr",
		Short:         "Guess the campus event from its hint before the clock runs out.",
		Args:          cobra.NoArgs,
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			bindFlags(cmd.Flags(), opts.v)
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.apiURL, "api-url", "", "API server root, overrides preferences (env: GUESSR_API_URL)")
	pf.StringVarP(&opts.email, "email", "e", "", "account email, overrides preferences (env: GUESSR_EMAIL)")
	pf.StringVar(&opts.password, "password", "", "account password, prompted when empty (env: GUESSR_PASSWORD)")
	pf.StringVar(&opts.prefsPath, "prefs", "", "preferences file (env: GUESSR_PREFS)")
	pf.StringVar(&opts.theme, "theme", "", "terminal theme: light, dark or plain (env: GUESSR_THEME)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "client log level (env: GUESSR_LOG_LEVEL)")

	cmd.AddCommand(
		newServeCmd(opts),
		newPlayCmd(opts),
		newLeaderboardCmd(opts),
		newSeedCmd(opts),
		newPrefsCmd(opts),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("guessr v{{.Version}}\n")

	return cmd
}

// bindFlags fills every flag the user left unset from GUESSR_* variables.
func bindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func (o *cliOptions) preferencesPath() (string, error) {
	if o.prefsPath != "" {
		return o.prefsPath, nil
	}
	return config.DefaultPreferencesPath()
}

// preferences loads the saved preferences with flag overrides applied.
func (o *cliOptions) preferences() (config.Preferences, error) {
	path, err := o.preferencesPath()
	if err != nil {
		return config.Preferences{}, err
	}
	prefs, err := config.LoadPreferences(path)
	if err != nil {
		return prefs, err
	}
	if o.apiURL != "" {
		prefs.APIBaseURL = o.apiURL
	}
	if o.email != "" {
		prefs.Email = o.email
	}
	if o.theme != "" {
		theme := config.Theme(strings.ToLower(o.theme))
		if !theme.Valid() {
			return prefs, fmt.Errorf("unknown theme %q (want light, dark or plain)", o.theme)
		}
		prefs.Theme = theme
	}
	return prefs, nil
}

func (o *cliOptions) logger() zerolog.Logger {
	return config.SetupLogger(o.logLevel, "console")
}

// login builds a client for prefs and signs in, prompting for anything
// missing on in.
func (o *cliOptions) login(cmd *cobra.Command, prefs config.Preferences, in *lineReader, out io.Writer) (*clients.GuessrClient, error) {
	client, err := clients.NewGuessrClient(prefs.APIBaseURL, clients.WithLogger(o.logger()))
	if err != nil {
		return nil, err
	}

	email := prefs.Email
	if email == "" {
		if email, err = in.prompt(out, "Email: "); err != nil {
			return nil, err
		}
	}
	password := o.password
	if password == "" {
		if password, err = in.prompt(out, "Password: "); err != nil {
			return nil, err
		}
	}

	if _, err := client.Login(cmd.Context(), email, password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return client, nil
}
