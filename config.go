package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/valentine/db"
	"github.com/Seednode/valentine/games/proposal"
	"github.com/Seednode/valentine/sink"
)

const (
	sinkHTTP  = "http"
	sinkLocal = "local"
	sinkStore = "store"
)

var sinkKinds = []string{sinkHTTP, sinkLocal, sinkStore}

type Config struct {
	adminToken     string
	apiBaseURL     string
	bind           string
	dbDriver       string
	dbURL          string
	envFile        string
	jitterMax      int
	jitterMin      int
	localKey       string
	localPath      string
	person         string
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	sink           string
	sinkTimeout    time.Duration
	tlsCert        string
	tlsKey         string
	variant        string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if _, err := proposal.FlowFor(c.variant); err != nil {
		return err
	}
	if !slices.Contains(sinkKinds, c.sink) {
		return fmt.Errorf("invalid sink %q (must be one of %v)", c.sink, sinkKinds)
	}
	if c.sink == sinkHTTP && c.apiBaseURL == "" {
		return errors.New("--api-base-url is required when --sink=http")
	}
	if c.dbDriver != db.DriverSQLite && c.dbDriver != db.DriverPostgres {
		return fmt.Errorf("invalid database driver %q (must be sqlite or postgres)", c.dbDriver)
	}
	if c.jitterMin < 0 || c.jitterMax < c.jitterMin || c.jitterMax > proposal.MaxJitter {
		return fmt.Errorf("invalid jitter range %d-%d (must be within 0-%d)", c.jitterMin, c.jitterMax, proposal.MaxJitter)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) flow() proposal.Flow {
	flow, err := proposal.FlowFor(c.variant)
	if err != nil {
		return proposal.FlowFull
	}
	return flow
}

func (c *Config) jitter() proposal.JitterRange {
	return proposal.JitterRange{Min: c.jitterMin, Max: c.jitterMax}
}

// loadEnvFile pulls VALENTINE_* settings from a dotenv file. Variables that
// are already set win.
func loadEnvFile(args []string) error {
	path, explicit := ".env", false
	if env := os.Getenv("VALENTINE_ENV_FILE"); env != "" {
		path, explicit = env, true
	}

	for i, arg := range args {
		if v, ok := strings.CutPrefix(arg, "--env-file="); ok {
			path, explicit = v, true
		} else if arg == "--env-file" && i+1 < len(args) {
			path, explicit = args[i+1], true
		}
	}

	err := godotenv.Load(path)
	if err != nil && explicit {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("VALENTINE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "valentine",
		Short:         "Asks the big question, one fleeing button at a time.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.adminToken, "admin-token", "", "bearer token required to read stored responses; reading is disabled when empty (env: VALENTINE_ADMIN_TOKEN)")
	fs.StringVar(&cfg.apiBaseURL, "api-base-url", "", "base URL of the responses API used by --sink=http (env: VALENTINE_API_BASE_URL)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: VALENTINE_BIND)")
	fs.StringVar(&cfg.dbDriver, "db-driver", db.DriverSQLite, "responses database driver, sqlite or postgres (env: VALENTINE_DB_DRIVER)")
	fs.StringVar(&cfg.dbURL, "db-url", "valentine.db", "responses database connection string (env: VALENTINE_DB_URL)")
	fs.StringVar(&cfg.envFile, "env-file", ".env", "dotenv file to read settings from (env: VALENTINE_ENV_FILE)")
	fs.IntVar(&cfg.jitterMax, "jitter-max", proposal.DefaultJitter.Max, "largest distance the decline button jumps per axis (env: VALENTINE_JITTER_MAX)")
	fs.IntVar(&cfg.jitterMin, "jitter-min", proposal.DefaultJitter.Min, "smallest distance the decline button jumps per axis (env: VALENTINE_JITTER_MIN)")
	fs.StringVar(&cfg.localKey, "local-key", sink.DefaultLocalKey, "list name used by --sink=local (env: VALENTINE_LOCAL_KEY)")
	fs.StringVar(&cfg.localPath, "local-path", "responses.json", "file used by --sink=local (env: VALENTINE_LOCAL_PATH)")
	fs.StringVar(&cfg.person, "person", proposal.DefaultPerson, "who is being asked, unless overridden per session with ?to= (env: VALENTINE_PERSON)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: VALENTINE_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: VALENTINE_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: VALENTINE_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle sessions are ended (env: VALENTINE_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.sink, "sink", sinkStore, "where submissions go: http, local or store (env: VALENTINE_SINK)")
	fs.DurationVar(&cfg.sinkTimeout, "sink-timeout", 10*time.Second, "time allowed for recording a submission (env: VALENTINE_SINK_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: VALENTINE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: VALENTINE_TLS_KEY)")
	fs.StringVar(&cfg.variant, "variant", "full", "stages to show: "+strings.Join(proposal.Variants(), ", ")+" (env: VALENTINE_VARIANT)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: VALENTINE_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: VALENTINE_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("valentine v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
