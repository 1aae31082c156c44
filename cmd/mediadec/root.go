package main

import (
	"fmt"
	"strings"

	"github.com/pion/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thesyncim/mediadec"
)

// app carries the state shared by all subcommands.
type app struct {
	v        *viper.Viper
	registry *mediadec.Registry
	provider mediadec.Provider
	log      logging.LeveledLogger
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:          "mediadec",
		Short:        "Decode AAC, VP8 and Theora streams",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a config file (yaml, toml or json)")
	flags.String("lib-path", "", "Directory searched first for native codec libraries")
	flags.String("log-level", "warn", "Log level: disabled, error, warn, info, debug, trace")
	flags.String("provider", "auto", "Engine provider: auto, libavcodec, go-aac, libvpx, x/image/vp8, libtheora")
	flags.Int("threads", 0, "Decoder threads (0 = engine default)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup(cmd)
	}

	rootCmd.AddCommand(
		providersCommand(a),
		vp8Command(a),
		aacCommand(a),
		theoraHeadersCommand(a),
	)
	return rootCmd
}

// setup binds flags and environment to the viper instance and builds the
// engine registry.
func (a *app) setup(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("MEDIADEC")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	level, err := parseLogLevel(a.v.GetString("log-level"))
	if err != nil {
		return err
	}
	provider, err := mediadec.ParseProvider(a.v.GetString("provider"))
	if err != nil {
		return err
	}
	a.provider = provider

	lf := logging.NewDefaultLoggerFactory()
	lf.Writer = cmd.ErrOrStderr()
	lf.DefaultLogLevel = level
	a.log = lf.NewLogger("mediadec")

	a.registry = mediadec.NewRegistry(
		mediadec.WithLoggerFactory(lf),
		mediadec.WithLibraryPath(a.v.GetString("lib-path")),
	)
	return nil
}

func (a *app) decoderConfig() mediadec.DecoderConfig {
	return mediadec.DecoderConfig{
		Provider: a.provider,
		Threads:  a.v.GetInt("threads"),
		Registry: a.registry,
	}
}

var logLevels = map[string]logging.LogLevel{
	"disabled": logging.LogLevelDisabled,
	"error":    logging.LogLevelError,
	"warn":     logging.LogLevelWarn,
	"info":     logging.LogLevelInfo,
	"debug":    logging.LogLevelDebug,
	"trace":    logging.LogLevelTrace,
}

func parseLogLevel(s string) (logging.LogLevel, error) {
	level, ok := logLevels[strings.ToLower(s)]
	if !ok {
		return logging.LogLevelDisabled, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
