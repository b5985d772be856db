package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var ErrInvalidArgument = errors.New("invalid argument")

var (
	cfgFile        string
	configFileUsed string
	logger         *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "motion-probe [port] [durationSeconds]",
	Short: "Diagnose the motion service by listening to its UDP broadcasts",
	Long: `Registers with the motion service on the given port, listens for its JSON
motion packets on port+1 and reports packet rate, dropped frames and decode
errors. Exits with a non-zero status if no packets were received.`,
	Args:         validateArgs,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(viper.GetString("log.level"), viper.GetString("log.format"), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logger = l
		if configFileUsed != "" {
			logger.LogAttrs(cmd.Context(), slog.LevelInfo, "Using config file", slog.String("config", configFileUsed))
		}
		return nil
	},
	RunE: runProbe,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	logger = slog.Default()
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.motion-probe/config.toml)")
	rootCmd.PersistentFlags().String("log.level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log.format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("service.name", "sdmotion", "systemd user service to check")

	cobra.CheckErr(viper.BindPFlags(rootCmd.PersistentFlags()))
}

func initConfig() {
	configFileUsed, _ = loadConfig(viper.GetViper(), cfgFile)
}

// loadConfig sets up config file lookup and environment overrides on v and
// reads the config file. It returns the path of the file that was read.
func loadConfig(v *viper.Viper, file string) (string, error) {
	if file != "" {
		// Use config file from the flag.
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath("/etc/motion-probe")
		v.AddConfigPath("$HOME/.motion-probe")
		v.SetConfigName("config")
		v.SetConfigType("toml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// the motion service reads its port from this variable
	if err := v.BindEnv("port", "SDMOTION_SERVER_PORT"); err != nil {
		return "", err
	}
	if err := v.ReadInConfig(); err != nil {
		return "", err
	}
	return v.ConfigFileUsed(), nil
}

func newLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("%w: log level %q", ErrInvalidArgument, level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: log format %q", ErrInvalidArgument, format)
	}
}

func validateArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.MaximumNArgs(2)(cmd, args); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	_, _, err := parseArgs(args, 0, 0)
	return err
}

// parseArgs reads the optional port and duration positional arguments,
// falling back to the given defaults
func parseArgs(args []string, port, duration int) (int, int, error) {
	var err error
	if len(args) > 0 {
		port, err = strconv.Atoi(args[0])
		if err != nil {
			return 0, 0, fmt.Errorf("%w: invalid port number %q", ErrInvalidArgument, args[0])
		}
	}
	if len(args) > 1 {
		duration, err = strconv.Atoi(args[1])
		if err != nil {
			return 0, 0, fmt.Errorf("%w: invalid duration %q", ErrInvalidArgument, args[1])
		}
	}
	return port, duration, nil
}
