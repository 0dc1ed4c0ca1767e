package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/btraven00/ocrlinks/internal/config"
	"github.com/btraven00/ocrlinks/internal/report"
)

var (
	cfgFile   string
	quiet     bool
	verbose   bool
	output    string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ocrlinks",
	Short: "Recover URLs from OCR text of slides and screenshots",
	Long: `ocrlinks finds URLs in images of slides, screenshots and scanned
documents. Text is recognized with Tesseract, then URLs that were wrapped
across two lines are rejoined and OCR artifacts in hash-like path segments
(O for 0, l for 1, ...) are corrected before the list is deduplicated.

Settings can be placed in $HOME/.ocrlinks.yaml or passed through
OCRLINKS_* environment variables, e.g. OCRLINKS_LINKS_HEX_THRESHOLD=0.8.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := report.ParseFormat(output)
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ocrlinks.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "quiet output (only warnings and errors are logged)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every rejoin and correction decision")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "human", "output format (human, json, csv)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "pretty", "log format on stderr (pretty, json)")

	config.SetDefaults(viper.GetViper())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setupLogger(os.Stderr)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ocrlinks")
	}

	viper.SetEnvPrefix("OCRLINKS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Warn().Err(err).Msg("Failed to read config file")
		}

		return
	}

	log.Debug().Str("file", viper.ConfigFileUsed()).Msg("Using config file")
}

func setupLogger(w io.Writer) {
	level := zerolog.InfoLevel
	switch {
	case verbose:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	if logFormat == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
	}).With().Timestamp().Logger()
}

// loadConfig resolves the run configuration from viper.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
