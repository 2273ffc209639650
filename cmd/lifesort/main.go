package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "lifesort",
		Short: "Sort spoken, photographed and typed notes into expenses, todos and inventory",
		Long: `lifesort routes everyday input to the part of life it belongs to.

Text, voice memos and photos are classified by a language model as an
expense, a todo or a household item, normalized, and stored locally.
Expenses can be exported to Google Sheets, todos synced to Google Tasks,
and reminders scheduled in Redis.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/lifesort/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	setDefaults()

	rootCmd.AddCommand(authCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(recordsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(remindersCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, userErr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		if common.IsRetryable(err) {
			fmt.Fprintln(os.Stderr, "the failure looks temporary; try again in a moment")
		}
		os.Exit(1)
	}
}

func setDefaults() {
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.max_tokens", 1024)
	viper.SetDefault("llm.max_retries", 2)
	viper.SetDefault("llm.retry_delay", "1s")
	viper.SetDefault("llm.rate_limit", 60)
	viper.SetDefault("llm.trust_threshold", 0.4)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("redis.key", "lifesort:reminders")
	viper.SetDefault("ingest.concurrency", 4)
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LIFESORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := common.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	slog.Debug("configuration loaded", "config_file", viper.ConfigFileUsed())
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lifesort %s\n", version)
		},
	}
}
