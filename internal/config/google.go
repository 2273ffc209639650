package config

import (
	"os"

	"github.com/Veraticus/lifesort/internal/googleauth"
	"github.com/Veraticus/lifesort/internal/sheets"
	"github.com/Veraticus/lifesort/internal/tasks"
	"github.com/spf13/viper"
)

// lookup returns the viper value for key, falling back to the env variable.
func lookup(key, env string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return os.Getenv(env)
}

// loadCredentials reads <section>.* keys with <envPrefix>* fallbacks.
func loadCredentials(section, envPrefix string) googleauth.Credentials {
	return googleauth.Credentials{
		ServiceAccountPath: ExpandPath(lookup(section+".service_account_path", envPrefix+"SERVICE_ACCOUNT_PATH")),
		ClientID:           lookup(section+".client_id", envPrefix+"CLIENT_ID"),
		ClientSecret:       lookup(section+".client_secret", envPrefix+"CLIENT_SECRET"),
		RefreshToken:       lookup(section+".refresh_token", envPrefix+"REFRESH_TOKEN"),
	}
}

// LoadSheetsConfig loads Google Sheets configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or LIFESORT_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. Default values
func LoadSheetsConfig() (*sheets.Config, error) {
	config := sheets.DefaultConfig()
	config.Credentials = loadCredentials("sheets", "GOOGLE_SHEETS_")
	config.SpreadsheetID = lookup("sheets.spreadsheet_id", "GOOGLE_SHEETS_SPREADSHEET_ID")
	if v := lookup("sheets.spreadsheet_name", "GOOGLE_SHEETS_SPREADSHEET_NAME"); v != "" {
		config.SpreadsheetName = v
	}
	if v := viper.GetString("sheets.sheet_title"); v != "" {
		config.SheetTitle = v
	}
	if v := viper.GetString("sheets.time_zone"); v != "" {
		config.TimeZone = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadTasksConfig loads Google Tasks configuration with GOOGLE_TASKS_*
// environment fallbacks.
func LoadTasksConfig() (*tasks.Config, error) {
	config := tasks.DefaultConfig()
	config.Credentials = loadCredentials("tasks", "GOOGLE_TASKS_")
	if v := lookup("tasks.tasklist", "GOOGLE_TASKS_TASKLIST"); v != "" {
		config.TaskList = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
