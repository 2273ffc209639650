package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/lifesort/internal/cli"
	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/config"
	"github.com/Veraticus/lifesort/internal/googleauth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/api/sheets/v4"
	gtasks "google.golang.org/api/tasks/v1"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
	}

	google := &cobra.Command{
		Use:   "google",
		Short: "Obtain a Google refresh token for Sheets and Tasks",
		Long: `Run the Google OAuth2 consent flow in the browser.

This command will:
1. Start a local callback server
2. Print the Google consent URL
3. Exchange the returned code for a token that carries a refresh token
4. Save the token and print the refresh token for the config

The OAuth client is read from --client-id/--client-secret, or from the
sheets.* and then tasks.* config keys.`,
		RunE: runAuthGoogle,
	}
	google.Flags().String("client-id", "", "OAuth2 client id")
	google.Flags().String("client-secret", "", "OAuth2 client secret")
	google.Flags().String("listen", googleauth.DefaultListenAddr, "Address of the local callback server")
	google.Flags().String("token-file", "", "Where to save the token (default: $HOME/.config/lifesort/google_token.json)")

	cmd.AddCommand(google)
	return cmd
}

func runAuthGoogle(cmd *cobra.Command, _ []string) error {
	clientID, _ := cmd.Flags().GetString("client-id")
	clientSecret, _ := cmd.Flags().GetString("client-secret")
	listen, _ := cmd.Flags().GetString("listen")
	tokenFile, _ := cmd.Flags().GetString("token-file")

	for _, section := range []string{"sheets", "tasks"} {
		if clientID == "" {
			clientID = viper.GetString(section + ".client_id")
		}
		if clientSecret == "" {
			clientSecret = viper.GetString(section + ".client_secret")
		}
	}
	if clientID == "" || clientSecret == "" {
		return common.NewUserError("an OAuth2 client id and secret are required", common.ErrMissingConfig)
	}
	if tokenFile == "" {
		tokenFile = config.DefaultTokenFile()
	}

	out := cmd.OutOrStdout()
	token, err := googleauth.Authorize(cmd.Context(), googleauth.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		ListenAddr:   listen,
		TokenFile:    config.ExpandPath(tokenFile),
		Scopes:       []string{sheets.SpreadsheetsScope, gtasks.TasksScope},
		OnAuthURL: func(authURL string) {
			fmt.Fprintln(out, cli.FormatInfo("Open this URL in your browser to authorize lifesort:"))
			fmt.Fprintln(out, authURL)
		},
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("google authentication failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess("authenticated with Google"))
	if token.RefreshToken != "" {
		fmt.Fprintln(out, cli.RenderBox("Add to config.yaml",
			"sheets:\n  refresh_token: "+token.RefreshToken+"\ntasks:\n  refresh_token: "+token.RefreshToken))
	}
	return nil
}
