package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/danilarb/fig-demo-converter/pkg/config"
	"github.com/danilarb/fig-demo-converter/pkg/figured"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

var forceAuth bool

// authCmd represents the auth command.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to the farm",
	Long: `Run the OAuth2 authorization flow against Figured.

Prints the authorization URL, waits for the authorization code on stdin,
exchanges it for a token and stores the token on disk. Subsequent convert
runs refresh the stored token automatically; auth only needs to run again
when the refresh token is revoked.

Example:
  fig-convert auth
  fig-convert auth --force`,
	Run: runAuth,
}

func init() {
	authCmd.Flags().BoolVar(&forceAuth, "force", false, "re-authorize even if a valid token exists")
}

func oauthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.Figured.ClientID,
		ClientSecret: cfg.Figured.ClientSecret,
		RedirectURL:  cfg.Figured.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.Figured.AuthURL,
			TokenURL: cfg.Figured.TokenURL,
		},
	}
}

func runAuth(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate(
		"figured.clientId",
		"figured.clientSecret",
		"figured.redirectUri",
		"figured.authUrl",
		"figured.tokenUrl",
	); err != nil {
		exitOnError(err, "invalid configuration")
	}

	manager := figured.NewTokenManager(oauthConfig(cfg), cfg.Figured.TokenPath)

	ctx := context.Background()

	if !forceAuth {
		if _, err := manager.GetValidToken(ctx); err == nil {
			fmt.Println("Existing token is still valid, nothing to do (use --force to re-authorize)")
			return
		}
	}

	fmt.Println("Please go to the following URL and authorize the application:")
	fmt.Println(manager.AuthURL("state-token"))
	fmt.Print("Enter the authorization code: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	exitOnError(err, "failed to read authorization code")
	code = strings.TrimSpace(code)

	if code == "" {
		exitOnError(fmt.Errorf("empty authorization code"), "authorization aborted")
	}

	token, err := manager.Exchange(ctx, code)
	exitOnError(err, "failed to exchange authorization code")

	slog.Info("Authorization complete", "expires", token.Expiry)
	fmt.Println("Token saved.")
}
