package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// gmailScopes are the scopes the bot needs: read, modify, send.
var gmailScopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailModifyScope,
	gmail.GmailSendScope,
	gmail.GmailLabelsScope,
}

// oauthHTTPClient builds an authenticated HTTP client from stored
// credentials and token files.
func oauthHTTPClient(ctx context.Context, credentialsPath, tokenPath string) (*http.Client, error) {
	config, err := oauthConfig(credentialsPath)
	if err != nil {
		return nil, err
	}
	token, err := tokenFromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("no auth token at %s - run 'mailbot auth' first: %w", tokenPath, err)
	}
	return config.Client(ctx, token), nil
}

// RunAuthFlow performs the interactive OAuth exchange and stores the token.
// It prompts on stdout and reads the authorization code from stdin.
func RunAuthFlow(ctx context.Context, credentialsPath, tokenPath string) error {
	config, err := oauthConfig(credentialsPath)
	if err != nil {
		return err
	}

	if _, err := tokenFromFile(tokenPath); err == nil {
		fmt.Printf("Already authenticated. Token exists at %s\n", tokenPath)
		fmt.Printf("To re-authenticate, delete it first: rm %s\n", tokenPath)
		return nil
	}

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following link in your browser, then paste the authorization code:\n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return fmt.Errorf("reading authorization code: %w", err)
	}

	token, err := config.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	if err := saveToken(tokenPath, token); err != nil {
		return err
	}
	fmt.Printf("Authentication successful. Token saved to %s\n", tokenPath)
	return nil
}

func oauthConfig(credentialsPath string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, gmailScopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return config, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("caching oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
