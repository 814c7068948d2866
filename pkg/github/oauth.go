package github

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cli/oauth"
	"github.com/cli/oauth/api"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

const (
	// DefaultGitHubHost is the default GitHub host for the device flow.
	DefaultGitHubHost = "https://github.com"

	// DefaultScopes is the OAuth scope needed to read private repositories.
	DefaultScopes = "repo"
)

// OAuthConfig holds OAuth configuration for device flow authentication.
type OAuthConfig struct {
	ClientID string
	Scopes   []string
	HostURL  string
}

// DeviceAuth performs the OAuth device flow: it prints a one-time code for
// the user to enter at GitHub's verification URL and polls until the user
// authorizes the app.
func DeviceAuth(ctx context.Context, cfg OAuthConfig, stdout io.Writer) (*api.AccessToken, error) {
	if cfg.ClientID == "" {
		return nil, fcerrors.NewGitHubError("DeviceAuth", "client_id is required for OAuth device flow")
	}
	if err := ctx.Err(); err != nil {
		return nil, fcerrors.NewGitHubErrorWithCause("DeviceAuth", "cancelled before device flow", err)
	}

	hostURL := cfg.HostURL
	if hostURL == "" {
		hostURL = DefaultGitHubHost
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{DefaultScopes}
	}

	host, err := oauth.NewGitHubHost(hostURL)
	if err != nil {
		return nil, fcerrors.NewGitHubErrorWithCause("DeviceAuth", "invalid GitHub host URL", err)
	}

	flow := &oauth.Flow{
		Host:     host,
		ClientID: cfg.ClientID,
		Scopes:   scopes,
		Stdout:   stdout,
		Stdin:    os.Stdin,
		DisplayCode: func(code, verificationURL string) error {
			fmt.Fprintf(stdout, "\n! Copy your one-time code: %s\n", code)
			fmt.Fprintf(stdout, "- Then open %s to authorize flightcheck\n", verificationURL)
			return nil
		},
	}

	token, err := flow.DeviceFlow()
	if err != nil {
		return nil, fcerrors.NewGitHubErrorWithCause("DeviceAuth", "device flow failed", err)
	}

	return token, nil
}
