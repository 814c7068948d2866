package errors

import (
	"fmt"
	"strings"
)

// FormatUserError returns a user-friendly error message with actionable
// guidance for the CLI.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var configErr *ConfigError
	if As(err, &configErr) {
		return formatConfigError(configErr)
	}

	var ghErr *GitHubError
	if As(err, &ghErr) {
		return formatGitHubError(ghErr)
	}

	var aiErr *AIError
	if As(err, &aiErr) {
		return formatAIError(aiErr)
	}

	var snapErr *SnapshotError
	if As(err, &snapErr) {
		return formatSnapshotError(snapErr)
	}

	var jErr *JudgmentError
	if As(err, &jErr) {
		return formatJudgmentError(jErr)
	}

	return err.Error()
}

func formatConfigError(err *ConfigError) string {
	var b strings.Builder

	if err.Field != "" {
		fmt.Fprintf(&b, "Configuration error in '%s': %s\n", err.Field, err.Message)
	} else {
		fmt.Fprintf(&b, "Configuration error: %s\n", err.Message)
	}

	b.WriteString("\nTo fix this:\n")
	b.WriteString("  • Check your config file: ~/.config/flightcheck/config.toml\n")
	b.WriteString("  • Or override the value with a FLIGHTCHECK_* environment variable\n")

	writeCause(&b, err.Cause)
	return b.String()
}

func formatGitHubError(err *GitHubError) string {
	var b strings.Builder

	if err.Repo != "" {
		fmt.Fprintf(&b, "GitHub error during %s on %s: %s\n", err.Operation, err.Repo, err.Message)
	} else {
		fmt.Fprintf(&b, "GitHub error during %s: %s\n", err.Operation, err.Message)
	}

	switch err.StatusCode {
	case 401:
		b.WriteString("\nAuthentication failed. To fix this:\n")
		b.WriteString("  • Run 'flightcheck auth login' to authenticate with GitHub\n")
		b.WriteString("  • Or set the FLIGHTCHECK_GITHUB_TOKEN environment variable\n")
	case 403:
		b.WriteString("\nPermission denied. To fix this:\n")
		b.WriteString("  • Ensure your token can read this repository's contents\n")
		b.WriteString("  • If using SSO, ensure the token is authorized for the organization\n")
	case 404:
		b.WriteString("\nRepository or path not found. To fix this:\n")
		b.WriteString("  • Verify the owner/repo and ref are correct\n")
		b.WriteString("  • Check that you have access to the repository\n")
	case 429:
		b.WriteString("\nRate limit exceeded. Wait a few minutes or rerun with --retries.\n")
	case 500, 502, 503, 504:
		b.WriteString("\nGitHub server error. Check https://www.githubstatus.com and try again.\n")
	}

	if err.Retryable {
		b.WriteString("\nThis error may be temporary. Rerun with --retries to retry automatically.\n")
	}

	writeCause(&b, err.Cause)
	return b.String()
}

func formatAIError(err *AIError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "AI provider error (%s) during %s: %s\n", err.Provider, err.Operation, err.Message)

	switch err.StatusCode {
	case 401:
		fmt.Fprintf(&b, "\nAuthentication failed with %s. To fix this:\n", err.Provider)
		b.WriteString("  • Set ai.api_key in your config or the provider's API key variable\n")
		b.WriteString("  • Verify the key is valid and not expired\n")
	case 403:
		fmt.Fprintf(&b, "\nAccess denied by %s. Check that the model is available to your account.\n", err.Provider)
	case 429:
		fmt.Fprintf(&b, "\n%s rate limit exceeded. Wait a few minutes or rerun with --retries.\n", err.Provider)
	case 500, 502, 503, 504:
		fmt.Fprintf(&b, "\n%s server error. Wait a few moments and try again.\n", err.Provider)
	}

	if err.Retryable {
		b.WriteString("\nThis error may be temporary. Rerun with --retries to retry automatically.\n")
	}

	writeCause(&b, err.Cause)
	return b.String()
}

func formatSnapshotError(err *SnapshotError) string {
	var b strings.Builder

	if err.ProjectID != "" {
		fmt.Fprintf(&b, "Snapshot store error during %s for %s: %s\n", err.Operation, err.ProjectID, err.Message)
	} else {
		fmt.Fprintf(&b, "Snapshot store error during %s: %s\n", err.Operation, err.Message)
	}
	b.WriteString("\nTo fix this:\n")
	b.WriteString("  • Check store.driver and store.path (or store.dsn) in your config\n")
	b.WriteString("  • Run 'flightcheck snapshot create' to take a fresh snapshot\n")

	writeCause(&b, err.Cause)
	return b.String()
}

func formatJudgmentError(err *JudgmentError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The check did not complete: %s\n", err.Error())
	b.WriteString("\nThe AI provider returned no content. This is not a finding about your repository.\n")
	b.WriteString("Rerun the check, optionally with --retries.\n")

	writeCause(&b, err.Cause)
	return b.String()
}

func writeCause(b *strings.Builder, cause error) {
	if cause != nil {
		fmt.Fprintf(b, "\nUnderlying error: %v", cause)
	}
}
