package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"execauth/internal/config"
	"execauth/internal/execcred"
)

// newCheckCmd creates the diagnostic command that probes the configured
// exec plugin once and reports what it produced.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the exec plugin configuration by probing it once",
		Long: `Validate the execauth configuration, invoke the exec plugin once and
report the credential it produced.

Use this to debug a plugin setup: configuration problems, plugin failures
(with their stderr output) and schema mismatches are all reported with
enough context to fix the plugin rather than this client.`,
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.DefaultConfigFilePath()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  File:        %s\n", path)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "  Status:      %s\n", text.FgRed.Sprint("Invalid"))
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Status:      %s\n", text.FgGreen.Sprint("Valid"))
	fmt.Fprintf(cmd.OutOrStdout(), "  Command:     %s\n", cfg.Exec.Command)
	fmt.Fprintf(cmd.OutOrStdout(), "  API version: %s\n", cfg.Exec.APIVersion)
	fmt.Fprintf(cmd.OutOrStdout(), "  Timeout:     %s\n", cfg.Timeout.Duration)
	fmt.Fprintf(cmd.OutOrStdout(), "  Interactive: %t\n", cfg.Exec.Interactive)

	provider, err := execcred.NewProvider(cfg.Exec, cfg.Timeout.Duration)
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " Probing exec plugin..."
	s.Start()

	start := time.Now()
	cred, err := provider.GetCredential(cmd.Context())
	s.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "\nPlugin\n")
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "  Status:      %s\n", text.FgRed.Sprint("Failed"))
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "  Status:      %s\n", text.FgGreen.Sprint("OK"))
	fmt.Fprintf(cmd.OutOrStdout(), "  Duration:    %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(cmd.OutOrStdout(), "  Credential:  %s\n", credentialKind(cred))

	if cred.ExpirationTimestamp != nil {
		remaining := time.Until(cred.ExpirationTimestamp.Time).Round(time.Second)
		expiry := fmt.Sprintf("%s (in %s)", cred.ExpirationTimestamp.Format(time.RFC3339), remaining)
		if remaining <= 0 {
			expiry = text.FgRed.Sprint(expiry)
		} else if remaining < 5*time.Minute {
			expiry = text.FgYellow.Sprint(expiry)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  Expires:     %s\n", expiry)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "  Expires:     %s\n", text.FgHiBlack.Sprint("never"))
	}

	return nil
}

func credentialKind(cred *execcred.Credential) string {
	switch {
	case cred.HasToken() && cred.HasClientCertificate():
		return "bearer token + client certificate"
	case cred.HasToken():
		return "bearer token"
	case cred.HasClientCertificate():
		return "client certificate"
	default:
		return "unknown"
	}
}
