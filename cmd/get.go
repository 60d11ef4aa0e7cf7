package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"execauth/internal/execcred"
)

var getOutputFormat string

// newGetCmd creates the command that obtains a credential from the
// configured exec plugin and prints it.
func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Obtain a credential from the configured exec plugin",
		Long: `Invoke the configured exec plugin, validate its output and print the
resulting credential.

The json and yaml formats emit the full ExecCredential document, so execauth
itself can act as an exec plugin for other tooling. The token format prints
only the bearer token, suitable for shell substitution:

  curl -H "Authorization: Bearer $(execauth get -o token)" https://api.example.com`,
		RunE: runGet,
	}
	cmd.Flags().StringVarP(&getOutputFormat, "output", "o", "json", "Output format (json, yaml, token)")
	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provider, err := execcred.NewProvider(cfg.Exec, cfg.Timeout.Duration)
	if err != nil {
		return err
	}

	cred, err := provider.GetCredential(cmd.Context())
	if err != nil {
		return err
	}

	switch getOutputFormat {
	case "token":
		if !cred.HasToken() {
			return fmt.Errorf("plugin produced certificate credentials, not a bearer token; use -o json")
		}
		fmt.Fprintln(cmd.OutOrStdout(), cred.Token)
	case "json":
		data, err := json.MarshalIndent(cred.ToExecCredential(cfg.Exec.APIVersion), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	case "yaml":
		data, err := yaml.Marshal(cred.ToExecCredential(cfg.Exec.APIVersion))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
	default:
		return fmt.Errorf("unsupported output format: %s", getOutputFormat)
	}
	return nil
}
