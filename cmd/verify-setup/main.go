package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/claudemarjean/Ivony/internal/verify"
)

var errChecksFailed = errors.New("required files are missing")

func newRootCmd() *cobra.Command {
	var dir string
	var manifestPath string

	cmd := &cobra.Command{
		Use:           "verify-setup",
		Short:         "Check that the frontend checkout is ready to build and deploy",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := loadManifest(manifestPath)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Checking the frontend setup...")
			fmt.Fprintln(cmd.OutOrStdout())

			report := verify.Run(os.DirFS(dir), manifest)
			verify.Render(cmd.OutOrStdout(), report)
			if !report.OK() {
				return errChecksFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "C", ".", "directory of the frontend checkout")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "YAML manifest replacing the built-in checks")
	return cmd
}

func loadManifest(path string) (verify.Manifest, error) {
	if path == "" {
		return verify.DefaultManifest()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return verify.Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return verify.ParseManifest(data)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
