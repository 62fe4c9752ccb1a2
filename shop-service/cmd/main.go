package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "shop-service",
	Short: "Bracelet shop storefront service",
	Long: `shop-service runs the single-seller bracelet storefront: catalog,
custom designs, order lifecycle, order messages and the seller dashboard.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory containing config.yaml")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
