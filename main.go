package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "auction-engine",
	Short: "Registration and bid arbitration engine for moderated auctions",
}

func init() {
	rootCmd.PersistentFlags().String("config", ".", "Directory containing app.env")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
