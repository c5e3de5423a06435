package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sokinpui/nekoai.go/nekoai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, m := range nekoai.Models() {
			fmt.Println(m)
		}
	},
}
