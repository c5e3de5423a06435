package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sokinpui/nekoai.go/nekoai"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in with NovelAI credentials and print an access token",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(os.Stderr, "Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			log.Error("Failed to read password", "err", err)
			os.Exit(1)
		}

		client, err := nekoai.NewWithCredentials(cmd.Context(), strings.TrimSpace(args[0]), string(password))
		if err != nil {
			log.Error("Login failed", "err", err)
			os.Exit(1)
		}
		fmt.Println(client.Token())
	},
}
