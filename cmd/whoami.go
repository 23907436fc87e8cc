package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/linanwx/papo/identity"
)

// timeNow is swapped in tests.
var timeNow = time.Now

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored profile",
	RunE:  runWhoami,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored identity",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(logoutCmd)
}

var (
	badgeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")).Padding(0, 1)
	faintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func runWhoami(cmd *cobra.Command, _ []string) error {
	store, err := identityStore()
	if err != nil {
		return err
	}
	id, err := store.Load()
	if errors.Is(err, identity.ErrNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "No identity stored. Run 'papo onboard'.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderProfile(id, timeNow()))
	return nil
}

func renderProfile(id identity.Identity, now time.Time) string {
	head := lipgloss.JoinHorizontal(lipgloss.Center,
		badgeStyle.Render(id.Initials()),
		" ",
		identity.Greeting(now),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		head,
		"  "+id.Name,
		"  "+faintStyle.Render(id.Email),
	)
}

func runLogout(cmd *cobra.Command, _ []string) error {
	store, err := identityStore()
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Identity removed. See you soon! 👋")
	return nil
}
