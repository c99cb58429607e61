package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var personasActive bool

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the board seats",
	Long: `List the board seats with their model tier and status.

Examples:
  boardroom personas
  boardroom personas --active
  boardroom personas set cfo on_leave`,
	Args: cobra.NoArgs,
	RunE: runPersonas,
}

var personasSetCmd = &cobra.Command{
	Use:   "set <role> <status>",
	Short: "Set a seat to active, inactive or on_leave",
	Args:  cobra.ExactArgs(2),
	RunE:  runPersonasSet,
}

func init() {
	personasCmd.Flags().BoolVar(&personasActive, "active", false, "only seats currently answering")
	personasCmd.AddCommand(personasSetCmd)
}

func runPersonas(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	personas, err := apiClient.ListPersonas(ctx, personasActive)
	if err != nil {
		return fmt.Errorf("list personas: %w", err)
	}
	if len(personas) == 0 {
		fmt.Println("No personas seated")
		return nil
	}

	fmt.Printf("%-5s %-26s %-20s %-9s %s\n", "ROLE", "NAME", "LOCALIZED", "TIER", "STATUS")
	fmt.Println("------------------------------------------------------------------------")
	for _, p := range personas {
		role := defaultTheme.seatStyle(p.Role).Render(fmt.Sprintf("%-5s", p.Role))
		fmt.Printf("%s %-26s %-20s %-9s %s\n", role, p.DisplayName, p.LocalizedName, p.ModelTier, p.Status)
	}
	return nil
}

func runPersonasSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := apiClient.SetPersonaStatus(ctx, args[0], args[1]); err != nil {
		return fmt.Errorf("set persona status: %w", err)
	}
	fmt.Printf("%s is now %s\n", args[0], args[1])
	return nil
}
