package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	dialogsCmd := &cobra.Command{Use: "dialogs", Short: "Dialog operations"}

	listCmd := &cobra.Command{
		Use:   "list USER_ID",
		Short: "List a user's active dialogs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/v1/users/%s/dialogs", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	dialogsCmd.AddCommand(listCmd)

	clearCmd := &cobra.Command{
		Use:   "clear DIALOG_ID",
		Short: "Deactivate a dialog and purge its vector memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := doDelete(fmt.Sprintf("%s/v1/dialogs/%s", apiFlag, args[0])); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "cleared")
			return nil
		},
	}
	dialogsCmd.AddCommand(clearCmd)

	rootCmd.AddCommand(dialogsCmd)
}
