package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	chatCmd := &cobra.Command{Use: "chat", Short: "Chat turn operations"}

	var userID, personaID int64
	var text, mode, storyKey, atmosphere string
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send one user message through the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 || text == "" {
				return fmt.Errorf("--user and --text required")
			}
			payload := map[string]interface{}{"userId": userID, "text": text}
			if personaID != 0 {
				payload["personaId"] = personaID
			}
			if mode != "" {
				payload["mode"] = mode
			}
			if storyKey != "" {
				payload["storyKey"] = storyKey
			}
			if atmosphere != "" {
				payload["atmosphere"] = atmosphere
			}
			data, err := doPostJSON(apiFlag+"/v1/chat/messages", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	sendCmd.Flags().Int64VarP(&userID, "user", "u", 0, "User ID (required)")
	sendCmd.Flags().StringVarP(&text, "text", "t", "", "Message text (required)")
	sendCmd.Flags().Int64VarP(&personaID, "persona", "p", 0, "Persona ID (defaults to the user's active persona)")
	sendCmd.Flags().StringVarP(&mode, "mode", "m", "", "Dialog mode")
	sendCmd.Flags().StringVar(&storyKey, "story", "", "Story key")
	sendCmd.Flags().StringVar(&atmosphere, "atmosphere", "", "Atmosphere key")
	_ = sendCmd.MarkFlagRequired("user")
	_ = sendCmd.MarkFlagRequired("text")
	chatCmd.AddCommand(sendCmd)

	var greetUser, greetPersona int64
	var greetReturn bool
	greetCmd := &cobra.Command{
		Use:   "greet",
		Short: "Generate a persona greeting",
		RunE: func(cmd *cobra.Command, args []string) error {
			if greetUser == 0 {
				return fmt.Errorf("--user required")
			}
			payload := map[string]interface{}{"userId": greetUser}
			if greetPersona != 0 {
				payload["personaId"] = greetPersona
			}
			if greetReturn {
				payload["isReturn"] = true
			}
			data, err := doPostJSON(apiFlag+"/v1/chat/greetings", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	greetCmd.Flags().Int64VarP(&greetUser, "user", "u", 0, "User ID (required)")
	greetCmd.Flags().Int64VarP(&greetPersona, "persona", "p", 0, "Persona ID")
	greetCmd.Flags().BoolVarP(&greetReturn, "return", "r", false, "Request re-entry framing")
	_ = greetCmd.MarkFlagRequired("user")
	chatCmd.AddCommand(greetCmd)

	rootCmd.AddCommand(chatCmd)
}
