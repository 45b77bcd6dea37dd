package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	profilesCmd := &cobra.Command{Use: "profiles", Short: "Profile operations"}

	// create
	var email, firstName, lastName, role string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email required")
			}
			payload := map[string]interface{}{"email": email}
			if firstName != "" {
				payload["firstName"] = firstName
			}
			if lastName != "" {
				payload["lastName"] = lastName
			}
			if role != "" {
				payload["role"] = role
			}
			data, err := doPostJSON(fmt.Sprintf("%s/api/profiles", apiFlag), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	createCmd.Flags().StringVarP(&email, "email", "e", "", "Email (required)")
	createCmd.Flags().StringVarP(&firstName, "first-name", "f", "", "First name")
	createCmd.Flags().StringVarP(&lastName, "last-name", "l", "", "Last name")
	createCmd.Flags().StringVarP(&role, "role", "r", "", "Role (patient or therapist)")
	_ = createCmd.MarkFlagRequired("email")
	profilesCmd.AddCommand(createCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get PROFILE_ID",
		Short: "Get profile by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/profiles/%s", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	profilesCmd.AddCommand(getCmd)

	// me
	meCmd := &cobra.Command{
		Use:   "me",
		Short: "Resolve the profile for the current token",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/profiles/me", apiFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	profilesCmd.AddCommand(meCmd)

	rootCmd.AddCommand(profilesCmd)
}
