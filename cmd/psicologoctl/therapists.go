package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	therapistsCmd := &cobra.Command{Use: "therapists", Short: "Therapist operations"}

	var patientID string
	linkCmd := &cobra.Command{
		Use:   "link THERAPIST_ID",
		Short: "Assign a patient to a therapist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if patientID == "" {
				return fmt.Errorf("--patient required")
			}
			data, err := doPostJSON(fmt.Sprintf("%s/api/therapists/%s/links", apiFlag, args[0]),
				map[string]string{"patientId": patientID})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	linkCmd.Flags().StringVarP(&patientID, "patient", "p", "", "Patient ID (required)")
	_ = linkCmd.MarkFlagRequired("patient")
	therapistsCmd.AddCommand(linkCmd)

	linksCmd := &cobra.Command{
		Use:   "links THERAPIST_ID",
		Short: "List a therapist's assigned patients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/therapists/%s/links", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	therapistsCmd.AddCommand(linksCmd)

	dashboardCmd := &cobra.Command{
		Use:   "dashboard THERAPIST_ID",
		Short: "Fetch the aggregated dashboard for a therapist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/therapists/%s/dashboard", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	therapistsCmd.AddCommand(dashboardCmd)

	rootCmd.AddCommand(therapistsCmd)
}
