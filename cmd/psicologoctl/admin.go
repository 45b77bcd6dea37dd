package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	adminCmd := &cobra.Command{Use: "admin", Short: "Admin bypass operations (admin token required)"}

	overviewCmd := &cobra.Command{
		Use:   "overview",
		Short: "Dump all relations and profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/admin/overview", apiFlag))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	adminCmd.AddCommand(overviewCmd)

	var patientID, therapistID, content string
	getNoteCmd := &cobra.Command{
		Use:   "note",
		Short: "Read a patient note without access checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if patientID == "" {
				return fmt.Errorf("--patient required")
			}
			data, err := doGet(fmt.Sprintf("%s/api/admin/notes?patientId=%s", apiFlag, patientID))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	getNoteCmd.Flags().StringVarP(&patientID, "patient", "p", "", "Patient ID (required)")
	_ = getNoteCmd.MarkFlagRequired("patient")
	adminCmd.AddCommand(getNoteCmd)

	saveNoteCmd := &cobra.Command{
		Use:   "save-note",
		Short: "Write a patient note without access checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if patientID == "" || content == "" {
				return fmt.Errorf("--patient and --content required")
			}
			payload := map[string]string{"patientId": patientID, "content": content}
			if therapistID != "" {
				payload["therapistId"] = therapistID
			}
			data, err := doPostJSON(fmt.Sprintf("%s/api/admin/notes", apiFlag), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	saveNoteCmd.Flags().StringVarP(&patientID, "patient", "p", "", "Patient ID (required)")
	saveNoteCmd.Flags().StringVarP(&therapistID, "therapist", "d", "", "Therapist ID to attribute")
	saveNoteCmd.Flags().StringVarP(&content, "content", "c", "", "Note content (required)")
	_ = saveNoteCmd.MarkFlagRequired("patient")
	_ = saveNoteCmd.MarkFlagRequired("content")
	adminCmd.AddCommand(saveNoteCmd)

	addLinkCmd := &cobra.Command{
		Use:   "add-link",
		Short: "Create a therapist-patient relation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if patientID == "" || therapistID == "" {
				return fmt.Errorf("--patient and --therapist required")
			}
			data, err := doPostJSON(fmt.Sprintf("%s/api/admin/links", apiFlag),
				map[string]string{"patientId": patientID, "therapistId": therapistID})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	addLinkCmd.Flags().StringVarP(&patientID, "patient", "p", "", "Patient ID (required)")
	addLinkCmd.Flags().StringVarP(&therapistID, "therapist", "d", "", "Therapist ID (required)")
	_ = addLinkCmd.MarkFlagRequired("patient")
	_ = addLinkCmd.MarkFlagRequired("therapist")
	adminCmd.AddCommand(addLinkCmd)

	rootCmd.AddCommand(adminCmd)
}
