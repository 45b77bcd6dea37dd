package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	patientsCmd := &cobra.Command{Use: "patients", Short: "Patient-scoped operations"}

	// sessions
	sessionsCmd := &cobra.Command{
		Use:   "sessions PATIENT_ID",
		Short: "List a patient's chat sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/patients/%s/sessions", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	patientsCmd.AddCommand(sessionsCmd)

	var title string
	newSessionCmd := &cobra.Command{
		Use:   "new-session PATIENT_ID",
		Short: "Start a new chat session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload interface{}
			if title != "" {
				payload = map[string]string{"title": title}
			}
			data, err := doPostJSON(fmt.Sprintf("%s/api/patients/%s/sessions", apiFlag, args[0]), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	newSessionCmd.Flags().StringVar(&title, "title", "", "Session title")
	patientsCmd.AddCommand(newSessionCmd)

	// messages
	var afterSeq int64
	var limit int
	messagesCmd := &cobra.Command{
		Use:   "messages SESSION_ID",
		Short: "List a session's messages in seq order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/api/sessions/%s/messages?afterSeq=%s", apiFlag, args[0], strconv.FormatInt(afterSeq, 10))
			if limit > 0 {
				url += "&limit=" + strconv.Itoa(limit)
			}
			data, err := doGet(url)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	messagesCmd.Flags().Int64Var(&afterSeq, "after-seq", 0, "Only messages with seq greater than this")
	messagesCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of messages")
	patientsCmd.AddCommand(messagesCmd)

	// moods
	var score int
	var note string
	logMoodCmd := &cobra.Command{
		Use:   "log-mood PATIENT_ID",
		Short: "Log a mood score (1-5)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"moodScore": score}
			if note != "" {
				payload["note"] = note
			}
			data, err := doPostJSON(fmt.Sprintf("%s/api/patients/%s/moods", apiFlag, args[0]), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	logMoodCmd.Flags().IntVarP(&score, "score", "s", 0, "Mood score 1-5 (required)")
	logMoodCmd.Flags().StringVarP(&note, "note", "n", "", "Optional note")
	_ = logMoodCmd.MarkFlagRequired("score")
	patientsCmd.AddCommand(logMoodCmd)

	moodsCmd := &cobra.Command{
		Use:   "moods PATIENT_ID",
		Short: "List a patient's mood logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/patients/%s/moods", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	patientsCmd.AddCommand(moodsCmd)

	moodDataCmd := &cobra.Command{
		Use:   "mood-data PATIENT_ID",
		Short: "List a patient's daily mood averages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/patients/%s/mood-data", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	patientsCmd.AddCommand(moodDataCmd)

	// note
	getNoteCmd := &cobra.Command{
		Use:   "note PATIENT_ID",
		Short: "Get the clinical note for a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/api/patients/%s/note", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	patientsCmd.AddCommand(getNoteCmd)

	var content string
	putNoteCmd := &cobra.Command{
		Use:   "save-note PATIENT_ID",
		Short: "Save the clinical note for a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if content == "" {
				return fmt.Errorf("--content required")
			}
			data, err := doPutJSON(fmt.Sprintf("%s/api/patients/%s/note", apiFlag, args[0]),
				map[string]string{"content": content})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	putNoteCmd.Flags().StringVarP(&content, "content", "c", "", "Note content (required)")
	_ = putNoteCmd.MarkFlagRequired("content")
	patientsCmd.AddCommand(putNoteCmd)

	rootCmd.AddCommand(patientsCmd)
}
