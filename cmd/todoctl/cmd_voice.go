package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/Vovarama1992/voicetodo/internal/client"
	"github.com/Vovarama1992/voicetodo/internal/domain/stations"
	"github.com/spf13/cobra"
)

func newTranscribeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Send an audio file to the server and print the transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := client.NewUploader(a.cfg.ServerURL, a.cfg.UploadTimeout, a.log)
			if text := u.SendAudio(cmd.Context(), args[0]); text != "" {
				fmt.Fprintln(cmd.OutOrStdout(), text)
			}
			return nil
		},
	}
}

func newRecordCommand(a *app) *cobra.Command {
	var (
		add  bool
		date string
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the microphone until Enter, then transcribe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := client.NewRecorder(client.RecorderOptions{
				FFmpegPath:  a.cfg.FFmpegPath,
				InputFormat: a.cfg.InputFormat,
				InputDevice: a.cfg.InputDevice,
				Container:   a.cfg.Container,
			})

			if err := rec.Start(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "recording... press Enter to stop")
			_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')

			path, err := rec.Stop()
			if err != nil {
				return err
			}
			defer os.Remove(path)

			u := client.NewUploader(a.cfg.ServerURL, a.cfg.UploadTimeout, a.log)
			text := u.SendAudio(cmd.Context(), path)
			if text == "" {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)

			if add && text != stations.NoTranscription {
				task, err := a.tasks.Add(cmd.Context(), text, date)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", formatTask(task))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&add, "add", false, "add the transcript as a task")
	cmd.Flags().StringVar(&date, "date", "", "date for the added task (default today)")
	return cmd
}
