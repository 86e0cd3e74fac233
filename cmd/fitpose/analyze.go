package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jonnydevp/FitPose/internal/analysis"
	"github.com/Jonnydevp/FitPose/internal/exercise"
)

func newAnalyzeCmd(envFile *string) *cobra.Command {
	var (
		label   string
		rawJSON bool
	)

	cmd := &cobra.Command{
		Use:   "analyze --exercise <label> <video>",
		Short: "Analyze one video file and print the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			client := analysis.NewClient(cfg.Analysis.BaseURL(), cfg.Analysis.Timeout)
			ctrl := analysis.NewController(client, analysis.WithTimeout(cfg.Analysis.Timeout))
			defer ctrl.Close()

			return analyzeFile(cmd.Context(), cmd.OutOrStdout(), ctrl, label, args[0], rawJSON)
		},
	}
	cmd.Flags().StringVarP(&label, "exercise", "e", "", "exercise label, see `fitpose exercises`")
	cmd.Flags().BoolVar(&rawJSON, "json", false, "print the service response as JSON")
	_ = cmd.MarkFlagRequired("exercise")
	return cmd
}

func newExercisesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exercises",
		Short: "List the supported exercises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, label := range exercise.Labels() {
				fmt.Fprintln(cmd.OutOrStdout(), label)
			}
			return nil
		},
	}
}

// analyzeFile drives ctrl through one submission the way the upload page does.
func analyzeFile(ctx context.Context, out io.Writer, ctrl *analysis.Controller, label, path string, rawJSON bool) error {
	if err := ctrl.SelectExercise(label); err != nil {
		return fmt.Errorf("%w (run `fitpose exercises` for the list)", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat video: %w", err)
	}
	mimeType, err := detectMIMEType(f)
	if err != nil {
		return err
	}

	file := &analysis.File{
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MIMEType: mimeType,
		Content:  f,
	}
	if err := ctrl.SelectFile(file); err != nil {
		var aerr *analysis.Error
		if errors.As(err, &aerr) {
			return errors.New(aerr.Message)
		}
		return err
	}

	snap, err := ctrl.Wait(ctx)
	if err != nil {
		return err
	}
	if snap.State == analysis.StateFailed {
		return errors.New(snap.ErrorMessage)
	}

	if rawJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Result)
	}

	fmt.Fprintln(out, "Analysis Complete!")
	fmt.Fprintf(out, "Your %s form has been analyzed.\n", snap.Exercise.Lower())
	for _, line := range snap.Result.Summary() {
		fmt.Fprintf(out, "  %s: %s\n", line.Label, line.Value)
	}
	return nil
}

// videoTypes covers containers missing from Go's built-in MIME table, which
// cannot be sniffed either.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
}

// detectMIMEType trusts the file extension first, then sniffs the content.
func detectMIMEType(f *os.File) (string, error) {
	ext := strings.ToLower(filepath.Ext(f.Name()))
	if t, ok := videoTypes[ext]; ok {
		return t, nil
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t, nil
	}

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read video: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind video: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}
