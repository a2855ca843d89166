// Package cli provides the command-line interface for the condor sentinel.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"condor-sentinel/pkg/utils"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && isTerminal(),
	}
}

func isTerminal() bool {
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as indented JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Bold prints a bold line.
func (o *Output) Bold(format string, args ...interface{}) {
	if o.colorEnabled {
		color.New(color.Bold).Fprintf(o.writer, format+"\n", args...)
		return
	}
	fmt.Fprintf(o.writer, format+"\n", args...)
}

// Error prints an error message.
func (o *Output) Error(format string, args ...interface{}) {
	if o.colorEnabled {
		color.New(color.FgRed).Fprintf(o.writer, "Error: "+format+"\n", args...)
		return
	}
	fmt.Fprintf(o.writer, "Error: "+format+"\n", args...)
}

// PnL prints a value colored by sign.
func (o *Output) PnL(value float64) string {
	s := utils.FormatPnL(value)
	if !o.colorEnabled {
		return s
	}
	if value < 0 {
		return color.RedString(s)
	}
	return color.GreenString(s)
}

// StatusString renders a rule or verdict status with color.
func (o *Output) StatusString(status string) string {
	if !o.colorEnabled {
		return status
	}
	switch status {
	case "PASS", "GO":
		return color.GreenString(status)
	case "FAIL", "NO_GO":
		return color.RedString(status)
	case "WARN":
		return color.YellowString(status)
	default:
		return status
	}
}
