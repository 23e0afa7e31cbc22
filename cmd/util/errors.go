package util

import (
	"context"
	"math"
	"os"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bacalhau-project/cryri/cmd/util/output"
)

const errorPrefix = "Error: "

// ErrorSummary flattens err into a single line.
func ErrorSummary(err error) string {
	return strings.Join(strings.Fields(err.Error()), " ")
}

// PrintErr prints a one line error summary in red, wrapped and indented to
// the width of the terminal when stderr is one.
func PrintErr(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	msg := ErrorSummary(err)
	if msg == "" {
		return
	}

	terminalWidth, _, termErr := term.GetSize(int(os.Stderr.Fd()))
	if termErr != nil || terminalWidth <= len(errorPrefix) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		log.Ctx(ctx).Trace().Err(termErr).Msg("failed to get terminal size")
		terminalWidth = math.MaxInt32
	}

	lines := strings.Split(wordwrap.WrapString(msg, uint(terminalWidth-len(errorPrefix))), "\n")
	for i, line := range lines {
		prefix := errorPrefix
		if i > 0 {
			prefix = strings.Repeat(" ", len(errorPrefix))
		}
		cmd.PrintErrln(output.RedStr(prefix + line))
	}
}
