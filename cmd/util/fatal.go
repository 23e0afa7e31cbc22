package util

import (
	"os"

	"github.com/spf13/cobra"
)

// Fatal reports err and exits with code. Tests swap it for
// FakeFatalErrorHandler.
var Fatal = fatalError

func fatalError(cmd *cobra.Command, err error, code int) {
	PrintErr(cmd, err)
	os.Exit(code)
}

// FakeFatalErrorHandler prints like Fatal but returns instead of exiting.
func FakeFatalErrorHandler(cmd *cobra.Command, err error, _ int) {
	PrintErr(cmd, err)
}
