// Command textreader reads delimited text into fixed-width rows and prints,
// profiles or exports them.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	// Registers kafka://; s3:// and gs:// come with the objectstore import
	_ "github.com/ajitpratap0/textreader/pkg/source/kafka"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "textreader",
		Short: "Read delimited text into typed fixed-width rows",
		Long: `textreader tokenizes delimited text, infers or applies a record type and
converts every row into packed binary form. Inputs may be local files
(optionally compressed), s3:// or gs:// objects, or kafka:// partitions.

Every flag can also be set through a TEXTREADER_<FLAG> environment variable,
for example TEXTREADER_DELIMITER=";" or TEXTREADER_MAX_ROWS=100.`,
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "textreader v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newReadCmd())
	root.AddCommand(newInferCmd())

	return root
}
