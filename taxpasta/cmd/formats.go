package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Doomsbay/TaxPasta/taxpasta/profile"
)

func runFormats(args []string) {
	fs := flag.NewFlagSet("formats", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fatalf("parse args failed: %v", err)
	}
	printFormats(os.Stdout)
}

func printFormats(w io.Writer) {
	for _, f := range profile.Formats() {
		fmt.Fprintln(w, f)
	}
}

func formatList() string {
	names := make([]string, 0, len(profile.Formats()))
	for _, f := range profile.Formats() {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}
