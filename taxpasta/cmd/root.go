package cmd

import (
	"fmt"
	"os"
)

func Execute(args []string) {
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "standardise", "standardize":
		runStandardise(args[1:])
	case "check":
		runCheck(args[1:])
	case "formats":
		runFormats(args[1:])
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "taxpasta - standardise taxonomic profiles")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  taxpasta <command> [options]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  standardise  Standardise one profile to taxonomy_id/count")
	fmt.Fprintln(os.Stderr, "  check        Validate many profiles in parallel")
	fmt.Fprintln(os.Stderr, "  formats      List supported profilers")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Run 'taxpasta <command> -h' for command-specific options.")
}
