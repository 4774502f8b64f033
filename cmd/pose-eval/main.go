// Command pose-eval scores marker detection and tracking output against
// ground truth reconstructed from hand-labelled marker corners, and
// aggregates the scores into comparison tables.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/valeriodiste/shared-app/internal/version"
)

func main() {
	flag.Usage = func() { printUsage(os.Stdout) }
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	command := flag.Arg(0)
	if err := dispatch(command, flag.Args()[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("%s: %v", command, err)
	}
}

var errUnknownCommand = errors.New("unknown command")

func dispatch(command string, args []string, stdin io.Reader, stdout io.Writer) error {
	switch command {
	case "errors":
		return handleErrors(args, stdout)
	case "tables":
		return handleTables(args, stdout)
	case "run":
		return handleRun(args, stdout)
	case "pose":
		return handlePose(args, stdout)
	case "runs":
		return handleRuns(args, stdout)
	case "export":
		return handleExport(args, stdout)
	case "migrate":
		return handleMigrate(args, stdin, stdout)
	case "version":
		fmt.Fprintf(stdout, "pose-eval %s (commit %s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return nil
	case "help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(stdout, "Unknown command: %s\n\n", command)
		printUsage(stdout)
		return fmt.Errorf("%w %q", errUnknownCommand, command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `pose-eval - marker pose evaluation

Usage: pose-eval <command> [options]

Commands:
  errors     Reconstruct ground truth and score detection/tracking results
  tables     Aggregate error files into tabular data, CSV and printed tables
  run        errors followed by tables
  pose       Reconstruct one pose from four corners given on the command line
  runs       List archived runs, or summarise one with -id
  export     Write an archived run's per-frame errors as CSV, one file per algorithm
  migrate    Manage the archive database schema (see: pose-eval migrate help)
  version    Show version information
  help       Show this help message

Common Flags (errors, tables, run):
  -config <file>     Evaluation config JSON (see config/evaluation.defaults.json)
  -samples <dir>     Samples directory (default: Samples)
  -results <dir>     Results directory (default: Results)
  -db <path>         Archive runs into this SQLite database
  -workers <n>       Concurrent sample evaluations, 0 for one per CPU

Examples:
  pose-eval run -samples Samples -results Results
  pose-eval tables -results Results -text-out tables.txt
  pose-eval pose -corners "0,0;1080,0;0,1920;1080,1920" -width 0.2 -height 0.2
  pose-eval migrate -db archive.db up
`)
}
