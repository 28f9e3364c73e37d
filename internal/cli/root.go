package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "run":
		return runRedact(args[1:])
	case "ui":
		return runUI(args[1:])
	case "settings":
		return runSettings(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("phi-redact: write sanitized copies of text files with PHI values replaced by [REDACTED]")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  phi-redact run --out <dir> notes.txt more.txt")
	fmt.Println("  phi-redact ui")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run       sanitize files into an output folder and print the status transcript")
	fmt.Println("  ui        interactive picker for files and output folder")
	fmt.Println("  settings  show/update persisted defaults")
	fmt.Println("  doctor    run config, redactor and filesystem preflight checks")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Output files are named <stem>_sanitized<ext>; inputs are never modified")
	fmt.Println("  - Use --json on run/settings/doctor for machine-readable output")
	fmt.Println("  - Settings can be overridden with PHI_REDACT_<KEY> environment variables")
}
