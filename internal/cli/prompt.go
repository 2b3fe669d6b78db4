package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gardiner-lab/seq-downloader/internal/conflict"
)

// errAborted is returned when the user chooses to abort at a conflict prompt.
var errAborted = errors.New("aborted by user")

// promptConflict asks the user what to do about an existing output file.
// The bool result reports whether the choice applies to the whole batch.
func promptConflict(accession, existing string) (conflict.Decision, bool, error) {
	fmt.Printf("\n⚠️  Output for '%s' already exists: %s\n", accession, existing)
	fmt.Println("What would you like to do?")
	fmt.Println("  1. Skip (once) - Keep the existing file, skip this accession")
	fmt.Println("  2. Skip (do for all) - Keep all existing files")
	fmt.Println("  3. Overwrite (once) - Replace this file, prompt for next")
	fmt.Println("  4. Overwrite (do for all) - Replace all existing files")
	fmt.Println("  5. Rename (once) - Keep both, download under a new name")
	fmt.Println("  6. Rename (do for all) - Keep both for all conflicts")
	fmt.Println("  7. Abort - Stop the batch")
	fmt.Print("Choose [1-7]: ")

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return 0, false, err
	}

	switch strings.TrimSpace(input) {
	case "1":
		return conflict.DecisionSkip, false, nil
	case "2":
		return conflict.DecisionSkip, true, nil
	case "3":
		return conflict.DecisionOverwrite, false, nil
	case "4":
		return conflict.DecisionOverwrite, true, nil
	case "5":
		return conflict.DecisionRename, false, nil
	case "6":
		return conflict.DecisionRename, true, nil
	case "7":
		return 0, false, errAborted
	default:
		fmt.Println("Invalid choice, please try again.")
		return promptConflict(accession, existing)
	}
}

// promptYesNo asks a yes/no question, with the default used on empty input.
func promptYesNo(question string, def bool) (bool, error) {
	hint := "[Y/n]"
	if !def {
		hint = "[y/N]"
	}
	fmt.Printf("%s %s: ", question, hint)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		fmt.Println("Please answer y or n.")
		return promptYesNo(question, def)
	}
}

// promptString reads one line, returning the default on empty input.
func promptString(question, def string) (string, error) {
	if def != "" {
		fmt.Printf("%s [%s]: ", question, def)
	} else {
		fmt.Printf("%s: ", question)
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return def, nil
	}
	return input, nil
}

// promptInt reads an integer within [min, max], re-prompting on bad input.
func promptInt(question string, def, min, max int) (int, error) {
	fmt.Printf("%s [%d]: ", question, def)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return 0, err
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return def, nil
	}

	n, convErr := strconv.Atoi(input)
	if convErr != nil || n < min || n > max {
		fmt.Printf("Please enter a number between %d and %d.\n", min, max)
		return promptInt(question, def, min, max)
	}
	return n, nil
}
