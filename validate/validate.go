// Command validate lints board layout files (*.json, *.yaml, *.yml) in a
// directory, "layouts" by default. It checks:
//   - JSON/YAML structure and the required name
//   - an 8x8 grid of known piece letters (R, C, D upper or lower case, '.' empty)
//   - at least one piece for each side
//   - mirror symmetry between the sides (warning only)
//
// Usage: go run ./validate [dir]
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/casta-game/game/config"
	"github.com/wricardo/casta-game/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
}

// validateLayout loads and validates a single layout file
func validateLayout(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	layout, err := config.ReadLayoutFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	board, err := layout.Board()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	sides := validateSides(board)
	if !sides.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, sides.Errors...)
		return result
	}

	if !board.IsMirrored() {
		result.Warnings = append(result.Warnings, "Sides are not mirror images of each other")
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", layout.Name))
	result.Errors = append(result.Errors, sides.Errors...)
	if board.IsMirrored() {
		result.Errors = append(result.Errors, "✓ Mirrored")
	}

	return result
}

// validateSides requires at least one piece per side and reports the counts
func validateSides(board engine.Board) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	counts := engine.PieceCounts(board)
	var missing []string
	for _, side := range []engine.Side{engine.White, engine.Black} {
		total := board.Count(side)
		if total == 0 {
			missing = append(missing, string(side))
			continue
		}
		c := counts[side]
		result.Errors = append(result.Errors, fmt.Sprintf("✓ %s: %d (R:%d C:%d D:%d)",
			side, total, c[engine.Rook], c[engine.Casta], c[engine.Dragon]))
	}

	if len(missing) > 0 {
		result.Valid = false
		result.Errors = []string{fmt.Sprintf("No pieces for %s", strings.Join(missing, " and "))}
	}

	return result
}

// layoutFiles lists layout files in dir sorted by name
func layoutFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates every layout file in the directory, printing a concise
// report and exiting with non-zero status if any are invalid.
func main() {
	dir := "layouts"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := layoutFiles(dir)
	if err != nil {
		fmt.Printf("Error finding layout files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No layout files found in %s\n", dir)
		return
	}

	allValid := true
	for _, file := range files {
		result := validateLayout(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
			for _, warning := range result.Warnings {
				fmt.Println("  ⚠️  " + warning)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All layouts are valid!")
	} else {
		fmt.Println("❌ Some layouts have errors")
		os.Exit(1)
	}
}
