package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/getmockd/routeset/pkg/config"
)

type validateFlags struct {
	configPath string
}

var validateFlagVals validateFlags

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate route files without serving them",
	Long: `Validate route files without serving them.

A single file is checked against the route file JSON Schema and then against
the routing rules: well-formed paths, unique IDs, known fan-out targets, and
expressions and JSONPath conditions that compile. A glob merges every matching
file first, so fan-outs may cross files.`,
	Example: `  # Validate one file
  routeset validate -c routes.yaml

  # Validate a directory tree of route files as one table
  routeset validate -c 'routes/**/*.yaml'`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateFlagVals.configPath, "config", "c", "", "Route file or glob (YAML or JSON) [required]")
	_ = validateCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(validateCmd)
}

type validateResult struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Routes int      `json:"routes"`
	Errors []string `json:"errors,omitempty"`
}

func runValidate(cmd *cobra.Command, _ []string) error {
	path := validateFlagVals.configPath
	result := validateResult{File: path}

	verrs, routes, err := validatePath(path)
	if err != nil {
		return err
	}
	result.Routes = routes
	result.Valid = len(verrs) == 0
	for _, e := range verrs {
		result.Errors = append(result.Errors, e.Error())
	}

	w := cmd.OutOrStdout()
	if err := printResult(w, result, func() { printValidation(w, result) }); err != nil {
		return err
	}
	if !result.Valid {
		return ErrValidationFailed
	}
	return nil
}

// validatePath returns the problems found in path and, when there are none,
// the number of routes.
func validatePath(path string) (config.ValidationErrors, int, error) {
	if isGlob(path) {
		file, err := config.LoadGlob(path)
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			return verrs, 0, nil
		}
		if err != nil {
			return nil, 0, err
		}
		return nil, len(file.Routes), nil
	}

	verrs, err := config.ValidateFile(path)
	if err != nil || len(verrs) > 0 {
		return verrs, 0, err
	}
	file, err := config.LoadFromFile(path)
	if err != nil {
		return nil, 0, err
	}
	return nil, len(file.Routes), nil
}

func printValidation(w io.Writer, r validateResult) {
	if r.Valid {
		fmt.Fprintf(w, "%s is valid (%d routes)\n", r.File, r.Routes)
		return
	}
	fmt.Fprintf(w, "%s has %d problem(s):\n", r.File, len(r.Errors))
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  - %s\n", e)
	}
}
