package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/routeset/pkg/config"
)

type importFlags struct {
	output string
}

var importFlagVals importFlags

var importOpenAPICmd = &cobra.Command{
	Use:   "import-openapi <spec>",
	Short: "Create a route file from an OpenAPI 3 document",
	Long: `Create a route file from an OpenAPI 3 document (YAML or JSON).

Each operation becomes one route restricted to its method. The operationId
becomes the route ID, required query parameters become presence checks, and
the lowest 2xx response supplies the status code and, when the document has a
JSON example, the body.`,
	Example: `  # Print the routes as YAML
  routeset import-openapi petstore.yaml

  # Write them to a file (YAML or JSON by extension)
  routeset import-openapi petstore.yaml -o routes.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runImportOpenAPI,
}

func init() {
	importOpenAPICmd.Flags().StringVarP(&importFlagVals.output, "output", "o", "", "Output file (default: stdout as YAML)")
	rootCmd.AddCommand(importOpenAPICmd)
}

func runImportOpenAPI(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read OpenAPI document: %w", err)
	}
	file, err := config.ImportOpenAPI(data)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	out := importFlagVals.output
	if out == "" {
		if jsonOutput {
			return printResult(w, file, nil)
		}
		b, err := yaml.Marshal(file)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}

	if err := config.SaveToFile(out, file); err != nil {
		return err
	}
	return printResult(w, map[string]any{"output": out, "routes": len(file.Routes)}, func() {
		fmt.Fprintf(w, "Imported %d routes to %s\n", len(file.Routes), out)
	})
}
