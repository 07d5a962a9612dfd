package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/getmockd/routeset/pkg/config"
	"github.com/getmockd/routeset/pkg/endpoint"
)

type addFlags struct {
	configPath string
	id         string
	name       string
	path       string
	method     string
	status     int
	body       string
}

var addFlagVals addFlags

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a route to a route file",
	Long: `Add a route to a route file, creating the file if it does not exist.

Without --path, the route is described in an interactive form. The file is
validated before it is written, so a route that would break it is rejected.`,
	Example: `  # Interactive
  routeset add -c routes.yaml

  # Scripted
  routeset add -c routes.yaml --id health --path /health --status 204`,
	RunE: runAdd,
}

func init() {
	f := &addFlagVals
	addCmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Route file to add to (YAML or JSON) [required]")
	addCmd.Flags().StringVar(&f.id, "id", "", "Route ID (generated at load time when empty)")
	addCmd.Flags().StringVar(&f.name, "name", "", "Route display name")
	addCmd.Flags().StringVar(&f.path, "path", "", "Path template to match, e.g. /users/{id}")
	addCmd.Flags().StringVarP(&f.method, "method", "X", "", "HTTP method to match (default: any)")
	addCmd.Flags().IntVar(&f.status, "status", http.StatusOK, "Response status code")
	addCmd.Flags().StringVar(&f.body, "body", "", "Response body")
	_ = addCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	f := &addFlagVals

	if !cmd.Flags().Changed("path") {
		if err := f.prompt(); err != nil {
			return err
		}
	}

	file, err := loadOrCreate(f.configPath)
	if err != nil {
		return err
	}
	file.Routes = append(file.Routes, f.route())
	if err := file.Validate(); err != nil {
		return err
	}
	if err := config.SaveToFile(f.configPath, file); err != nil {
		return err
	}

	label := f.id
	if label == "" {
		label = f.path
	}
	w := cmd.OutOrStdout()
	return printResult(w, map[string]any{"file": f.configPath, "id": f.id, "routes": len(file.Routes)}, func() {
		fmt.Fprintf(w, "Added route %s to %s (%d routes)\n", label, f.configPath, len(file.Routes))
	})
}

func (f *addFlags) prompt() error {
	status := strconv.Itoa(f.status)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What is the URL path to match?").
				Placeholder("/api/v1/users/{id}").
				Value(&f.path).
				Validate(func(s string) error {
					if !strings.HasPrefix(s, "/") {
						return errors.New("path must start with /")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("What HTTP method should it match?").
				Options(
					huh.NewOption("Any", ""),
					huh.NewOption("GET", http.MethodGet),
					huh.NewOption("POST", http.MethodPost),
					huh.NewOption("PUT", http.MethodPut),
					huh.NewOption("PATCH", http.MethodPatch),
					huh.NewOption("DELETE", http.MethodDelete),
				).
				Value(&f.method),
			huh.NewInput().
				Title("Route ID (optional)").
				Value(&f.id),
			huh.NewInput().
				Title("What status code should it return?").
				Value(&status).
				Validate(func(s string) error {
					code, err := strconv.Atoi(s)
					if err != nil || code < 100 || code > 599 {
						return errors.New("status must be a number between 100 and 599")
					}
					return nil
				}),
			huh.NewText().
				Title("Response body").
				Placeholder(`{"id": "{id}"}`).
				Value(&f.body),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	f.status, _ = strconv.Atoi(status)
	return nil
}

func (f *addFlags) route() config.RouteConfig {
	r := config.RouteConfig{
		ID:       f.id,
		Name:     f.name,
		Path:     f.path,
		Response: &endpoint.Response{StatusCode: f.status, Body: f.body},
	}
	if f.method != "" {
		r.Methods = []string{strings.ToUpper(f.method)}
	}
	return r
}

// loadOrCreate loads path, or returns an empty route file when it does not
// exist yet.
func loadOrCreate(path string) (*config.RouteFile, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &config.RouteFile{Version: config.CurrentVersion}, nil
	}
	return config.LoadFromFile(path)
}
