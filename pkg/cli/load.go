package cli

import (
	"fmt"
	"strings"

	"github.com/getmockd/routeset/pkg/config"
)

// loadRoutes loads a single route file, or every file matching a glob.
func loadRoutes(path string) (*config.RouteFile, error) {
	if path == "" {
		return nil, fmt.Errorf("a route file is required (-c)")
	}
	if isGlob(path) {
		return config.LoadGlob(path)
	}
	return config.LoadFromFile(path)
}

func isGlob(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}
