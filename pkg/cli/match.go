package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/routeset/pkg/cli/internal/flags"
	"github.com/getmockd/routeset/pkg/endpoint"
	"github.com/getmockd/routeset/pkg/matcher"
	"github.com/getmockd/routeset/pkg/selector"
)

type matchFlags struct {
	configPath string
	method     string
	path       string
	host       string
	headers    flags.Header
	body       string
	bodyFile   string
	jwtSecret  string
	strict     bool
	explain    bool
}

var matchFlagVals matchFlags

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Route a single request and show which endpoint wins",
	Long: `Route a single request through the route table and policies without
starting a server, and print the winning endpoint with its values.

With --explain, also print the final candidate set: every slot with its
score and whether it is still valid. Exits non-zero when nothing matches.`,
	Example: `  # Plain GET
  routeset match -c routes.yaml --path /users/42

  # Headers, host and a JSON body
  routeset match -c routes.yaml --method POST --path /orders \
    --host api.example.com -H 'Content-Type: application/json' \
    --body '{"priority":"high"}'

  # Show the candidate set after all policies ran
  routeset match -c routes.yaml --path /users/42 --explain`,
	RunE: runMatch,
}

func init() {
	f := &matchFlagVals
	matchCmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Route file or glob (YAML or JSON) [required]")
	matchCmd.Flags().StringVarP(&f.method, "method", "X", http.MethodGet, "Request method")
	matchCmd.Flags().StringVar(&f.path, "path", "", "Request path, optionally with a query string [required]")
	matchCmd.Flags().StringVar(&f.host, "host", "localhost", "Request host")
	matchCmd.Flags().VarP(&f.headers, "header", "H", "Request header \"Name: value\" (repeatable)")
	matchCmd.Flags().StringVarP(&f.body, "body", "d", "", "Request body")
	matchCmd.Flags().StringVar(&f.bodyFile, "body-file", "", "Read the request body from a file")
	matchCmd.Flags().StringVar(&f.jwtSecret, "jwt-secret", "", "HMAC secret for verifying bearer tokens (claims are read unverified without it)")
	matchCmd.Flags().BoolVar(&f.strict, "strict", false, "Fail when the winning score is shared by another valid candidate")
	matchCmd.Flags().BoolVar(&f.explain, "explain", false, "Print the final candidate set")
	_ = matchCmd.MarkFlagRequired("config")
	_ = matchCmd.MarkFlagRequired("path")
	matchCmd.MarkFlagsMutuallyExclusive("body", "body-file")
	rootCmd.AddCommand(matchCmd)
}

type matchResult struct {
	Matched     bool            `json:"matched"`
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name,omitempty"`
	Score       int             `json:"score"`
	Index       int             `json:"index"`
	Values      endpoint.Values `json:"values,omitempty"`
	Error       string          `json:"error,omitempty"`
	Candidates  []candidateRow  `json:"candidates,omitempty"`
	Suggestions []suggestion    `json:"suggestions,omitempty"`
}

type suggestion struct {
	ID       string `json:"id"`
	Template string `json:"template"`
}

// maxSuggestions bounds the templates offered for an unmatched path.
const maxSuggestions = 3

func runMatch(cmd *cobra.Command, _ []string) error {
	f := &matchFlagVals

	file, err := loadRoutes(f.configPath)
	if err != nil {
		return err
	}
	m, err := file.Endpoints().Matcher(matcher.Config{
		Strict:       f.strict,
		ClaimsSecret: []byte(f.jwtSecret),
		Logger:       componentLogger("matcher"),
	})
	if err != nil {
		return err
	}

	req, err := f.request(cmd)
	if err != nil {
		return err
	}

	set, err := m.Explain(req)
	if err != nil {
		return err
	}

	var result matchResult
	if f.explain {
		result.Candidates = setRows(set)
	}

	res, selErr := selector.Select(set, selector.Strict(f.strict))
	var amb *selector.AmbiguousMatchError
	switch {
	case selErr == nil:
		result.Matched = true
		result.ID = res.Endpoint.ID
		result.Name = res.Endpoint.DisplayName
		result.Score = res.Score
		result.Index = res.Index
		result.Values = res.Values
	case errors.Is(selErr, selector.ErrNoMatch):
		result.Error = selErr.Error()
		for _, ep := range m.Table().Suggest(req.URL.Path, maxSuggestions) {
			result.Suggestions = append(result.Suggestions, suggestion{ID: ep.ID, Template: ep.Template()})
		}
	case errors.As(selErr, &amb):
		result.Error = selErr.Error()
	default:
		return selErr
	}

	w := cmd.OutOrStdout()
	if err := printResult(w, result, func() { printMatch(w, req, result) }); err != nil {
		return err
	}
	return selErr
}

func (f *matchFlags) request(cmd *cobra.Command) (*http.Request, error) {
	if !strings.HasPrefix(f.path, "/") {
		return nil, fmt.Errorf("--path must start with /: %q", f.path)
	}

	body := f.body
	if f.bodyFile != "" {
		data, err := os.ReadFile(f.bodyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}
		body = string(data)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), strings.ToUpper(f.method), "http://"+f.host+f.path, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	for k, v := range f.headers.Header() {
		req.Header[k] = v
	}
	return req, nil
}

func printMatch(w io.Writer, req *http.Request, r matchResult) {
	if len(r.Candidates) > 0 {
		printCandidates(w, r.Candidates, true)
		fmt.Fprintln(w)
	}

	if !r.Matched {
		fmt.Fprintf(w, "No match for %s %s: %s\n", req.Method, req.URL.RequestURI(), r.Error)
		if len(r.Suggestions) > 0 {
			fmt.Fprintln(w, "Did you mean:")
			for _, s := range r.Suggestions {
				fmt.Fprintf(w, "  %s (%s)\n", s.Template, s.ID)
			}
		}
		return
	}
	name := r.ID
	if r.Name != "" {
		name = fmt.Sprintf("%s (%s)", r.ID, r.Name)
	}
	fmt.Fprintf(w, "Matched %s\n", name)
	fmt.Fprintf(w, "  score:  %d\n", r.Score)
	fmt.Fprintf(w, "  index:  %d\n", r.Index)
	fmt.Fprintf(w, "  values: %s\n", formatValues(r.Values))
}
