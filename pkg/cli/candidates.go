package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/cli/internal/output"
	"github.com/getmockd/routeset/pkg/endpoint"
	"github.com/getmockd/routeset/pkg/routetable"
)

type candidatesFlags struct {
	configPath string
	path       string
}

var candidatesFlagVals candidatesFlags

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Show the ordered candidates of a route table",
	Long: `Show the route table built from a route file: every routable endpoint in
precedence order with its score. Lower scores win; endpoints that are equally
specific share a score.

With --path, show only the candidate set a request for that path starts
with, before any policy runs.`,
	Example: `  # Whole table
  routeset candidates -c routes.yaml

  # Candidates for one path
  routeset candidates -c routes.yaml --path /users/42`,
	RunE: runCandidates,
}

func init() {
	f := &candidatesFlagVals
	candidatesCmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Route file or glob (YAML or JSON) [required]")
	candidatesCmd.Flags().StringVar(&f.path, "path", "", "Request path to look up")
	_ = candidatesCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(candidatesCmd)
}

type candidateRow struct {
	Index    int             `json:"index"`
	Score    int             `json:"score"`
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Template string          `json:"template"`
	Kind     string          `json:"kind,omitempty"`
	State    string          `json:"state,omitempty"`
	Values   endpoint.Values `json:"values,omitempty"`
}

func runCandidates(cmd *cobra.Command, _ []string) error {
	f := &candidatesFlagVals

	file, err := loadRoutes(f.configPath)
	if err != nil {
		return err
	}
	table, err := routetable.Build(file.Endpoints().Routes)
	if err != nil {
		return err
	}

	var rows []candidateRow
	if f.path == "" {
		for i, c := range table.Candidates() {
			rows = append(rows, candidateRow{
				Index:    i,
				Score:    c.Score,
				ID:       c.Endpoint.ID,
				Name:     c.Endpoint.DisplayName,
				Template: c.Endpoint.Template(),
				Kind:     table.Kind(i),
			})
		}
	} else {
		set, err := table.Lookup(f.path)
		if err != nil {
			return err
		}
		rows = setRows(set)
	}

	w := cmd.OutOrStdout()
	return printResult(w, rows, func() { printCandidates(w, rows, f.path != "") })
}

func setRows(set *candidate.Set) []candidateRow {
	rows := make([]candidateRow, 0, set.Count())
	for i, st := range set.All() {
		row := candidateRow{Index: i, Score: st.Score, State: stateLabel(st), Values: st.Values}
		if st.Endpoint != nil {
			row.ID = st.Endpoint.ID
			row.Name = st.Endpoint.DisplayName
			row.Template = st.Endpoint.Template()
		}
		rows = append(rows, row)
	}
	return rows
}

func stateLabel(st *candidate.State) string {
	switch {
	case st.Endpoint == nil:
		return "tombstone"
	case st.Valid():
		return "valid"
	default:
		return "invalid"
	}
}

func printCandidates(w io.Writer, rows []candidateRow, withState bool) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No candidates")
		return
	}

	tw := output.Table(w)
	if withState {
		fmt.Fprintln(tw, "INDEX\tSCORE\tSTATE\tID\tTEMPLATE\tVALUES")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", r.Index, r.Score, output.Label(r.State), r.ID, r.Template, formatValues(r.Values))
		}
	} else {
		fmt.Fprintln(tw, "INDEX\tSCORE\tKIND\tID\tTEMPLATE")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", r.Index, r.Score, output.Label(r.Kind), r.ID, r.Template)
		}
	}
	_ = tw.Flush()
}
