package matching

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ErrNoGraphQLOperation is returned when a GraphQL document has no
// operation that can be executed.
var ErrNoGraphQLOperation = errors.New("no GraphQL operation")

// GraphQLOperation identifies the operation a GraphQL request executes.
type GraphQLOperation struct {
	Name string
	// Type is "query", "mutation" or "subscription".
	Type string
}

// ParseGraphQLOperation parses query and returns the operation named name,
// or the document's only operation when name is empty. The document is not
// validated against a schema.
func ParseGraphQLOperation(query, name string) (GraphQLOperation, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return GraphQLOperation{}, fmt.Errorf("invalid GraphQL query: %w", err)
	}

	var op *ast.OperationDefinition
	switch {
	case name != "":
		op = doc.Operations.ForName(name)
	case len(doc.Operations) == 1:
		op = doc.Operations[0]
	}
	if op == nil {
		if name != "" {
			return GraphQLOperation{}, fmt.Errorf("%w: %q not found", ErrNoGraphQLOperation, name)
		}
		return GraphQLOperation{}, fmt.Errorf("%w: %d operations and no operation name", ErrNoGraphQLOperation, len(doc.Operations))
	}
	return GraphQLOperation{Name: op.Name, Type: string(op.Operation)}, nil
}
