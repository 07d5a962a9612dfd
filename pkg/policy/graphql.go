package policy

import (
	"strings"

	"github.com/getmockd/routeset/pkg/candidate"
	"github.com/getmockd/routeset/pkg/endpoint"
)

// GraphQLValueKey is the value key the GraphQL policy stores the matched
// operation name under.
const GraphQLValueKey = "operationName"

// GraphQLPolicy invalidates candidates whose GraphQL operation constraints
// do not match the operation the request executes. Requests without a
// parsable GraphQL operation fail every constraint.
type GraphQLPolicy struct{}

func (GraphQLPolicy) Name() string { return "graphql" }
func (GraphQLPolicy) Order() int   { return OrderGraphQL }

func (GraphQLPolicy) AppliesTo(endpoints []*endpoint.Endpoint) bool {
	return anyEndpoint(endpoints, func(ep *endpoint.Endpoint) bool {
		return ep.Metadata.GraphQL != nil
	})
}

func (GraphQLPolicy) Apply(r *Request, set *candidate.Set) error {
	for i, st := range set.All() {
		if !st.Valid() || st.Endpoint.Metadata.GraphQL == nil {
			continue
		}
		want := st.Endpoint.Metadata.GraphQL

		op, ok := r.GraphQL()
		if !ok ||
			(want.OperationName != "" && want.OperationName != op.Name) ||
			(want.OperationType != "" && !strings.EqualFold(want.OperationType, op.Type)) {
			if err := set.SetValidity(i, false); err != nil {
				return err
			}
			continue
		}
		if op.Name != "" {
			v := st.Values.Clone()
			v[GraphQLValueKey] = op.Name
			st.Values = v
		}
	}
	return nil
}
