package graph

import (
	"context"

	"github.com/graphql-go/graphql"
)

// Request POST /graphql 的 body
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}

type Executor struct {
	schema graphql.Schema
}

func NewExecutor(schema graphql.Schema) *Executor {
	return &Executor{schema: schema}
}

func (e *Executor) Execute(ctx context.Context, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         e.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}
