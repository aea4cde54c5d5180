package job

import (
	"context"
)

const NameHeartbeat = "heartbeat"

// Heartbeat 寫入存活訊息並探測 GraphQL endpoint
type Heartbeat struct {
	client GraphQLClient
	sink   *Sink
}

func NewHeartbeat(client GraphQLClient, sink *Sink) *Heartbeat {
	return &Heartbeat{client: client, sink: sink}
}

func (h *Heartbeat) Name() string { return NameHeartbeat }

func (h *Heartbeat) Sink() *Sink { return h.sink }

// Run endpoint 失敗只記錄, 不視為 job 失敗
func (h *Heartbeat) Run(ctx context.Context) error {
	h.sink.Print("CRM is alive")

	var out struct {
		Hello string `json:"hello"`
	}
	if err := h.client.Query(ctx, `{ hello }`, nil, &out); err != nil {
		h.sink.Printf("GraphQL endpoint error: %v", err)
		return nil
	}
	h.sink.Printf("GraphQL endpoint responded: %s", out.Hello)
	return nil
}
