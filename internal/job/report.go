package job

import (
	"context"
)

const NameReport = "report"

const reportQuery = `{
	allCustomers { totalCount }
	allOrders { totalCount totalRevenue }
}`

// Report 每週彙總客戶數, 訂單數與營收
type Report struct {
	client GraphQLClient
	sink   *Sink
}

func NewReport(client GraphQLClient, sink *Sink) *Report {
	return &Report{client: client, sink: sink}
}

func (r *Report) Name() string { return NameReport }

func (r *Report) Sink() *Sink { return r.sink }

func (r *Report) Run(ctx context.Context) error {
	var out struct {
		AllCustomers struct {
			TotalCount int `json:"totalCount"`
		} `json:"allCustomers"`
		AllOrders struct {
			TotalCount   int    `json:"totalCount"`
			TotalRevenue string `json:"totalRevenue"`
		} `json:"allOrders"`
	}
	if err := r.client.Query(ctx, reportQuery, nil, &out); err != nil {
		return err
	}

	r.sink.Printf("Report: %d customers, %d orders, %s revenue",
		out.AllCustomers.TotalCount, out.AllOrders.TotalCount, out.AllOrders.TotalRevenue)
	return nil
}
