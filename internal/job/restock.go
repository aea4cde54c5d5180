package job

import (
	"context"
	"errors"
)

const NameRestock = "restock"

const restockMutation = `mutation {
	updateLowStockProducts {
		success
		message
		updatedProducts { name stock }
	}
}`

type Restock struct {
	client GraphQLClient
	sink   *Sink
}

func NewRestock(client GraphQLClient, sink *Sink) *Restock {
	return &Restock{client: client, sink: sink}
}

func (r *Restock) Name() string { return NameRestock }

func (r *Restock) Sink() *Sink { return r.sink }

func (r *Restock) Run(ctx context.Context) error {
	var out struct {
		UpdateLowStockProducts struct {
			Success         bool   `json:"success"`
			Message         string `json:"message"`
			UpdatedProducts []struct {
				Name  string `json:"name"`
				Stock int    `json:"stock"`
			} `json:"updatedProducts"`
		} `json:"updateLowStockProducts"`
	}
	if err := r.client.Query(ctx, restockMutation, nil, &out); err != nil {
		return err
	}

	result := out.UpdateLowStockProducts
	if !result.Success {
		return errors.New(result.Message)
	}
	for _, p := range result.UpdatedProducts {
		r.sink.Printf("%s restocked, new stock: %d", p.Name, p.Stock)
	}
	r.sink.Print(result.Message)
	return nil
}
