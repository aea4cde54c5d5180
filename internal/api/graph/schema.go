package graph

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/pkg/fault"
	"github.com/RoyceAzure/lab/crm/internal/service"
	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const Greeting = "Hello, GraphQL!"

// ErrInternal 基礎設施錯誤對外只回這個訊息
var ErrInternal = errors.New("internal error")

type Deps struct {
	Customers service.ICustomerService
	Products  service.IProductService
	Orders    service.IOrderService
	Stock     service.IStockService
	Queries   service.IQueryService
}

func (d Deps) validate() error {
	if d.Customers == nil || d.Products == nil || d.Orders == nil || d.Stock == nil || d.Queries == nil {
		return errors.New("graph dependencies are incomplete")
	}
	return nil
}

type resolver struct {
	Deps
}

// NewSchema 以注入的 service 建立 schema
func NewSchema(deps Deps) (graphql.Schema, error) {
	if err := deps.validate(); err != nil {
		return graphql.Schema{}, err
	}
	r := &resolver{Deps: deps}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"hello": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return Greeting, nil
				},
			},
			"customers": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(customerType))),
				Resolve: r.customers,
			},
			"products": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(productType))),
				Resolve: r.products,
			},
			"orders": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(orderType))),
				Args: graphql.FieldConfigArgument{
					"orderDateGte": &graphql.ArgumentConfig{Type: graphql.DateTime},
				},
				Resolve: r.orders,
			},
			"allCustomers": &graphql.Field{
				Type:    graphql.NewNonNull(customerStatsType),
				Resolve: r.allCustomers,
			},
			"allProducts": &graphql.Field{
				Type:    graphql.NewNonNull(productStatsType),
				Resolve: r.allProducts,
			},
			"allOrders": &graphql.Field{
				Type:    graphql.NewNonNull(orderStatsType),
				Resolve: r.allOrders,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createCustomer": &graphql.Field{
				Type: graphql.NewNonNull(createCustomerPayload),
				Args: graphql.FieldConfigArgument{
					"name":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"phone": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.createCustomer,
			},
			"bulkCreateCustomers": &graphql.Field{
				Type: graphql.NewNonNull(bulkCreateCustomersPayload),
				Args: graphql.FieldConfigArgument{
					"customers": &graphql.ArgumentConfig{
						Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(customerInput))),
					},
				},
				Resolve: r.bulkCreateCustomers,
			},
			"createProduct": &graphql.Field{
				Type: graphql.NewNonNull(createProductPayload),
				Args: graphql.FieldConfigArgument{
					"name":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"price": &graphql.ArgumentConfig{Type: graphql.NewNonNull(Decimal)},
					"stock": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.createProduct,
			},
			"createOrder": &graphql.Field{
				Type: graphql.NewNonNull(createOrderPayload),
				Args: graphql.FieldConfigArgument{
					"customerId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"productIds": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.ID)))},
					"orderDate":  &graphql.ArgumentConfig{Type: graphql.DateTime},
				},
				Resolve: r.createOrder,
			},
			"updateLowStockProducts": &graphql.Field{
				Type:    graphql.NewNonNull(updateLowStockProductsPayload),
				Resolve: r.updateLowStockProducts,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

// hide 記錄真正的錯誤, 使用者錯誤原樣回傳, 其餘換成 ErrInternal
func hide(ctx context.Context, field string, err error) error {
	if fault.IsUserFacing(err) {
		return err
	}
	zerolog.Ctx(ctx).Error().Err(err).Str("field", field).Msg("graphql resolver failed")
	return ErrInternal
}

func payloadMap[T any](recordField string, p *service.Payload[T]) map[string]interface{} {
	out := map[string]interface{}{
		recordField: nil,
		"success":   p.Success,
		"message":   p.Message,
		"errorCode": nil,
	}
	if p.Success {
		out[recordField] = p.Record
	} else {
		out["errorCode"] = p.Kind.String()
	}
	return out
}

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}

func (r *resolver) customers(p graphql.ResolveParams) (interface{}, error) {
	customers, err := r.Queries.ListCustomers(p.Context)
	if err != nil {
		return nil, hide(p.Context, "customers", err)
	}
	return customers, nil
}

func (r *resolver) products(p graphql.ResolveParams) (interface{}, error) {
	products, err := r.Queries.ListProducts(p.Context)
	if err != nil {
		return nil, hide(p.Context, "products", err)
	}
	return products, nil
}

func (r *resolver) orders(p graphql.ResolveParams) (interface{}, error) {
	var since *time.Time
	if t, ok := p.Args["orderDateGte"].(time.Time); ok {
		since = &t
	}
	orders, err := r.Queries.ListOrders(p.Context, since)
	if err != nil {
		return nil, hide(p.Context, "orders", err)
	}
	return orders, nil
}

func (r *resolver) allCustomers(p graphql.ResolveParams) (interface{}, error) {
	n, err := r.Queries.CountCustomers(p.Context)
	if err != nil {
		return nil, hide(p.Context, "allCustomers", err)
	}
	return map[string]interface{}{"totalCount": int(n)}, nil
}

func (r *resolver) allProducts(p graphql.ResolveParams) (interface{}, error) {
	n, err := r.Queries.CountProducts(p.Context)
	if err != nil {
		return nil, hide(p.Context, "allProducts", err)
	}
	return map[string]interface{}{"totalCount": int(n)}, nil
}

func (r *resolver) allOrders(p graphql.ResolveParams) (interface{}, error) {
	stats, err := r.Queries.OrderStats(p.Context)
	if err != nil {
		return nil, hide(p.Context, "allOrders", err)
	}
	return map[string]interface{}{
		"totalCount":   int(stats.TotalCount),
		"totalRevenue": stats.TotalRevenue,
	}, nil
}

func (r *resolver) createCustomer(p graphql.ResolveParams) (interface{}, error) {
	payload, err := r.Customers.CreateCustomer(p.Context, service.CustomerInput{
		Name:  stringArg(p.Args, "name"),
		Email: stringArg(p.Args, "email"),
		Phone: stringArg(p.Args, "phone"),
	})
	if err != nil {
		return nil, hide(p.Context, "createCustomer", err)
	}
	return payloadMap("customer", payload), nil
}

func (r *resolver) bulkCreateCustomers(p graphql.ResolveParams) (interface{}, error) {
	raw, _ := p.Args["customers"].([]interface{})
	rows := make([]service.CustomerInput, 0, len(raw))
	for _, item := range raw {
		m, _ := item.(map[string]interface{})
		rows = append(rows, service.CustomerInput{
			Name:  stringArg(m, "name"),
			Email: stringArg(m, "email"),
			Phone: stringArg(m, "phone"),
		})
	}

	result, err := r.Customers.BulkCreateCustomers(p.Context, rows)
	if err != nil {
		return nil, hide(p.Context, "bulkCreateCustomers", err)
	}

	created := result.Created
	if created == nil {
		created = []model.Customer{}
	}
	return map[string]interface{}{
		"created": created,
		"errors":  result.Messages(),
	}, nil
}

func (r *resolver) createProduct(p graphql.ResolveParams) (interface{}, error) {
	in := service.ProductInput{Name: stringArg(p.Args, "name")}
	if price, ok := p.Args["price"].(decimal.Decimal); ok {
		in.Price = price
	}
	if stock, ok := p.Args["stock"].(int); ok {
		in.Stock = &stock
	}

	payload, err := r.Products.CreateProduct(p.Context, in)
	if err != nil {
		return nil, hide(p.Context, "createProduct", err)
	}
	return payloadMap("product", payload), nil
}

func (r *resolver) createOrder(p graphql.ResolveParams) (interface{}, error) {
	in := service.OrderInput{CustomerID: parseID(p.Args["customerId"])}
	if raw, ok := p.Args["productIds"].([]interface{}); ok {
		in.ProductIDs = make([]uint, 0, len(raw))
		for _, v := range raw {
			in.ProductIDs = append(in.ProductIDs, parseID(v))
		}
	}
	if t, ok := p.Args["orderDate"].(time.Time); ok {
		in.OrderDate = &t
	}

	payload, err := r.Orders.CreateOrder(p.Context, in)
	if err != nil {
		return nil, hide(p.Context, "createOrder", err)
	}
	return payloadMap("order", payload), nil
}

func (r *resolver) updateLowStockProducts(p graphql.ResolveParams) (interface{}, error) {
	result, err := r.Stock.UpdateLowStockProducts(p.Context)
	if err != nil {
		return nil, hide(p.Context, "updateLowStockProducts", err)
	}
	updated := result.Products
	if updated == nil {
		updated = []model.Product{}
	}
	return map[string]interface{}{
		"success":         result.Success,
		"message":         result.Message,
		"updatedProducts": updated,
	}, nil
}
