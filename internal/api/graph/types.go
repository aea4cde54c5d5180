package graph

import (
	"strconv"

	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/graphql-go/graphql"
)

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// parseID 無法解析的 id 視為 0, 交由 service 回報不存在
func parseID(v interface{}) uint {
	s, ok := v.(string)
	if !ok {
		if i, ok := v.(int); ok && i > 0 {
			return uint(i)
		}
		return 0
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func asCustomer(src interface{}) *model.Customer {
	switch v := src.(type) {
	case *model.Customer:
		return v
	case model.Customer:
		return &v
	}
	return nil
}

func asProduct(src interface{}) *model.Product {
	switch v := src.(type) {
	case *model.Product:
		return v
	case model.Product:
		return &v
	}
	return nil
}

func asOrder(src interface{}) *model.Order {
	switch v := src.(type) {
	case *model.Order:
		return v
	case model.Order:
		return &v
	}
	return nil
}

var customerType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Customer",
	Fields: graphql.Fields{
		"id": &graphql.Field{
			Type: graphql.NewNonNull(graphql.ID),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return formatID(asCustomer(p.Source).ID), nil
			},
		},
		"name": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return asCustomer(p.Source).Name, nil
			},
		},
		"email": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return asCustomer(p.Source).Email, nil
			},
		},
		"phone": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				c := asCustomer(p.Source)
				if c.Phone == nil {
					return nil, nil
				}
				return *c.Phone, nil
			},
		},
		"createdAt": &graphql.Field{
			Type: graphql.DateTime,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return asCustomer(p.Source).CreatedAt, nil
			},
		},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id": &graphql.Field{
			Type: graphql.NewNonNull(graphql.ID),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return formatID(asProduct(p.Source).ID), nil
			},
		},
		"name": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return asProduct(p.Source).Name, nil
			},
		},
		"price": &graphql.Field{
			Type: graphql.NewNonNull(Decimal),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return asProduct(p.Source).Price, nil
			},
		},
		"stock": &graphql.Field{
			Type: graphql.NewNonNull(graphql.Int),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return asProduct(p.Source).Stock, nil
			},
		},
	},
})

var orderType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Order",
	Fields: graphql.Fields{
		"id": &graphql.Field{
			Type: graphql.NewNonNull(graphql.ID),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return formatID(asOrder(p.Source).ID), nil
			},
		},
		"customer": &graphql.Field{
			Type: graphql.NewNonNull(customerType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return &asOrder(p.Source).Customer, nil
			},
		},
		"products": &graphql.Field{
			Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(productType))),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return asOrder(p.Source).Products, nil
			},
		},
		"orderDate": &graphql.Field{
			Type: graphql.NewNonNull(graphql.DateTime),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return asOrder(p.Source).OrderDate, nil
			},
		},
		"totalAmount": &graphql.Field{
			Type: graphql.NewNonNull(Decimal),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return asOrder(p.Source).TotalAmount, nil
			},
		},
	},
})

var errorCodeEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "ErrorCode",
	Values: graphql.EnumValueConfigMap{
		"VALIDATION": &graphql.EnumValueConfig{Value: "VALIDATION"},
		"CONFLICT":   &graphql.EnumValueConfig{Value: "CONFLICT"},
		"NOT_FOUND":  &graphql.EnumValueConfig{Value: "NOT_FOUND"},
	},
})

// payloadType 單筆 mutation 的回傳, 失敗時 record 為 null 並帶 errorCode
func payloadType(name, recordField string, recordType graphql.Output) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			recordField: &graphql.Field{Type: recordType},
			"success":   &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"message":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"errorCode": &graphql.Field{Type: errorCodeEnum},
		},
	})
}

var (
	createCustomerPayload = payloadType("CreateCustomerPayload", "customer", customerType)
	createProductPayload  = payloadType("CreateProductPayload", "product", productType)
	createOrderPayload    = payloadType("CreateOrderPayload", "order", orderType)
)

var bulkCreateCustomersPayload = graphql.NewObject(graphql.ObjectConfig{
	Name: "BulkCreateCustomersPayload",
	Fields: graphql.Fields{
		"created": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(customerType)))},
		"errors":  &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
	},
})

var updateLowStockProductsPayload = graphql.NewObject(graphql.ObjectConfig{
	Name: "UpdateLowStockProductsPayload",
	Fields: graphql.Fields{
		"success":         &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"message":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"updatedProducts": &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(productType)))},
	},
})

var customerInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "CustomerInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		"email": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"phone": &graphql.InputObjectFieldConfig{Type: graphql.String},
	},
})

func countType(name string) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})
}

var (
	customerStatsType = countType("CustomerStats")
	productStatsType  = countType("ProductStats")
)

var orderStatsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "OrderStats",
	Fields: graphql.Fields{
		"totalCount":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"totalRevenue": &graphql.Field{Type: graphql.NewNonNull(Decimal)},
	},
})
