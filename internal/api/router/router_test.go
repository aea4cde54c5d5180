package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/api/graph"
	"github.com/RoyceAzure/lab/crm/internal/api/handler"
	"github.com/RoyceAzure/lab/crm/internal/constants"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository/memory"
	"github.com/RoyceAzure/lab/crm/internal/metrics"
	"github.com/RoyceAzure/lab/crm/internal/pkg/ratelimit"
	"github.com/RoyceAzure/lab/crm/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

type RouterTestSuite struct {
	suite.Suite
	server *Server
	mux    http.Handler
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (suite *RouterTestSuite) SetupTest() {
	now := func() time.Time { return time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC) }
	store := memory.NewStore(memory.WithClock(now))
	m := metrics.New(nil)

	schema, err := graph.NewSchema(graph.Deps{
		Customers: service.NewCustomerService(store, service.WithClock(now), service.WithObserver(m)),
		Products:  service.NewProductService(store, service.WithClock(now), service.WithObserver(m)),
		Orders:    service.NewOrderService(store, service.WithClock(now), service.WithObserver(m)),
		Stock:     service.NewStockService(store, service.WithClock(now), service.WithObserver(m)),
		Queries:   service.NewQueryService(store),
	})
	suite.Require().NoError(err)

	suite.server = &Server{
		GraphQLHandler: handler.NewGraphQLHandler(graph.NewExecutor(schema)),
		HealthHandler:  handler.NewHealthHandler(map[string]handler.Pinger{"store": fakePinger{}}),
		Metrics:        m,
		Limiter:        ratelimit.NewTokenBucket(ratelimit.Config{Capacity: 1000, RatePS: 1000}),
	}
	suite.mux = SetupRouter(suite.server, zerolog.Nop())
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (suite *RouterTestSuite) post(query string, vars map[string]interface{}) (*httptest.ResponseRecorder, gqlResponse) {
	body, err := json.Marshal(graph.Request{Query: query, Variables: vars})
	suite.Require().NoError(err)

	rec := httptest.NewRecorder()
	suite.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body)))

	var res gqlResponse
	if rec.Code == http.StatusOK {
		suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	}
	return rec, res
}

func (suite *RouterTestSuite) TestGraphQLScenario() {
	rec, res := suite.post(`mutation { createCustomer(name: "Ada", email: "ada@example.com") { customer { id } success } }`, nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Require().Empty(res.Errors)
	suite.NotEmpty(rec.Header().Get(constants.RequestIDHeader))

	var created struct {
		Customer struct{ ID string } `json:"customer"`
		Success  bool                `json:"success"`
	}
	suite.Require().NoError(json.Unmarshal(res.Data["createCustomer"], &created))
	suite.True(created.Success)

	_, res = suite.post(`mutation { createProduct(name: "Widget", price: "9.99") { product { id } } }`, nil)
	var product struct {
		Product struct{ ID string } `json:"product"`
	}
	suite.Require().NoError(json.Unmarshal(res.Data["createProduct"], &product))

	_, res = suite.post(`mutation($c: ID!, $p: [ID!]!) { createOrder(customerId: $c, productIds: $p) { order { totalAmount } success } }`,
		map[string]interface{}{"c": created.Customer.ID, "p": []string{product.Product.ID}})
	suite.Require().Empty(res.Errors)
	suite.JSONEq(`{"order":{"totalAmount":"9.99"},"success":true}`, string(res.Data["createOrder"]))

	_, res = suite.post(`{ allOrders { totalCount totalRevenue } }`, nil)
	suite.JSONEq(`{"totalCount":1,"totalRevenue":"9.99"}`, string(res.Data["allOrders"]))
}

func (suite *RouterTestSuite) TestRequestIDIsEchoed() {
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set(constants.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	suite.mux.ServeHTTP(rec, req)

	suite.Equal(http.StatusOK, rec.Code)
	suite.Equal("abc-123", rec.Header().Get(constants.RequestIDHeader))
	suite.JSONEq(`{"data":{"hello":"Hello, GraphQL!"}}`, rec.Body.String())
}

func (suite *RouterTestSuite) TestBadBody() {
	rec := httptest.NewRecorder()
	suite.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(`not json`)))
	suite.Equal(http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	suite.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(`{}`)))
	suite.Equal(http.StatusBadRequest, rec.Code)
}

func (suite *RouterTestSuite) TestRateLimited() {
	suite.server.Limiter = ratelimit.NewTokenBucket(ratelimit.Config{Capacity: 1, RatePS: 0.0001})
	mux := SetupRouter(suite.server, zerolog.Nop())

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(`{"query":"{ hello }"}`)))
		codes = append(codes, rec.Code)
	}
	suite.Equal([]int{http.StatusOK, http.StatusTooManyRequests}, codes)

	// healthz 不受限流影響
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *RouterTestSuite) TestHealthz() {
	rec := httptest.NewRecorder()
	suite.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	suite.Equal(http.StatusOK, rec.Code)
	suite.JSONEq(`{"status":"OK","checks":{"store":"ok"}}`, rec.Body.String())

	suite.server.HealthHandler = handler.NewHealthHandler(map[string]handler.Pinger{"store": fakePinger{err: errors.New("down")}})
	mux := SetupRouter(suite.server, zerolog.Nop())
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	suite.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (suite *RouterTestSuite) TestMetricsEndpoint() {
	suite.post(`mutation { createCustomer(name: "Ada", email: "bad") { success } }`, nil)

	rec := httptest.NewRecorder()
	suite.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	suite.Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Body.String(), `crm_mutations_total{operation="createCustomer",outcome="VALIDATION"} 1`)
	suite.Contains(rec.Body.String(), `crm_http_requests_total{code="200",route="/graphql"} 1`)
}
