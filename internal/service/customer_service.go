package service

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/crm/internal/domain/event"
	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository"
	"github.com/RoyceAzure/lab/crm/internal/pkg/fault"
	"github.com/RoyceAzure/lab/crm/internal/validation"
)

const (
	opCreateCustomer      = "createCustomer"
	opBulkCreateCustomers = "bulkCreateCustomers"

	MsgCustomerCreated = "Customer created successfully."
)

type CustomerInput struct {
	Name  string
	Email string
	Phone string
}

type ICustomerService interface {
	CreateCustomer(ctx context.Context, in CustomerInput) (*Payload[model.Customer], error)
	BulkCreateCustomers(ctx context.Context, rows []CustomerInput) (*BulkResult, error)
}

type CustomerService struct {
	baseService
}

func NewCustomerService(store repository.Store, opts ...Option) *CustomerService {
	return &CustomerService{baseService: newBaseService(store, opts...)}
}

// CreateCustomer 檢查順序: email 格式 -> email 是否已存在 -> 電話格式 -> 名稱
// 任一失敗即返回, 不寫入
// 錯誤:
//   - fault.Internal: 資料庫錯誤, 驗證失敗不回傳 error
func (s *CustomerService) CreateCustomer(ctx context.Context, in CustomerInput) (*Payload[model.Customer], error) {
	if f := validation.ValidEmail(in.Email).Fault(); f != nil {
		return rejected[model.Customer](&s.baseService, opCreateCustomer, f)
	}

	holder, err := findCustomerByEmail(ctx, s.store, in.Email)
	if err != nil {
		return nil, s.internal(ctx, opCreateCustomer, err)
	}
	if f := validation.EmailAvailable(in.Email, holder).Fault(); f != nil {
		return rejected[model.Customer](&s.baseService, opCreateCustomer, f)
	}

	if f := validation.ValidPhone(in.Phone).Fault(); f != nil {
		return rejected[model.Customer](&s.baseService, opCreateCustomer, f)
	}

	name := validation.RequiredName(in.Name)
	if !name.OK() {
		return rejected[model.Customer](&s.baseService, opCreateCustomer, name.Fault())
	}

	customer := &model.Customer{
		Name:  name.Value(),
		Email: in.Email,
		Phone: optionalString(in.Phone),
	}
	if err := s.store.CreateCustomer(ctx, customer); err != nil {
		// 檢查後到寫入前被搶先, 與事前檢查同樣回報為 conflict
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return rejected[model.Customer](&s.baseService, opCreateCustomer, fault.New(fault.Conflict, validation.MsgEmailExists))
		}
		return nil, s.internal(ctx, opCreateCustomer, err)
	}

	s.publish(ctx, event.NewCustomerCreatedEvent(customer, s.now()))
	return succeeded(&s.baseService, opCreateCustomer, customer, MsgCustomerCreated)
}

var _ ICustomerService = (*CustomerService)(nil)
