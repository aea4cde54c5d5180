package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RoyceAzure/lab/crm/internal/domain/event"
	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository"
	"github.com/RoyceAzure/lab/crm/internal/pkg/fault"
	"github.com/RoyceAzure/lab/crm/internal/validation"
)

// RowError 批次中單一列的失敗, Row 從 1 開始
type RowError struct {
	Row    int
	Kind   fault.Kind
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Reason)
}

type BulkResult struct {
	Created []model.Customer
	Errors  []RowError
}

// Messages 依輸入順序回傳錯誤訊息
func (r *BulkResult) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Error())
	}
	return out
}

/*
BulkCreateCustomers 每一列獨立驗證與寫入, 某列失敗不影響其他列
整批在同一個交易內執行, 每列各自一個 savepoint
同批內重複的 email 以輸入順序第一筆為準, 之後的列視為重複
錯誤:
  - fault.Internal: 資料庫錯誤, 整批回滾且不回傳部分結果
*/
func (s *CustomerService) BulkCreateCustomers(ctx context.Context, rows []CustomerInput) (*BulkResult, error) {
	var result *BulkResult

	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		result = &BulkResult{
			Created: make([]model.Customer, 0, len(rows)),
			Errors:  make([]RowError, 0),
		}
		seen := make(map[string]struct{}, len(rows))

		for i, row := range rows {
			customer, rowErr, err := s.createRow(ctx, tx, i+1, row, seen)
			if err != nil {
				return err
			}
			if rowErr != nil {
				result.Errors = append(result.Errors, *rowErr)
				continue
			}
			result.Created = append(result.Created, *customer)
		}
		return nil
	})
	if err != nil {
		return nil, s.internal(ctx, opBulkCreateCustomers, err)
	}

	evts := make([]event.Event, 0, len(result.Created))
	for i := range result.Created {
		evts = append(evts, event.NewCustomerCreatedEvent(&result.Created[i], s.now()))
	}
	s.publish(ctx, evts...)

	outcome := "success"
	if len(result.Errors) > 0 {
		outcome = "partial"
	}
	s.observer.ObserveMutation(opBulkCreateCustomers, outcome)
	return result, nil
}

// createRow 回傳 error 代表基礎設施錯誤, 需中止整批
func (s *CustomerService) createRow(ctx context.Context, tx repository.Store, n int, row CustomerInput, seen map[string]struct{}) (*model.Customer, *RowError, error) {
	if !validation.ValidEmail(row.Email).OK() {
		return nil, &RowError{Row: n, Kind: fault.Validation, Reason: "Invalid email format: " + row.Email}, nil
	}

	duplicate := &RowError{Row: n, Kind: fault.Conflict, Reason: "Email already exists: " + row.Email}
	if _, ok := seen[row.Email]; ok {
		return nil, duplicate, nil
	}
	holder, err := findCustomerByEmail(ctx, tx, row.Email)
	if err != nil {
		return nil, nil, err
	}
	if !validation.EmailAvailable(row.Email, holder).OK() {
		return nil, duplicate, nil
	}

	if !validation.ValidPhone(row.Phone).OK() {
		return nil, &RowError{Row: n, Kind: fault.Validation, Reason: "Invalid phone format: " + row.Phone}, nil
	}

	name := validation.RequiredName(row.Name)
	if !name.OK() {
		return nil, &RowError{Row: n, Kind: fault.Validation, Reason: strings.TrimSuffix(name.Fault().Message, ".")}, nil
	}

	customer := &model.Customer{
		Name:  name.Value(),
		Email: row.Email,
		Phone: optionalString(row.Phone),
	}
	err = tx.ExecTx(ctx, func(rowTx repository.Store) error {
		return rowTx.CreateCustomer(ctx, customer)
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, duplicate, nil
	}
	if err != nil {
		return nil, nil, err
	}

	seen[row.Email] = struct{}{}
	return customer, nil, nil
}
