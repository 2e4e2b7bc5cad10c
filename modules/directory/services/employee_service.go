package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/loophq/loop360/modules/directory/domain/aggregates/employee"
	"github.com/loophq/loop360/pkg/composables"
	"github.com/loophq/loop360/pkg/eventbus"
)

type EmployeeService struct {
	repo      employee.Repository
	publisher eventbus.EventBus
}

func NewEmployeeService(repo employee.Repository, publisher eventbus.EventBus) *EmployeeService {
	return &EmployeeService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *EmployeeService) Count(ctx context.Context) (int64, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (int64, error) {
		return s.repo.Count(txCtx)
	})
}

func (s *EmployeeService) GetPaginated(ctx context.Context, params *employee.FindParams) ([]employee.Employee, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]employee.Employee, error) {
		return s.repo.GetPaginated(txCtx, params)
	})
}

func (s *EmployeeService) GetByID(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (employee.Employee, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *EmployeeService) GetByCode(ctx context.Context, code string) (employee.Employee, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (employee.Employee, error) {
		return s.repo.GetByCode(txCtx, code)
	})
}

func (s *EmployeeService) Create(ctx context.Context, data *employee.CreateDTO) (employee.Employee, error) {
	if data == nil {
		return employee.Employee{}, errors.New("missing dto")
	}
	if fieldErrs, ok := data.Ok(); !ok {
		for _, err := range fieldErrs {
			return employee.Employee{}, err
		}
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return employee.Employee{}, err
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (employee.Employee, error) {
		created, err := s.repo.Create(txCtx, data.ToEntity(tenantID))
		if err != nil {
			return employee.Employee{}, err
		}
		s.publisher.Publish(employee.CreatedEvent{Result: created})
		return created, nil
	})
}

func (s *EmployeeService) Update(ctx context.Context, data employee.Employee) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, data); err != nil {
			return err
		}
		s.publisher.Publish(employee.UpdatedEvent{Result: data})
		return nil
	})
}

func (s *EmployeeService) Deactivate(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (employee.Employee, error) {
		if err := s.repo.Deactivate(txCtx, id); err != nil {
			return employee.Employee{}, err
		}
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return employee.Employee{}, err
		}
		s.publisher.Publish(employee.DeactivatedEvent{Result: entity})
		return entity, nil
	})
}
