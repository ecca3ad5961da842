package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/odmapi/internal/odm"
)

// gateModel resolves a model's exposure and checks the model-level switch.
// It never touches the backend.
func (s *EntityService) gateModel(model string) (odm.Exposure, error) {
	if _, err := s.store.Registry().Model(model); err != nil {
		return nil, s.storeErr(err)
	}
	exp, ok := s.store.Registry().Exposure(model)
	if !ok {
		return nil, ErrForbidden
	}
	if !exp.Enabled() {
		return nil, ErrOperationForbidden
	}
	return exp, nil
}

// gateEntity checks the per-entity switch.
func gateEntity(exp odm.Exposure, e *odm.Entity) error {
	if !exp.EnabledFor(e) {
		return ErrOperationForbidden
	}
	return nil
}

// resolveRef gates the ref's model before loading, then gates the entity.
func (s *EntityService) resolveRef(ctx context.Context, ref string) (*odm.Entity, odm.Exposure, error) {
	model, _, err := odm.ParseRef(ref)
	if err != nil {
		return nil, nil, ErrEntityNotFound
	}
	exp, err := s.gateModel(model)
	if err != nil {
		return nil, nil, err
	}

	e, err := s.store.GetByRef(ctx, ref)
	if err != nil {
		return nil, nil, s.storeErr(err)
	}
	if e == nil {
		return nil, nil, ErrEntityNotFound
	}
	if err := gateEntity(exp, e); err != nil {
		return nil, nil, err
	}
	return e, exp, nil
}

// dispense gates the model and returns a fresh entity.
func (s *EntityService) dispense(model string) (*odm.Entity, odm.Exposure, error) {
	exp, err := s.gateModel(model)
	if err != nil {
		return nil, nil, err
	}
	e, err := s.store.Dispense(model)
	if err != nil {
		return nil, nil, s.storeErr(err)
	}
	if err := gateEntity(exp, e); err != nil {
		return nil, nil, err
	}
	return e, exp, nil
}

func (s *EntityService) storeErr(err error) error {
	if errors.Is(err, odm.ErrModelNotRegistered) {
		return fmt.Errorf("%w: %v", ErrModelNotRegistered, err)
	}
	return err
}
