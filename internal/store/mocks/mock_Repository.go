// Package mocks provides test doubles for the contact store.
package mocks

import (
	"context"

	model "github.com/sells-group/contact-cli/internal/model"
	store "github.com/sells-group/contact-cli/internal/store"
	mock "github.com/stretchr/testify/mock"
)

// MockRepository is a mock type for the Repository interface.
type MockRepository struct {
	mock.Mock
}

// Upsert provides a mock function with given fields: ctx, rec
func (_m *MockRepository) Upsert(ctx context.Context, rec model.ContactRecord) error {
	ret := _m.Called(ctx, rec)

	if len(ret) == 0 {
		panic("no return value specified for Upsert")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, model.ContactRecord) error); ok {
		r0 = rf(ctx, rec)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Get provides a mock function with given fields: ctx, subject
func (_m *MockRepository) Get(ctx context.Context, subject string) (*model.ContactRecord, error) {
	ret := _m.Called(ctx, subject)

	if len(ret) == 0 {
		panic("no return value specified for Get")
	}

	var r0 *model.ContactRecord
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*model.ContactRecord, error)); ok {
		return rf(ctx, subject)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.ContactRecord)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// Query provides a mock function with given fields: ctx, f
func (_m *MockRepository) Query(ctx context.Context, f store.Filter) ([]model.ContactRecord, error) {
	ret := _m.Called(ctx, f)

	if len(ret) == 0 {
		panic("no return value specified for Query")
	}

	var r0 []model.ContactRecord
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, store.Filter) ([]model.ContactRecord, error)); ok {
		return rf(ctx, f)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.ContactRecord)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// Stats provides a mock function with given fields: ctx
func (_m *MockRepository) Stats(ctx context.Context) (store.Stats, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Stats")
	}

	var r0 store.Stats
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (store.Stats, error)); ok {
		return rf(ctx)
	}
	r0 = ret.Get(0).(store.Stats)
	r1 = ret.Error(1)

	return r0, r1
}

// Migrate provides a mock function with given fields: ctx
func (_m *MockRepository) Migrate(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Migrate")
	}

	return ret.Error(0)
}

// Close provides a mock function with no fields
func (_m *MockRepository) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	return ret.Error(0)
}

// NewMockRepository creates a new instance of MockRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ store.Repository = (*MockRepository)(nil)
