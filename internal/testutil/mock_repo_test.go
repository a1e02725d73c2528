package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/poyrazK/zonekeeper/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMockRepo_WithinTx(t *testing.T) {
	m := new(MockRepo)
	m.On("WithinTx").Return(nil).Once()
	called := false
	err := m.WithinTx(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)

	m.On("WithinTx").Return(errors.New("begin failed")).Once()
	called = false
	err = m.WithinTx(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestMockRepo_GetZoneNil(t *testing.T) {
	m := new(MockRepo)
	m.On("GetZone", "missing.").Return(nil, nil)
	z, err := m.GetZone(context.Background(), "missing.")
	assert.NoError(t, err)
	assert.Nil(t, z)
}

func TestMockRepo_UpdateRecord(t *testing.T) {
	m := new(MockRepo)
	m.On("UpdateRecord", mock.AnythingOfType("*domain.Record")).Return(nil)
	assert.NoError(t, m.UpdateRecord(context.Background(), &domain.Record{ID: "r1"}))
	m.AssertExpectations(t)
}

func TestMockDNSService_DecoupleAddress(t *testing.T) {
	m := new(MockDNSService)
	m.On("DecoupleAddress", "a1").Return(2, 1, nil)
	deleted, decoupled, err := m.DecoupleAddress(context.Background(), "a1")
	assert.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, 1, decoupled)
}
