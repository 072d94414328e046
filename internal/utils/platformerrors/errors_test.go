package platformerrors

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorCarriesMetadata(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(context.Background(), LayerRepository, ErrorTypeDatabaseError, "failed to load user", cause, "b4f2c1aa-0000-0000-0000-000000000001")

	require.NotNil(t, err)
	assert.Equal(t, ErrorTypeDatabaseError, err.GetErrorType())
	assert.Equal(t, LayerRepository, err.Layer)
	assert.Equal(t, "b4f2c1aa-0000-0000-0000-000000000001", err.UUID)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to load user")
}

func TestAsErrorPreservesTypeAndUUID(t *testing.T) {
	inner := NewError(context.Background(), LayerRepository, ErrorTypeNotFound, "user not found", nil, "b4f2c1aa-0000-0000-0000-000000000002")

	wrapped := AsError(context.Background(), LayerDomain, inner, "resolve user")
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorTypeNotFound, wrapped.Type)
	assert.Equal(t, inner.UUID, wrapped.UUID)
	assert.Equal(t, LayerDomain, wrapped.Layer)

	assert.Nil(t, AsError(context.Background(), LayerDomain, nil, "resolve user"))
}

func TestIsErrorType(t *testing.T) {
	err := NewError(context.Background(), LayerRepository, ErrorTypeConflict, "duplicate", nil, "")

	assert.True(t, IsErrorType(err, ErrorTypeConflict))
	assert.False(t, IsErrorType(err, ErrorTypeNotFound))
	assert.False(t, IsErrorType(errors.New("plain"), ErrorTypeConflict))
	assert.False(t, IsErrorType(nil, ErrorTypeConflict))
}

func TestErrorTypeToHTTPStatus(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      int
	}{
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeConflict, http.StatusConflict},
		{ErrorTypeRateLimited, http.StatusTooManyRequests},
		{ErrorTypeExternal, http.StatusBadGateway},
		{ErrorTypeDatabaseError, http.StatusInternalServerError},
		{ErrorTypeInternal, http.StatusInternalServerError},
		{ErrorType("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorTypeToHTTPStatus(tt.errorType), string(tt.errorType))
	}
}
