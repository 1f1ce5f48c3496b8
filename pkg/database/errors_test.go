package database

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPQError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantNil   bool
		wantCode  string
		detailKey string
	}{
		{
			name:      "personal code check",
			err:       &pq.Error{Code: "23514", Constraint: "identity_documents_personal_code_format"},
			wantCode:  "VALIDATION_ERROR",
			detailKey: "personal_code",
		},
		{
			name:      "document pair check",
			err:       &pq.Error{Code: "23514", Constraint: "identity_documents_document_pair"},
			wantCode:  "VALIDATION_ERROR",
			detailKey: "document_series",
		},
		{
			name:     "unknown check",
			err:      &pq.Error{Code: "23514", Constraint: "something_else"},
			wantCode: "BAD_REQUEST",
		},
		{
			name:      "not null",
			err:       &pq.Error{Code: "23502", Column: "user_id"},
			wantCode:  "VALIDATION_ERROR",
			detailKey: "user_id",
		},
		{
			name:      "bad date",
			err:       &pq.Error{Code: "22008"},
			wantCode:  "VALIDATION_ERROR",
			detailKey: "valid_until",
		},
		{
			name:    "connection error",
			err:     &pq.Error{Code: "08006"},
			wantNil: true,
		},
		{
			name:    "not a pq error",
			err:     fmt.Errorf("boom"),
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := MapPQError(tt.err)
			if tt.wantNil {
				assert.Nil(t, appErr)
				return
			}
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
			if tt.detailKey != "" {
				assert.Contains(t, appErr.Details, tt.detailKey)
			}
		})
	}
}
