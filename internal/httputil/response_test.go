package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"episodic/internal/domain"
)

func TestRespondDomainError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.NewNotFound("paragraph", "p1"), http.StatusNotFound, ""},
		{fmt.Errorf("wrapped: %w", domain.NewValidation("bad")), http.StatusBadRequest, ""},
		{&domain.EmptyHistoryError{ParagraphID: "p1"}, http.StatusConflict, "empty_history"},
		{&domain.BusyError{ParagraphID: "p1"}, http.StatusConflict, "paragraph_busy"},
		{domain.NewGeneration("rewrite", errors.New("timeout")), http.StatusBadGateway, "generation_failed"},
		{errors.New("pg: connection reset"), http.StatusInternalServerError, ""},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondDomainError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		if tc.code != "" {
			assert.Equal(t, tc.code, body["code"])
		} else {
			assert.NotContains(t, body, "code")
		}
		if tc.status == http.StatusInternalServerError {
			assert.Equal(t, "internal server error", body["detail"])
		}
	}
}

func TestOptionalString(t *testing.T) {
	var body struct {
		Group OptionalString `json:"group"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{}`), &body))
	assert.False(t, body.Group.Present)

	require.NoError(t, json.Unmarshal([]byte(`{"group":null}`), &body))
	assert.True(t, body.Group.IsNull())

	body.Group = OptionalString{}
	require.NoError(t, json.Unmarshal([]byte(`{"group":"setting"}`), &body))
	require.NotNil(t, body.Group.Value)
	assert.Equal(t, "setting", *body.Group.Value)
}
