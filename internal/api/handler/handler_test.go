package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/college-connect/internal/service"
)

func init() { gin.SetMode(gin.TestMode) }

func TestFailMapsErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", &service.Error{Kind: service.ErrValidation, Msg: "bad"}, http.StatusBadRequest, "bad"},
		{"duplicate", &service.Error{Kind: service.ErrDuplicateUser, Msg: "dup"}, http.StatusBadRequest, "dup"},
		{"unauthorized", &service.Error{Kind: service.ErrUnauthorized, Msg: "who"}, http.StatusUnauthorized, "who"},
		{"forbidden", &service.Error{Kind: service.ErrForbidden, Msg: "no"}, http.StatusForbidden, "no"},
		{"not found", fmt.Errorf("wrapped: %w", &service.Error{Kind: service.ErrNotFound, Msg: "gone"}), http.StatusNotFound, "gone"},
		{"upstream", errors.New("redis: connection refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			fail(c, tt.err)

			assert.Equal(t, tt.code, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}

func TestFormBool(t *testing.T) {
	for in, want := range map[string]bool{"true": true, "1": true, "on": true, "TRUE": true, "false": false, "": false, "nope": false} {
		assert.Equal(t, want, formBool(in), in)
	}
}
