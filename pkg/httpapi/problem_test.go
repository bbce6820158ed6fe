package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclerk/directory/pkg/httpapi"
)

func TestProblem_WriteCarriesStatusAndBody(t *testing.T) {
	t.Parallel()

	cases := []struct {
		problem httpapi.Problem
		status  int
		body    string
	}{
		{httpapi.NotFound("department"), http.StatusNotFound, `{"code":"not_found","message":"department not found"}`},
		{httpapi.UnknownSlug(), http.StatusNotFound, `{"code":"not_found","message":"no entity for slug"}`},
		{httpapi.InvalidID("board"), http.StatusBadRequest, `{"code":"bad_request","message":"invalid board id"}`},
		{httpapi.SubmissionRejected(), http.StatusUnprocessableEntity, `{"code":"rejected","message":"submission not accepted"}`},
		{httpapi.UnknownRoute(), http.StatusNotFound, `{"code":"not_found","message":"no such route"}`},
		{httpapi.MethodNotAllowed(), http.StatusMethodNotAllowed, `{"code":"method_not_allowed","message":"method not allowed"}`},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		require.NoError(t, tc.problem.Write(rr))
		assert.Equal(t, tc.status, rr.Code)
		assert.JSONEq(t, tc.body, rr.Body.String())
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	}
}

func TestWriteJSON_NilPayloadWritesHeaderOnly(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	require.NoError(t, httpapi.WriteJSON(rr, http.StatusNoContent, nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}
