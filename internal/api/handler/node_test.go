package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeGet_EmptyID(t *testing.T) {
	h := NewNode(nil)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodGet, "/nodes/", nil), "id", "")

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNodeUpdateContent_MissingContent(t *testing.T) {
	h := NewNode(nil)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodPut, "/nodes/n1/content", map[string]any{}), "id", "n1")

	h.UpdateContent(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestNodeExpand_EmptyID(t *testing.T) {
	h := NewNode(nil)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodPost, "/nodes//expand", nil), "id", "")

	h.Expand(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
