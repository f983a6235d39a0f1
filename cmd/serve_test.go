package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/acquire"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
)

type fakeGetter struct {
	res      *model.ListingResult
	err      error
	lastID   string
	lastOpts acquire.GetOptions
}

func (f *fakeGetter) GetListing(_ context.Context, extensionID string, opts acquire.GetOptions) (*model.ListingResult, error) {
	f.lastID = extensionID
	f.lastOpts = opts
	return f.res, f.err
}

func TestServeMux_Health(t *testing.T) {
	mux := newServeMux(&fakeGetter{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeMux_GetExtension(t *testing.T) {
	getter := &fakeGetter{res: &model.ListingResult{
		Listing: model.Listing{
			ID:          "ext-1",
			Name:        "Color Picker",
			Permissions: []string{"webRequest", "activeTab", "colorPicker"},
		},
		Cached:   true,
		CachedAt: time.Now().UTC(),
	}}
	mux := newServeMux(getter)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/extensions/ext-1?tenant=org-1&no_cache=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ext-1", getter.lastID)
	assert.Equal(t, "org-1", getter.lastOpts.TenantID)
	assert.True(t, getter.lastOpts.NoCache)

	var out lookupOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "ext-1", out.ExtensionID)
	assert.Equal(t, "Color Picker", out.Result.Listing.Name)
	assert.True(t, out.Result.Cached)
	require.NotNil(t, out.Risk)
	assert.Equal(t, []string{"webRequest"}, out.Risk.High)
}

func TestServeMux_TransportFailureIs502(t *testing.T) {
	getter := &fakeGetter{err: &acquire.Error{
		ExtensionID: "ext-1",
		Reason:      acquire.ReasonTransport,
	}}
	mux := newServeMux(getter)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/extensions/ext-1", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestServeMux_ExtractionFailureIs422(t *testing.T) {
	getter := &fakeGetter{err: &acquire.Error{
		ExtensionID: "ext-1",
		Reason:      acquire.ReasonExtraction,
	}}
	mux := newServeMux(getter)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/extensions/ext-1", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServeMux_MethodNotAllowed(t *testing.T) {
	mux := newServeMux(&fakeGetter{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/extensions/ext-1", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
