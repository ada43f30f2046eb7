package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/photomap/internal/adapters/reader"
	"github.com/lcalzada-xor/photomap/internal/core/domain"
	"github.com/lcalzada-xor/photomap/internal/core/ports/mocks"
	"github.com/lcalzada-xor/photomap/internal/core/services/mapsurface"
	"github.com/lcalzada-xor/photomap/internal/core/services/shell"
	"github.com/lcalzada-xor/photomap/internal/geo"
)

// headerLocator reads each file like the real pipeline and reports files
// whose content starts with "bad".
type headerLocator struct {
	sink  *shell.Shell
	mu    sync.Mutex
	names []string
}

func (l *headerLocator) Locate(ctx context.Context, f domain.PhotoFile) {
	if f == nil {
		l.sink.AppendError(domain.ErrorRecord{Message: "Not a valid file"})
		return
	}
	buf, err := reader.ReadAsBuffer(ctx, f, 3)
	l.mu.Lock()
	l.names = append(l.names, f.Name())
	l.mu.Unlock()
	if err != nil || string(buf) == "bad" {
		l.sink.AppendError(domain.ErrorRecord{File: f.Name(), Message: "Error reading EXIF data"})
	}
}

func newShell() (*shell.Shell, *headerLocator) {
	sh := shell.New(nil, nil)
	loc := &headerLocator{sink: sh}
	sh.SetLocator(loc)
	return sh, loc
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		fw, err := mw.CreateFormFile(PhotoField, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestPhotoHandler_Upload(t *testing.T) {
	sh, loc := newShell()
	h := NewPhotoHandler(sh, 0, nil)

	body, ct := multipartBody(t, map[string]string{"good.jpg": "goodbytes", "broken.jpg": "bad header"})
	req := httptest.NewRequest(http.MethodPost, "/api/photos", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()

	h.HandleUpload(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Batch  shell.Batch       `json:"batch"`
		Errors domain.ErrorPanel `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Batch.Files)
	assert.Equal(t, []string{"broken.jpg: Error reading EXIF data"}, resp.Errors.Errors)
	assert.ElementsMatch(t, []string{"good.jpg", "broken.jpg"}, loc.names)
}

func TestPhotoHandler_EmptySelection(t *testing.T) {
	sh, _ := newShell()
	h := NewPhotoHandler(sh, 0, nil)

	body, ct := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/photos", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()

	h.HandleUpload(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Not a valid file")
}

func TestPhotoHandler_NotMultipart(t *testing.T) {
	sh, _ := newShell()
	h := NewPhotoHandler(sh, 0, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/photos", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.HandleUpload(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPhotoHandler_Errors(t *testing.T) {
	sh, _ := newShell()
	sh.AppendError(domain.ErrorRecord{File: "x.jpg", Message: "No Geolocation data present."})
	h := NewPhotoHandler(sh, 0, nil)

	w := httptest.NewRecorder()
	h.HandleErrors(w, httptest.NewRequest(http.MethodGet, "/api/errors", nil))

	assert.JSONEq(t, `{"errors":["x.jpg: No Geolocation data present."]}`, w.Body.String())
}

func newSurface(t *testing.T, store *mocks.MockMarkerStore) *mapsurface.Surface {
	s, err := mapsurface.New(store, nil, geo.EPSG3857, nil)
	require.NoError(t, err)
	return s
}

func markerRouter(h *MapHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/markers/{id}", h.HandleGetMarker)
	return r
}

func TestMapHandler_ListMarkers(t *testing.T) {
	store := new(mocks.MockMarkerStore)
	store.On("ListMarkers", mock.Anything).Return([]domain.Marker(nil), nil)
	h := NewMapHandler(newSurface(t, store))

	w := httptest.NewRecorder()
	h.HandleListMarkers(w, httptest.NewRequest(http.MethodGet, "/api/markers", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestMapHandler_GetMarker(t *testing.T) {
	store := new(mocks.MockMarkerStore)
	store.On("GetMarker", mock.Anything, "m1").Return(&domain.Marker{ID: "m1", Kind: domain.MarkerPhoto, Source: "a.jpg"}, nil)
	store.On("GetMarker", mock.Anything, "nope").Return(nil, domain.ErrMarkerNotFound)
	store.On("GetMarker", mock.Anything, "boom").Return(nil, errors.New("db closed"))
	router := markerRouter(NewMapHandler(newSurface(t, store)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/markers/m1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"source":"a.jpg"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/markers/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/markers/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMapHandler_GetLiveMarker(t *testing.T) {
	store := new(mocks.MockMarkerStore)
	router := markerRouter(NewMapHandler(newSurface(t, store)))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/markers/"+domain.LiveMarkerID, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"live_position"`)
	assert.Contains(t, w.Body.String(), `"fill":"#3399CC"`)
	store.AssertNotCalled(t, "GetMarker", mock.Anything, mock.Anything)
}

func TestMapHandler_View(t *testing.T) {
	h := NewMapHandler(newSurface(t, new(mocks.MockMarkerStore)))

	w := httptest.NewRecorder()
	h.HandleView(w, httptest.NewRequest(http.MethodGet, "/api/view", nil))

	var v struct {
		Zoom       float64 `json:"zoom"`
		Projection string  `json:"projection"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	assert.Equal(t, 0.0, v.Zoom)
	assert.Equal(t, "EPSG:3857", v.Projection)
}

func TestExportHandler(t *testing.T) {
	store := new(mocks.MockMarkerStore)
	store.On("ListMarkers", mock.Anything).Return([]domain.Marker{
		{ID: "m1", Kind: domain.MarkerPhoto, Source: "a.jpg", Position: &geo.Coordinate{Longitude: 2.5, Latitude: 48}},
	}, nil)
	h := NewExportHandler(newSurface(t, store), stubPanel{"b.jpg: No Geolocation data present."}, nil)

	w := httptest.NewRecorder()
	h.HandleGeoJSON(w, httptest.NewRequest(http.MethodGet, "/api/markers.geojson", nil))
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"FeatureCollection"`)
	assert.Contains(t, w.Body.String(), "2.5")

	w = httptest.NewRecorder()
	h.HandleCSV(w, httptest.NewRequest(http.MethodGet, "/api/markers.csv", nil))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "m1,photo,a.jpg,2.500000,48.000000")

	w = httptest.NewRecorder()
	h.HandlePDF(w, httptest.NewRequest(http.MethodGet, "/api/report.pdf", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))
}

type stubPanel []string

func (p stubPanel) Panel() domain.ErrorPanel { return domain.ErrorPanel{Errors: p} }

func TestPositionHandler(t *testing.T) {
	reporter := new(mocks.MockPositionReporter)
	reporter.On("Report", mock.MatchedBy(func(c *geo.Coordinate) bool {
		return c != nil && c.Latitude == 48.85 && c.Longitude == 2.35
	})).Once()
	reporter.On("Report", (*geo.Coordinate)(nil)).Once()
	h := NewPositionHandler(reporter)

	w := httptest.NewRecorder()
	h.HandleReport(w, httptest.NewRequest(http.MethodPost, "/api/position", strings.NewReader(`{"lat":48.85,"lng":2.35}`)))
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	h.HandleReport(w, httptest.NewRequest(http.MethodPost, "/api/position", strings.NewReader(`null`)))
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	h.HandleReport(w, httptest.NewRequest(http.MethodPost, "/api/position", strings.NewReader(`{"lat":95,"lng":0}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	reporter.AssertExpectations(t)
}

func TestPositionHandler_Disabled(t *testing.T) {
	h := NewPositionHandler(nil)

	w := httptest.NewRecorder()
	h.HandleReport(w, httptest.NewRequest(http.MethodPost, "/api/position", strings.NewReader(`null`)))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleHealth(t *testing.T) {
	w := httptest.NewRecorder()
	HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
