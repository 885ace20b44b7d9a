package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func get(mux *http.ServeMux, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(method, path, http.NoBody))
	return w
}

func TestRegister(t *testing.T) {
	convey.Convey("Given the docs routes on a mux", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		convey.Convey("Then the OpenAPI document is served as yaml", func() {
			w := get(mux, http.MethodGet, "/openapi.yaml")
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
			convey.So(w.Body.Bytes(), convey.ShouldResemble, OpenAPI)
		})

		convey.Convey("Then every roster route is documented", func() {
			body := get(mux, http.MethodGet, "/openapi.yaml").Body.String()
			for _, route := range []string{
				"/api/upload:", "/api/statistics:", "/api/upload-history:", "/api/clear-history:",
				"/api/generate-report:", "/api/generate-html-report:", "/api/generate-pdf-report:",
				"/api/download-report/{filename}:", "/auth/login:",
			} {
				convey.So(body, convey.ShouldContainSubstring, route)
			}
		})

		convey.Convey("Then the reference page loads ReDoc", func() {
			w := get(mux, http.MethodGet, "/api-docs")
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "Recruitment Statistics API")
			convey.So(w.Body.String(), convey.ShouldContainSubstring, ReDocURL)
		})

		convey.Convey("Then other methods are not found", func() {
			convey.So(get(mux, http.MethodPost, "/openapi.yaml").Code, convey.ShouldEqual, http.StatusNotFound)
			convey.So(get(mux, http.MethodDelete, "/api-docs").Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})

	convey.Convey("Given a nil mux", t, func() {
		convey.So(func() { Register(context.Background(), nil) }, convey.ShouldPanic)
		convey.So(ErrServe.Error(), convey.ShouldEqual, "swagger serve failed")
	})
}
