package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	Convey("Given a site handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		Convey("When registering the site handler", func() {
			Register(ctx, mux)
			get := func(path string) *httptest.ResponseRecorder {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
				return w
			}

			Convey("Then it should serve the landing page at /", func() {
				w := get("/")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(w.Body.String(), ShouldContainSubstring, "/dashboard")
			})

			Convey("And it should serve the login form", func() {
				w := get("/login")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `name="password"`)
				So(w.Body.String(), ShouldContainSubstring, "/auth/login")
			})

			Convey("And it should serve static assets", func() {
				w := get("/static/site.css")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/css")
			})

			Convey("And it should serve the favicon", func() {
				w := get("/favicon.ico")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "image/svg+xml")
			})

			Convey("And it should not handle unknown root paths", func() {
				So(get("/some-asset").Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And it should reject POST on pages", func() {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest("POST", "/login", nil))
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSiteErrors(t *testing.T) {
	Convey("Given site error constants", t, func() {
		Convey("Then ErrServe should be defined", func() {
			So(ErrServe, ShouldNotBeNil)
			So(ErrServe.Error(), ShouldEqual, "site serve failed")
		})
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		ctx := context.Background()

		Convey("When registering the site handler", func() {
			Convey("Then it should panic", func() {
				So(func() {
					Register(ctx, nil)
				}, ShouldPanic)
			})
		})
	})
}
