package item_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/catalog"
	"github.com/entreprenapp/backoffice/internal/catalog/importer"
	itemHandler "github.com/entreprenapp/backoffice/internal/http/item"
	"github.com/entreprenapp/backoffice/internal/http/middleware"
)

var clerk = audit.Identity{UserID: uuid.New()}

func newRouter(t *testing.T) (http.Handler, *catalog.MockRepository) {
	t.Helper()

	repo := catalog.NewMockRepository(gomock.NewController(t))
	svc := catalog.NewService(repo)
	h := itemHandler.NewHandler(svc, importer.NewService(svc))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), clerk)))
		})
	})
	r.Route("/items", h.Routes)

	return r, repo
}

func TestHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *catalog.MockRepository)
		wantStatus int
		wantBody   []string
	}{
		{
			name: "derived tax figures",
			body: `{"label":"Computer","price_duty_free":"1999.99","tax_rate":"20"}`,
			setupMock: func(m *catalog.MockRepository) {
				m.EXPECT().CreateItems(gomock.Any(), gomock.Len(1)).Return(nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   []string{`"tax_amount":"400"`, `"price_including_tax":"2399.99"`},
		},
		{
			name:       "numeric json accepted",
			body:       `{"label":"Cable","price_duty_free":12.5,"tax_rate":5.5}`,
			setupMock:  func(m *catalog.MockRepository) { m.EXPECT().CreateItems(gomock.Any(), gomock.Any()).Return(nil) },
			wantStatus: http.StatusCreated,
			wantBody:   []string{`"label":"Cable"`},
		},
		{
			name:       "negative price",
			body:       `{"label":"Computer","price_duty_free":"-1","tax_rate":"20"}`,
			setupMock:  func(m *catalog.MockRepository) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   []string{`"field":"price_duty_free"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, repo := newRouter(t)
			tt.setupMock(repo)

			req := httptest.NewRequest(http.MethodPost, "/items/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			for _, want := range tt.wantBody {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func upload(t *testing.T, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "items.csv")
	require.NoError(t, err)

	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/items/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestHandler_Import(t *testing.T) {
	t.Run("all rows stored", func(t *testing.T) {
		router, repo := newRouter(t)

		repo.EXPECT().CreateItems(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, items []*catalog.Item) error {
			require.Len(t, items, 2)
			assert.Equal(t, "Écran", items[1].Label)
			assert.Equal(t, "189.9", items[1].PriceDutyFree.String())
			return nil
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, upload(t, "libellé;prix;tva\nOrdinateur;1 299,00;20\nÉcran;189,90;20\n"))

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"imported":2`)
	})

	t.Run("invalid row rejects the file", func(t *testing.T) {
		router, _ := newRouter(t)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, upload(t, "label;price;tax\nComputer;abc;20\n"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "row 2")
	})

	t.Run("missing file", func(t *testing.T) {
		router, _ := newRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/items/import", strings.NewReader(""))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
