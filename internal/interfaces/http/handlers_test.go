package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
	"github.com/garyjia/sales-tax-reports/internal/taxreport"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockReportRunner struct {
	runFunc func(ctx context.Context, month, year *int) (*taxreport.RunResult, error)
}

func (m *mockReportRunner) Run(ctx context.Context, month, year *int) (*taxreport.RunResult, error) {
	return m.runFunc(ctx, month, year)
}

type mockGenerator struct {
	detailsFunc func(ctx context.Context, seller entity.Seller, prompt string) (*entity.ProductDetails, error)
	coverFunc   func(ctx context.Context, productName string) (*entity.CoverImage, error)
	pagesFunc   func(ctx context.Context, seller entity.Seller, product *entity.ProductDetails) (*entity.RichContent, error)
	calls       int
}

func (m *mockGenerator) GenerateProductDetails(ctx context.Context, seller entity.Seller, prompt string) (*entity.ProductDetails, error) {
	m.calls++
	return m.detailsFunc(ctx, seller, prompt)
}

func (m *mockGenerator) GenerateCoverImage(ctx context.Context, productName string) (*entity.CoverImage, error) {
	m.calls++
	if m.coverFunc == nil {
		return nil, errors.New("not implemented")
	}
	return m.coverFunc(ctx, productName)
}

func (m *mockGenerator) GenerateRichContentPages(ctx context.Context, seller entity.Seller, product *entity.ProductDetails) (*entity.RichContent, error) {
	m.calls++
	if m.pagesFunc == nil {
		return nil, errors.New("not implemented")
	}
	return m.pagesFunc(ctx, seller, product)
}

func newTestServer(deps Dependencies) *Server {
	return NewServer(DefaultServerConfig(), deps, nopLogger{})
}

func doRequest(t *testing.T, s *Server, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestHealthCheck(t *testing.T) {
	rec, body := doRequest(t, newTestServer(Dependencies{}), http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "healthy", body["data"].(map[string]interface{})["status"])
}

func TestCreateIndiaSalesReport(t *testing.T) {
	period, err := entity.NewReportingPeriod(6, 2023)
	require.NoError(t, err)

	success := func(ctx context.Context, month, year *int) (*taxreport.RunResult, error) {
		return &taxreport.RunResult{
			RunID:    "run-42",
			Period:   period,
			Rows:     make([]entity.ReportRow, 3),
			Report:   &taxreport.Artifact{Key: "sales_tax/in/2023/06/india-sales-report-2023-06.csv", URL: "https://example.com/r.csv"},
			Duration: 1500 * time.Millisecond,
		}, nil
	}

	tests := []struct {
		name       string
		body       string
		runFunc    func(ctx context.Context, month, year *int) (*taxreport.RunResult, error)
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "empty body defaults period",
			runFunc: func(ctx context.Context, month, year *int) (*taxreport.RunResult, error) {
				assert.Nil(t, month)
				assert.Nil(t, year)
				return success(ctx, month, year)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				data := body["data"].(map[string]interface{})
				assert.Equal(t, "run-42", data["run_id"])
				assert.Equal(t, float64(3), data["row_count"])
				assert.Equal(t, "https://example.com/r.csv", data["report_url"])
				assert.Equal(t, float64(1500), data["duration_ms"])
				assert.NotContains(t, data, "workbook_url")
			},
		},
		{
			name: "explicit period",
			body: `{"month": 6, "year": 2023}`,
			runFunc: func(ctx context.Context, month, year *int) (*taxreport.RunResult, error) {
				require.NotNil(t, month)
				require.NotNil(t, year)
				assert.Equal(t, 6, *month)
				assert.Equal(t, 2023, *year)
				return success(ctx, month, year)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "invalid period",
			body: `{"month": 13}`,
			runFunc: func(ctx context.Context, month, year *int) (*taxreport.RunResult, error) {
				return nil, fmt.Errorf("%w: month 13", entity.ErrInvalidPeriod)
			},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, false, body["success"])
				assert.Contains(t, body["error"], "invalid reporting period")
			},
		},
		{
			name: "month without year",
			body: `{"month": 6}`,
			runFunc: func(ctx context.Context, month, year *int) (*taxreport.RunResult, error) {
				require.NotNil(t, month)
				assert.Nil(t, year)
				return nil, fmt.Errorf("%w: year is required when month is given", entity.ErrInvalidPeriod)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "run failure",
			runFunc: func(ctx context.Context, month, year *int) (*taxreport.RunResult, error) {
				return nil, &taxreport.StageError{Stage: taxreport.StagePublishing, Err: taxreport.ErrPublish}
			},
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "report generation failed", body["error"])
			},
		},
		{
			name:       "malformed body",
			body:       `{"month": "june"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockReportRunner{runFunc: tt.runFunc}
			if runner.runFunc == nil {
				runner.runFunc = func(ctx context.Context, month, year *int) (*taxreport.RunResult, error) {
					t.Fatal("runner should not be called")
					return nil, nil
				}
			}

			rec, body := doRequest(t, newTestServer(Dependencies{Reports: runner}), http.MethodPost, "/api/internal/reports/india-sales", tt.body, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestGenerateProductDetails(t *testing.T) {
	const path = "/api/internal/ai_product_details_generations"
	seller := map[string]string{SellerIDHeader: "seller-1"}
	pages := 5

	tests := []struct {
		name       string
		gate       FeatureGate
		headers    map[string]string
		body       string
		detailsFn  func(ctx context.Context, seller entity.Seller, prompt string) (*entity.ProductDetails, error)
		wantStatus int
		wantBody   map[string]interface{}
		wantCalls  int
	}{
		{
			name:    "generates product details",
			gate:    AIFeatureGate{Enabled: true},
			headers: seller,
			body:    `{"prompt": "Create a digital art course about Figma design"}`,
			detailsFn: func(ctx context.Context, s entity.Seller, prompt string) (*entity.ProductDetails, error) {
				assert.Equal(t, "seller-1", s.ID)
				assert.Equal(t, "usd", s.CurrencyCode)
				assert.Equal(t, "Create a digital art course about Figma design", prompt)
				return &entity.ProductDetails{
					Name:                 "Figma Design Mastery",
					Description:          "<p>Learn professional UI/UX design using Figma</p>",
					Summary:              "Complete guide to Figma design",
					NumberOfContentPages: &pages,
					Price:                2500,
					CurrencyCode:         "usd",
					NativeType:           "ebook",
					DurationInSeconds:    2.5,
				}, nil
			},
			wantStatus: http.StatusOK,
			wantBody: map[string]interface{}{
				"success": true,
				"data": map[string]interface{}{
					"name":                      "Figma Design Mastery",
					"description":               "<p>Learn professional UI/UX design using Figma</p>",
					"summary":                   "Complete guide to Figma design",
					"number_of_content_pages":   float64(5),
					"price":                     float64(2500),
					"currency_code":             "usd",
					"price_frequency_in_months": nil,
					"native_type":               "ebook",
					"duration_in_seconds":       2.5,
				},
			},
			wantCalls: 1,
		},
		{
			name:       "blank prompt",
			gate:       AIFeatureGate{Enabled: true},
			headers:    seller,
			body:       `{"prompt": "   "}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]interface{}{"error": "Prompt is required"},
		},
		{
			name:       "missing prompt",
			gate:       AIFeatureGate{Enabled: true},
			headers:    seller,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]interface{}{"error": "Prompt is required"},
		},
		{
			name:    "generation failure",
			gate:    AIFeatureGate{Enabled: true},
			headers: map[string]string{SellerIDHeader: "seller-1", SellerCurrencyHeader: "inr"},
			body:    `{"prompt": "ebook"}`,
			detailsFn: func(ctx context.Context, s entity.Seller, prompt string) (*entity.ProductDetails, error) {
				assert.Equal(t, "inr", s.CurrencyCode)
				return nil, errors.New("max retries exceeded")
			},
			wantStatus: http.StatusInternalServerError,
			wantBody: map[string]interface{}{
				"success": false,
				"error":   "Failed to generate product details. Please try again.",
			},
			wantCalls: 1,
		},
		{
			name:       "feature disabled",
			gate:       AIFeatureGate{},
			headers:    seller,
			body:       `{"prompt": "ebook"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "seller not allowed",
			gate:       AIFeatureGate{Enabled: true, AllowedSellers: []string{"seller-2"}},
			headers:    seller,
			body:       `{"prompt": "ebook"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing seller",
			gate:       AIFeatureGate{Enabled: true},
			body:       `{"prompt": "ebook"}`,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{detailsFunc: tt.detailsFn}
			s := newTestServer(Dependencies{Generator: gen, Gate: tt.gate})

			rec, body := doRequest(t, s, http.MethodPost, path, tt.body, tt.headers)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != nil {
				assert.Equal(t, tt.wantBody, body)
			}
			assert.Equal(t, tt.wantCalls, gen.calls)
		})
	}
}

func TestGenerateCoverImage(t *testing.T) {
	const path = "/api/internal/ai_cover_image_generations"
	seller := map[string]string{SellerIDHeader: "seller-1"}

	tests := []struct {
		name       string
		gate       FeatureGate
		headers    map[string]string
		body       string
		coverFn    func(ctx context.Context, productName string) (*entity.CoverImage, error)
		wantStatus int
		wantBody   map[string]interface{}
		wantCalls  int
	}{
		{
			name:    "generates cover image",
			gate:    AIFeatureGate{Enabled: true},
			headers: seller,
			body:    `{"product_name": "Figma Design Mastery"}`,
			coverFn: func(ctx context.Context, productName string) (*entity.CoverImage, error) {
				assert.Equal(t, "Figma Design Mastery", productName)
				return &entity.CoverImage{
					Key:               "ai/covers/abc.png",
					ContentType:       "image/png",
					Size:              2048,
					DurationInSeconds: 4.5,
				}, nil
			},
			wantStatus: http.StatusOK,
			wantBody: map[string]interface{}{
				"success": true,
				"data": map[string]interface{}{
					"key":                 "ai/covers/abc.png",
					"content_type":        "image/png",
					"size":                float64(2048),
					"duration_in_seconds": 4.5,
				},
			},
			wantCalls: 1,
		},
		{
			name:       "missing product name",
			gate:       AIFeatureGate{Enabled: true},
			headers:    seller,
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]interface{}{"error": "Product name is required"},
		},
		{
			name:    "generation failure",
			gate:    AIFeatureGate{Enabled: true},
			headers: seller,
			body:    `{"product_name": "ebook"}`,
			coverFn: func(ctx context.Context, productName string) (*entity.CoverImage, error) {
				return nil, errors.New("max retries exceeded")
			},
			wantStatus: http.StatusInternalServerError,
			wantBody: map[string]interface{}{
				"success": false,
				"error":   "Failed to generate cover image. Please try again.",
			},
			wantCalls: 1,
		},
		{
			name:       "feature disabled",
			gate:       AIFeatureGate{},
			headers:    seller,
			body:       `{"product_name": "ebook"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing seller",
			gate:       AIFeatureGate{Enabled: true},
			body:       `{"product_name": "ebook"}`,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{coverFunc: tt.coverFn}
			s := newTestServer(Dependencies{Generator: gen, Gate: tt.gate})

			rec, body := doRequest(t, s, http.MethodPost, path, tt.body, tt.headers)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != nil {
				assert.Equal(t, tt.wantBody, body)
			}
			assert.Equal(t, tt.wantCalls, gen.calls)
		})
	}
}

func TestGenerateRichContentPages(t *testing.T) {
	const path = "/api/internal/ai_rich_content_generations"
	seller := map[string]string{SellerIDHeader: "seller-1", SellerCurrencyHeader: "inr"}

	tests := []struct {
		name       string
		gate       FeatureGate
		headers    map[string]string
		body       string
		pagesFn    func(ctx context.Context, seller entity.Seller, product *entity.ProductDetails) (*entity.RichContent, error)
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
		wantCalls  int
	}{
		{
			name:    "generates pages",
			gate:    AIFeatureGate{Enabled: true},
			headers: seller,
			body:    `{"product": {"name": "Figma Design Mastery", "native_type": "ebook", "price": 2500}}`,
			pagesFn: func(ctx context.Context, s entity.Seller, product *entity.ProductDetails) (*entity.RichContent, error) {
				assert.Equal(t, "seller-1", s.ID)
				assert.Equal(t, "inr", s.CurrencyCode)
				assert.Equal(t, "Figma Design Mastery", product.Name)
				assert.Equal(t, "ebook", product.NativeType)
				assert.Equal(t, float64(2500), product.Price)
				return &entity.RichContent{
					Pages: []entity.RichContentPage{
						{Title: "Getting started", Content: []json.RawMessage{json.RawMessage(`{"type":"paragraph"}`)}},
						{Title: "Components"},
					},
					DurationInSeconds: 3,
				}, nil
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				data := body["data"].(map[string]interface{})
				pages := data["pages"].([]interface{})
				require.Len(t, pages, 2)
				first := pages[0].(map[string]interface{})
				assert.Equal(t, "Getting started", first["title"])
				assert.Equal(t, []interface{}{map[string]interface{}{"type": "paragraph"}}, first["content"])
				assert.Equal(t, float64(3), data["duration_in_seconds"])
			},
			wantCalls: 1,
		},
		{
			name:       "missing product",
			gate:       AIFeatureGate{Enabled: true},
			headers:    seller,
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Product is required", body["error"])
			},
		},
		{
			name:    "generation failure",
			gate:    AIFeatureGate{Enabled: true},
			headers: seller,
			body:    `{"product": {"name": "ebook"}}`,
			pagesFn: func(ctx context.Context, s entity.Seller, product *entity.ProductDetails) (*entity.RichContent, error) {
				return nil, errors.New("max retries exceeded")
			},
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Failed to generate rich content. Please try again.", body["error"])
			},
			wantCalls: 1,
		},
		{
			name:       "seller not allowed",
			gate:       AIFeatureGate{Enabled: true, AllowedSellers: []string{"seller-2"}},
			headers:    seller,
			body:       `{"product": {"name": "ebook"}}`,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{pagesFunc: tt.pagesFn}
			s := newTestServer(Dependencies{Generator: gen, Gate: tt.gate})

			rec, body := doRequest(t, s, http.MethodPost, path, tt.body, tt.headers)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.check != nil {
				tt.check(t, body)
			}
			assert.Equal(t, tt.wantCalls, gen.calls)
		})
	}
}

func TestAIFeatureGate(t *testing.T) {
	assert.False(t, AIFeatureGate{}.AllowsSeller("s"))
	assert.True(t, AIFeatureGate{Enabled: true}.AllowsSeller("s"))
	assert.True(t, AIFeatureGate{Enabled: true, AllowedSellers: []string{"a", "s"}}.AllowsSeller("s"))
	assert.False(t, AIFeatureGate{Enabled: true, AllowedSellers: []string{"a"}}.AllowsSeller("s"))
}
