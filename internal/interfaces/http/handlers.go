package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
	"github.com/garyjia/sales-tax-reports/internal/taxreport"
)

const (
	// SellerIDHeader carries the authenticated seller, set by the auth proxy
	SellerIDHeader = "X-Seller-ID"
	// SellerCurrencyHeader carries the seller's currency when known
	SellerCurrencyHeader = "X-Seller-Currency"
)

// ReportRunner runs the India sales report for an optional period
type ReportRunner interface {
	Run(ctx context.Context, month, year *int) (*taxreport.RunResult, error)
}

// FeatureGate reports whether AI product generation is enabled for a seller
type FeatureGate interface {
	AllowsSeller(sellerID string) bool
}

// AIFeatureGate enables AI generation globally or for listed sellers only
type AIFeatureGate struct {
	Enabled        bool
	AllowedSellers []string // empty allows every seller
}

// AllowsSeller implements FeatureGate
func (g AIFeatureGate) AllowsSeller(sellerID string) bool {
	if !g.Enabled {
		return false
	}
	if len(g.AllowedSellers) == 0 {
		return true
	}
	return slices.Contains(g.AllowedSellers, sellerID)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger Logger) *Handlers {
	if deps.Gate == nil {
		deps.Gate = AIFeatureGate{}
	}
	if deps.DefaultCurrency == "" {
		deps.DefaultCurrency = "usd"
	}
	return &Handlers{deps: deps, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ReportRequest selects the reporting period; omit both fields for the
// previous calendar month
type ReportRequest struct {
	Month *int `json:"month"`
	Year  *int `json:"year"`
}

// ReportResponse describes a completed report run
type ReportResponse struct {
	RunID       string `json:"run_id"`
	Period      string `json:"period"`
	RowCount    int    `json:"row_count"`
	ReportKey   string `json:"report_key"`
	ReportURL   string `json:"report_url"`
	WorkbookURL string `json:"workbook_url,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

// GenerateProductDetailsRequest is the body of an AI generation request
type GenerateProductDetailsRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateCoverImageRequest is the body of a cover image request
type GenerateCoverImageRequest struct {
	ProductName string `json:"product_name"`
}

// GenerateRichContentRequest carries the drafted product to write pages for
type GenerateRichContentRequest struct {
	Product *entity.ProductDetails `json:"product"`
}

// CoverImageResponse references the stored cover
type CoverImageResponse struct {
	Key               string  `json:"key"`
	ContentType       string  `json:"content_type"`
	Size              int     `json:"size"`
	DurationInSeconds float64 `json:"duration_in_seconds"`
}

// RichContentResponse lists the generated editor pages
type RichContentResponse struct {
	Pages             []entity.RichContentPage `json:"pages"`
	DurationInSeconds float64                  `json:"duration_in_seconds"`
}

// ProductDetailsResponse lists every generated field, null when absent
type ProductDetailsResponse struct {
	Name                   string  `json:"name"`
	Description            string  `json:"description"`
	Summary                string  `json:"summary"`
	NumberOfContentPages   *int    `json:"number_of_content_pages"`
	Price                  float64 `json:"price"`
	CurrencyCode           string  `json:"currency_code"`
	PriceFrequencyInMonths *int    `json:"price_frequency_in_months"`
	NativeType             string  `json:"native_type"`
	DurationInSeconds      float64 `json:"duration_in_seconds"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// CreateIndiaSalesReport handles POST /api/internal/reports/india-sales
func (h *Handlers) CreateIndiaSalesReport(c *gin.Context) {
	if h.deps.Reports == nil {
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "reporting is not configured"})
		return
	}

	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("Invalid report request", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	result, err := h.deps.Reports.Run(c.Request.Context(), req.Month, req.Year)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidPeriod) {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
		h.logger.Error("India sales report failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "report generation failed"})
		return
	}

	h.logger.Info("India sales report created", "run_id", result.RunID, "period", result.Period.String())

	resp := ReportResponse{
		RunID:      result.RunID,
		Period:     result.Period.String(),
		RowCount:   len(result.Rows),
		DurationMS: result.Duration.Milliseconds(),
	}
	if result.Report != nil {
		resp.ReportKey = result.Report.Key
		resp.ReportURL = result.Report.URL
	}
	if result.Workbook != nil {
		resp.WorkbookURL = result.Workbook.URL
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

// sellerForGeneration resolves the calling seller and applies the AI feature
// gate, writing the rejection response when generation is not allowed
func (h *Handlers) sellerForGeneration(c *gin.Context) (entity.Seller, bool) {
	sellerID := c.GetHeader(SellerIDHeader)
	if sellerID == "" {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "seller is required"})
		return entity.Seller{}, false
	}
	if h.deps.Generator == nil || !h.deps.Gate.AllowsSeller(sellerID) {
		c.JSON(http.StatusForbidden, Response{Success: false, Error: "AI product generation is not enabled"})
		return entity.Seller{}, false
	}

	seller := entity.Seller{ID: sellerID, CurrencyCode: c.GetHeader(SellerCurrencyHeader)}
	if seller.CurrencyCode == "" {
		seller.CurrencyCode = h.deps.DefaultCurrency
	}
	return seller, true
}

// GenerateProductDetails handles POST /api/internal/ai_product_details_generations
func (h *Handlers) GenerateProductDetails(c *gin.Context) {
	seller, ok := h.sellerForGeneration(c)
	if !ok {
		return
	}

	var req GenerateProductDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("Invalid product details request", "error", err)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required"})
		return
	}

	details, err := h.deps.Generator.GenerateProductDetails(c.Request.Context(), seller, req.Prompt)
	if err != nil {
		h.logger.Error("Product details generation using AI failed", "seller_id", seller.ID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to generate product details. Please try again.",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ProductDetailsResponse{
			Name:                   details.Name,
			Description:            details.Description,
			Summary:                details.Summary,
			NumberOfContentPages:   details.NumberOfContentPages,
			Price:                  details.Price,
			CurrencyCode:           details.CurrencyCode,
			PriceFrequencyInMonths: details.PriceFrequencyInMonths,
			NativeType:             details.NativeType,
			DurationInSeconds:      details.DurationInSeconds,
		},
	})
}

// GenerateCoverImage handles POST /api/internal/ai_cover_image_generations
func (h *Handlers) GenerateCoverImage(c *gin.Context) {
	seller, ok := h.sellerForGeneration(c)
	if !ok {
		return
	}

	var req GenerateCoverImageRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("Invalid cover image request", "error", err)
	}
	if strings.TrimSpace(req.ProductName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product name is required"})
		return
	}

	cover, err := h.deps.Generator.GenerateCoverImage(c.Request.Context(), req.ProductName)
	if err != nil {
		h.logger.Error("Cover image generation using AI failed", "seller_id", seller.ID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to generate cover image. Please try again.",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: CoverImageResponse{
			Key:               cover.Key,
			ContentType:       cover.ContentType,
			Size:              cover.Size,
			DurationInSeconds: cover.DurationInSeconds,
		},
	})
}

// GenerateRichContentPages handles POST /api/internal/ai_rich_content_generations
func (h *Handlers) GenerateRichContentPages(c *gin.Context) {
	seller, ok := h.sellerForGeneration(c)
	if !ok {
		return
	}

	var req GenerateRichContentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("Invalid rich content request", "error", err)
	}
	if req.Product == nil || strings.TrimSpace(req.Product.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product is required"})
		return
	}

	content, err := h.deps.Generator.GenerateRichContentPages(c.Request.Context(), seller, req.Product)
	if err != nil {
		h.logger.Error("Rich content generation using AI failed", "seller_id", seller.ID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to generate rich content. Please try again.",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: RichContentResponse{
			Pages:             content.Pages,
			DurationInSeconds: content.DurationInSeconds,
		},
	})
}
