package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/garyjia/sales-tax-reports/internal/application/port"
	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
	"github.com/garyjia/sales-tax-reports/internal/retry"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultCoverKeyPrefix is where generated covers are stored
const DefaultCoverKeyPrefix = "ai/cover_images"

var (
	// ErrEmptyResponse is returned when the model produced no usable content
	ErrEmptyResponse = errors.New("no content returned")
)

// GeneratorConfig configures the product generator
type GeneratorConfig struct {
	APIKey         string
	BaseURL        string
	Retry          retry.Policy
	CoverKeyPrefix string
}

// ProductGenerator implements port.ProductGenerator using OpenAI
type ProductGenerator struct {
	client         *openai.Client
	storage        port.ObjectStorage
	prompts        *PromptConfig
	retry          retry.Policy
	coverKeyPrefix string
	logger         *zap.Logger
}

// NewProductGenerator creates a new OpenAI product generator
func NewProductGenerator(cfg GeneratorConfig, prompts *PromptConfig, storage port.ObjectStorage, logger *zap.Logger) *ProductGenerator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	policy := cfg.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy
	}

	prefix := strings.Trim(cfg.CoverKeyPrefix, "/")
	if prefix == "" {
		prefix = DefaultCoverKeyPrefix
	}

	return &ProductGenerator{
		client:         openai.NewClientWithConfig(clientConfig),
		storage:        storage,
		prompts:        prompts,
		retry:          policy,
		coverKeyPrefix: prefix,
		logger:         logger,
	}
}

// GenerateProductDetails drafts a listing from a free-form prompt
func (g *ProductGenerator) GenerateProductDetails(ctx context.Context, seller entity.Seller, prompt string) (*entity.ProductDetails, error) {
	cfg := g.prompts.ProductDetails
	data := map[string]interface{}{
		"NativeTypes": strings.Join(entity.SupportedNativeTypes, ", "),
		"Currency":    seller.CurrencyCode,
		"Prompt":      prompt,
	}

	details, duration, err := retry.Do(ctx, g.retry.WithTimeout(cfg.Timeout), "Generate product details", g.logger,
		func(ctx context.Context) (*entity.ProductDetails, error) {
			content, err := g.chat(ctx, cfg, data)
			if err != nil {
				return nil, err
			}

			var details entity.ProductDetails
			if err := json.Unmarshal([]byte(content), &details); err != nil {
				return nil, fmt.Errorf("failed to parse response: %w", err)
			}
			return &details, nil
		})
	if err != nil {
		return nil, err
	}

	details.CurrencyCode = seller.CurrencyCode
	details.DurationInSeconds = duration.Seconds()
	return details, nil
}

// GenerateCoverImage renders a square cover for the product and stores it
func (g *ProductGenerator) GenerateCoverImage(ctx context.Context, productName string) (*entity.CoverImage, error) {
	cfg := g.prompts.CoverImage

	cover, duration, err := retry.Do(ctx, g.retry.WithTimeout(cfg.Timeout), "Generate cover image", g.logger,
		func(ctx context.Context) (*entity.CoverImage, error) {
			prompt, err := renderTemplate(cfg.UserTemplate, map[string]string{"Name": productName})
			if err != nil {
				return nil, err
			}

			resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
				Prompt:       prompt,
				Model:        cfg.Model,
				Size:         cfg.Size,
				Quality:      cfg.Quality,
				OutputFormat: cfg.OutputFormat,
			})
			if err != nil {
				return nil, fmt.Errorf("OpenAI API call failed: %w", err)
			}
			if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
				return nil, fmt.Errorf("failed to generate cover image: %w", ErrEmptyResponse)
			}

			image, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
			if err != nil {
				return nil, fmt.Errorf("failed to decode image: %w", err)
			}

			format := cfg.OutputFormat
			if format == "" {
				format = "png"
			}
			contentType := "image/" + format
			key := path.Join(g.coverKeyPrefix, fmt.Sprintf("%s.%s", uuid.NewString(), format))
			if err := g.storage.Upload(ctx, key, image, contentType); err != nil {
				return nil, fmt.Errorf("failed to store cover image: %w", err)
			}

			return &entity.CoverImage{Key: key, ContentType: contentType, Size: len(image)}, nil
		})
	if err != nil {
		return nil, err
	}

	cover.DurationInSeconds = duration.Seconds()
	return cover, nil
}

// GenerateRichContentPages writes editor pages for a drafted product
func (g *ProductGenerator) GenerateRichContentPages(ctx context.Context, seller entity.Seller, product *entity.ProductDetails) (*entity.RichContent, error) {
	cfg := g.prompts.RichContentPages
	frequency := 0
	if product.PriceFrequencyInMonths != nil {
		frequency = *product.PriceFrequencyInMonths
	}
	data := map[string]interface{}{
		"Name":                   product.Name,
		"Description":            product.Description,
		"NativeType":             product.NativeType,
		"Price":                  product.Price,
		"Currency":               seller.CurrencyCode,
		"PriceFrequencyInMonths": frequency,
	}

	pages, duration, err := retry.Do(ctx, g.retry.WithTimeout(cfg.Timeout), "Generate rich content pages", g.logger,
		func(ctx context.Context) ([]entity.RichContentPage, error) {
			content, err := g.chat(ctx, cfg, data)
			if err != nil {
				return nil, err
			}
			return parsePages(content)
		})
	if err != nil {
		return nil, err
	}

	return &entity.RichContent{Pages: pages, DurationInSeconds: duration.Seconds()}, nil
}

func (g *ProductGenerator) chat(ctx context.Context, cfg ChatPrompt, data interface{}) (string, error) {
	system, err := renderTemplate(cfg.System, data)
	if err != nil {
		return "", err
	}
	user, err := renderTemplate(cfg.UserTemplate, data)
	if err != nil {
		return "", err
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// parsePages accepts either {"pages": [...]} or a bare array
func parsePages(content string) ([]entity.RichContentPage, error) {
	var wrapped struct {
		Pages []entity.RichContentPage `json:"pages"`
	}
	if err := json.Unmarshal([]byte(content), &wrapped); err == nil && len(wrapped.Pages) > 0 {
		return wrapped.Pages, nil
	}

	var pages []entity.RichContentPage
	if err := json.Unmarshal([]byte(content), &pages); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("failed to generate rich content pages: %w", ErrEmptyResponse)
	}
	return pages, nil
}

// Verify interface compliance
var _ port.ProductGenerator = (*ProductGenerator)(nil)
