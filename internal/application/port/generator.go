package port

import (
	"context"

	"github.com/garyjia/sales-tax-reports/internal/domain/entity"
)

// ProductGenerator drafts product content with a generative model
type ProductGenerator interface {
	GenerateProductDetails(ctx context.Context, seller entity.Seller, prompt string) (*entity.ProductDetails, error)
	GenerateCoverImage(ctx context.Context, productName string) (*entity.CoverImage, error)
	GenerateRichContentPages(ctx context.Context, seller entity.Seller, product *entity.ProductDetails) (*entity.RichContent, error)
}
