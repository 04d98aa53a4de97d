package entity

import "encoding/json"

// Product native types supported by AI generation
const (
	NativeTypeDigital    = "digital"
	NativeTypeCourse     = "course"
	NativeTypeEbook      = "ebook"
	NativeTypeMembership = "membership"
)

// SupportedNativeTypes lists the native types the generator may propose
var SupportedNativeTypes = []string{
	NativeTypeDigital,
	NativeTypeCourse,
	NativeTypeEbook,
	NativeTypeMembership,
}

// Seller identifies who a product is drafted for
type Seller struct {
	ID           string
	CurrencyCode string
}

// ProductDetails is a drafted product listing
type ProductDetails struct {
	Name                   string  `json:"name"`
	Description            string  `json:"description"`
	Summary                string  `json:"summary"`
	NativeType             string  `json:"native_type"`
	Price                  float64 `json:"price"`
	PriceFrequencyInMonths *int    `json:"price_frequency_in_months,omitempty"`
	NumberOfContentPages   *int    `json:"number_of_content_pages,omitempty"`
	CurrencyCode           string  `json:"currency_code"`
	DurationInSeconds      float64 `json:"duration_in_seconds"`
}

// CoverImage references a generated cover stored in object storage
type CoverImage struct {
	Key               string
	ContentType       string
	Size              int
	DurationInSeconds float64
}

// RichContentPage is one page of editor content (Tiptap JSON)
type RichContentPage struct {
	Title   string            `json:"title"`
	Content []json.RawMessage `json:"content"`
}

// RichContent holds the generated pages
type RichContent struct {
	Pages             []RichContentPage
	DurationInSeconds float64
}
