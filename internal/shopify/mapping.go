package shopify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mattparisien/becoming-front/internal/domain"
)

type money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type image struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

type videoSource struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

type mediaNode struct {
	MediaContentType string        `json:"mediaContentType"`
	Image            *image        `json:"image"`
	Sources          []videoSource `json:"sources"`
	EmbedURL         string        `json:"embedUrl"`
}

type productNode struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Handle          string `json:"handle"`
	ProductType     string `json:"productType"`
	Description     string `json:"description"`
	DescriptionHTML string `json:"descriptionHtml"`
	FeaturedImage   *image `json:"featuredImage"`
	Media           struct {
		Edges []struct {
			Node mediaNode `json:"node"`
		} `json:"edges"`
	} `json:"media"`
}

type variantNode struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Image   *image      `json:"image"`
	Price   money       `json:"price"`
	Product productNode `json:"product"`
}

type cartLineNode struct {
	ID          string      `json:"id"`
	Quantity    int         `json:"quantity"`
	Merchandise variantNode `json:"merchandise"`
}

type cartNode struct {
	ID            string `json:"id"`
	CheckoutURL   string `json:"checkoutUrl"`
	TotalQuantity int    `json:"totalQuantity"`
	Cost          struct {
		TotalAmount    money `json:"totalAmount"`
		SubtotalAmount money `json:"subtotalAmount"`
	} `json:"cost"`
	Lines struct {
		Edges []struct {
			Node cartLineNode `json:"node"`
		} `json:"edges"`
	} `json:"lines"`
}

// toCart flattens the GraphQL cart graph into the storefront shape.
func toCart(n *cartNode) (*domain.Cart, error) {
	total, err := decimal.NewFromString(n.Cost.TotalAmount.Amount)
	if err != nil {
		return nil, fmt.Errorf("cart total: %w", err)
	}
	subtotal, err := decimal.NewFromString(n.Cost.SubtotalAmount.Amount)
	if err != nil {
		return nil, fmt.Errorf("cart subtotal: %w", err)
	}

	items := make([]domain.CartLine, 0, len(n.Lines.Edges))
	for _, e := range n.Lines.Edges {
		line, err := toLine(e.Node)
		if err != nil {
			return nil, err
		}
		items = append(items, line)
	}

	id, checkoutURL := n.ID, n.CheckoutURL
	return &domain.Cart{
		ID:            &id,
		CheckoutURL:   &checkoutURL,
		Items:         items,
		TotalQuantity: n.TotalQuantity,
		Cost: &domain.Cost{
			Total:        total,
			Subtotal:     subtotal,
			CurrencyCode: n.Cost.TotalAmount.CurrencyCode,
		},
	}, nil
}

func toLine(n cartLineNode) (domain.CartLine, error) {
	m := n.Merchandise
	price, err := decimal.NewFromString(m.Price.Amount)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("line %s price: %w", n.ID, err)
	}

	img := m.Image
	if img == nil || img.URL == "" {
		img = m.Product.FeaturedImage
	}
	var imageURL, imageAlt string
	if img != nil {
		imageURL, imageAlt = img.URL, img.AltText
	}

	mediaType, mimeType := lineMedia(m.Product)

	return domain.CartLine{
		LineID:          n.ID,
		Quantity:        n.Quantity,
		VariantID:       m.ID,
		VariantTitle:    m.Title,
		ProductID:       m.Product.ID,
		ProductTitle:    m.Product.Title,
		ProductHandle:   m.Product.Handle,
		ProductType:     m.Product.ProductType,
		Description:     m.Product.Description,
		DescriptionHTML: m.Product.DescriptionHTML,
		Price:           price,
		CurrencyCode:    m.Price.CurrencyCode,
		Image:           imageURL,
		ImageAlt:        imageAlt,
		MediaType:       mediaType,
		MimeType:        mimeType,
	}, nil
}

// lineMedia classifies the product's first media node. Video mime types
// prefer an mp4 source.
func lineMedia(p productNode) (mediaType, mimeType string) {
	if len(p.Media.Edges) == 0 {
		return domain.MediaImage, ""
	}
	node := p.Media.Edges[0].Node
	if !strings.Contains(strings.ToUpper(node.MediaContentType), "VIDEO") {
		return domain.MediaImage, ""
	}
	for _, s := range node.Sources {
		if s.MimeType == "video/mp4" {
			return domain.MediaVideo, s.MimeType
		}
	}
	if len(node.Sources) > 0 {
		return domain.MediaVideo, node.Sources[0].MimeType
	}
	return domain.MediaVideo, ""
}
