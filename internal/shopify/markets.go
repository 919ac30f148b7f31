package shopify

import (
	"context"
	"slices"

	"github.com/mattparisien/becoming-front/internal/domain"
)

// MarketAPI reads market configuration from the Admin API.
type MarketAPI struct {
	client *Client
}

// NewMarketAPI creates a MarketAPI over an Admin client.
func NewMarketAPI(client *Client) *MarketAPI {
	return &MarketAPI{client: client}
}

type marketNode struct {
	Name        string `json:"name"`
	Handle      string `json:"handle"`
	WebPresence *struct {
		RootURLs []struct {
			Locale string `json:"locale"`
			URL    string `json:"url"`
		} `json:"rootUrls"`
	} `json:"webPresence"`
	CurrencySettings struct {
		BaseCurrency struct {
			CurrencyCode string `json:"currencyCode"`
		} `json:"baseCurrency"`
	} `json:"currencySettings"`
}

// Markets lists up to 100 markets. A market's handle is its country code and
// its locales come from its web presence root URLs.
func (a *MarketAPI) Markets(ctx context.Context) ([]domain.Market, error) {
	var data struct {
		Markets struct {
			Nodes []marketNode `json:"nodes"`
		} `json:"markets"`
	}
	if err := a.client.Do(ctx, "markets", marketsQuery, nil, &data); err != nil {
		return nil, err
	}

	out := make([]domain.Market, 0, len(data.Markets.Nodes))
	for _, n := range data.Markets.Nodes {
		m := domain.Market{
			Country:      domain.Country{Name: n.Name, Code: n.Handle},
			CurrencyCode: n.CurrencySettings.BaseCurrency.CurrencyCode,
			Locales:      []string{},
		}
		if n.WebPresence != nil {
			for _, u := range n.WebPresence.RootURLs {
				if u.Locale != "" && !slices.Contains(m.Locales, u.Locale) {
					m.Locales = append(m.Locales, u.Locale)
				}
			}
		}
		out = append(out, m)
	}
	return out, nil
}
