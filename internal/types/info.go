package types

// Info holds the scalar company fields. Absent numeric fields are zero;
// fields whose fallback is not zero are pointers and are read through Or.
type Info struct {
	Symbol              string `json:"symbol,omitempty"`
	Sector              string `json:"sector,omitempty"`
	Industry            string `json:"industry,omitempty"`
	LongBusinessSummary string `json:"longBusinessSummary,omitempty"`

	CurrentPrice       float64 `json:"currentPrice,omitempty"`
	RegularMarketPrice float64 `json:"regularMarketPrice,omitempty"`
	SharesOutstanding  float64 `json:"sharesOutstanding,omitempty"`
	EnterpriseValue    float64 `json:"enterpriseValue,omitempty"`

	TotalCash        float64 `json:"totalCash,omitempty"`
	TotalDebt        float64 `json:"totalDebt,omitempty"`
	TotalAssets      float64 `json:"totalAssets,omitempty"`
	TotalLiabilities float64 `json:"totalLiabilities,omitempty"`
	IntangibleAssets float64 `json:"intangibleAssets,omitempty"`
	MinorityInterest float64 `json:"minorityInterest,omitempty"`
	TotalRevenue     float64 `json:"totalRevenue,omitempty"`
	EBITDA           float64 `json:"ebitda,omitempty"`
	EBITDAMargins    float64 `json:"ebitdaMargins,omitempty"`
	ProfitMargins    float64 `json:"profitMargins,omitempty"`
	TrailingEPS      float64 `json:"trailingEps,omitempty"`
	TrailingPE       float64 `json:"trailingPE,omitempty"`
	ForwardPE        float64 `json:"forwardPE,omitempty"`
	PriceToBook      float64 `json:"priceToBook,omitempty"`
	PEGRatio         float64 `json:"pegRatio,omitempty"`
	PriceToSalesTTM  float64 `json:"priceToSalesTrailing12Months,omitempty"`
	DividendYield    float64 `json:"dividendYield,omitempty"`

	Beta                *float64 `json:"beta,omitempty"`
	IndustryPE          *float64 `json:"industryPE,omitempty"`
	PayoutRatio         *float64 `json:"payoutRatio,omitempty"`
	EarningsGrowth      *float64 `json:"earningsGrowth,omitempty"`
	RevenueGrowth       *float64 `json:"revenueGrowth,omitempty"`
	GrossMargins        *float64 `json:"grossMargins,omitempty"`
	ResearchDevelopment *float64 `json:"researchDevelopment,omitempty"`
}

// Price is currentPrice, falling back to regularMarketPrice.
func (i Info) Price() float64 {
	if i.CurrentPrice != 0 {
		return i.CurrentPrice
	}
	return i.RegularMarketPrice
}

// Or dereferences p, returning def when p is nil.
func Or(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Upside is the percentage distance from price to fair value, 0 when price is
// not positive.
func Upside(fairValue, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return (fairValue - price) / price * 100
}
