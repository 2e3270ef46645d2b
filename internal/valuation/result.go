package valuation

import "stock-analyzer/internal/types"

// Method names the calculator that produced a Result.
type Method string

const (
	MethodDCF                Method = "DCF"
	MethodMultiples          Method = "Multiples"
	MethodDDM                Method = "DDM"
	MethodNAV                Method = "NAV"
	MethodREIT               Method = "REIT (FFO)"
	MethodRevenueMultiple    Method = "Revenue Multiple (P/S)"
	MethodNormalizedEarnings Method = "Normalized Earnings (Cyclical)"
	MethodCommodityReserve   Method = "Commodity Reserve Valuation"
	MethodSumOfPartsSimple   Method = "Sum-of-Parts (Simplified)"
	MethodSumOfPartsDetailed Method = "Sum-of-Parts (Detailed)"
	MethodBiotechPipeline    Method = "Biotech Pipeline (rNPV)"
	MethodBiotechNoPipeline  Method = "Biotech Valuation (Simplified - No Pipeline Data)"
	MethodZeroFCF            Method = "Zero-FCF Multi-Method Valuation"
	MethodAuto               Method = "Auto"
)

// Valuation types reported by CalculateValuation.
const (
	TypeTraditionalDCF = "Traditional DCF"
	TypeZeroFCF        = "Zero-FCF Multi-Method"
	TypeMultiples      = "Multiples-Based"
)

// Scenarios are bear/base/bull fair values per share.
type Scenarios struct {
	Bear       float64 `json:"bear"`
	Base       float64 `json:"base"`
	Bull       float64 `json:"bull"`
	Optimistic float64 `json:"optimistic,omitempty"`
}

// Result is a successful valuation. Only the detail block matching Method is
// set.
type Result struct {
	Method          Method     `json:"method"`
	ValuationType   string     `json:"valuation_type,omitempty"`
	FairValue       float64    `json:"fair_value"`
	CurrentPrice    float64    `json:"current_price"`
	Upside          float64    `json:"upside"`
	Scenarios       *Scenarios `json:"scenarios,omitempty"`
	WACC            float64    `json:"wacc,omitempty"` // percent
	EnterpriseValue float64    `json:"enterprise_value,omitempty"`
	Note            string     `json:"note,omitempty"`

	Multiples  []MultipleEstimate `json:"valuations,omitempty"`
	Dividend   *DividendDetail    `json:"dividend,omitempty"`
	NAV        *NAVDetail         `json:"nav,omitempty"`
	REIT       *REITDetail        `json:"reit,omitempty"`
	Revenue    *RevenueDetail     `json:"revenue,omitempty"`
	Earnings   *EarningsDetail    `json:"earnings,omitempty"`
	Commodity  *CommodityDetail   `json:"commodity,omitempty"`
	SumOfParts *SumOfPartsDetail  `json:"sum_of_parts,omitempty"`
	Pipeline   *PipelineDetail    `json:"pipeline,omitempty"`
	ZeroFCF    *ZeroFCFDetail     `json:"zero_fcf,omitempty"`
}

func newResult(method Method, fairValue, price float64) *Result {
	return &Result{
		Method:       method,
		FairValue:    fairValue,
		CurrentPrice: price,
		Upside:       types.Upside(fairValue, price),
	}
}

// MultipleEstimate is one P/E, P/B or PEG sub-valuation.
type MultipleEstimate struct {
	Name         string  `json:"name"`
	FairValue    float64 `json:"fair_value"`
	CurrentRatio float64 `json:"current_ratio"`
	TargetRatio  float64 `json:"target_ratio"`
}

type DividendDetail struct {
	YieldPct          float64 `json:"dividend_yield"`
	GrowthPct         float64 `json:"dividend_growth"`
	RequiredReturnPct float64 `json:"required_return"`
}

type NAVDetail struct {
	TangibleNAV float64 `json:"tangible_nav"`
	PriceToBook float64 `json:"price_to_book"`
}

type REITDetail struct {
	FFOPerShare      float64 `json:"ffo_per_share"`
	FFOMultiple      float64 `json:"ffo_multiple"`
	DividendYieldPct float64 `json:"dividend_yield"`
}

type RevenueDetail struct {
	PriceToSales     float64 `json:"price_to_sales"`
	TargetMultiple   float64 `json:"target_ps_multiple"`
	RevenueGrowthPct float64 `json:"revenue_growth"`
}

type EarningsDetail struct {
	NormalizedEPS float64 `json:"normalized_eps"`
	CurrentEPS    float64 `json:"current_eps"`
	NormalizedPE  float64 `json:"normalized_pe"`
	CurrentPE     float64 `json:"current_pe"`
}

type CommodityDetail struct {
	PBRatio          float64   `json:"pb_ratio"`
	Estimates        []float64 `json:"estimates"`
	ProvenReserves   float64   `json:"proven_reserves,omitempty"`
	ProductionPerDay float64   `json:"production_per_day,omitempty"`
	ReserveLifeYears float64   `json:"reserve_life_years,omitempty"`
	CommodityPrice   float64   `json:"commodity_price,omitempty"`
}

type SegmentValue struct {
	Name       string  `json:"name"`
	EBITDA     float64 `json:"ebitda"`
	Multiple   float64 `json:"multiple"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

type SumOfPartsDetail struct {
	DiscountRemovedPct float64        `json:"conglomerate_discount_removed,omitempty"`
	TotalSegmentValue  float64        `json:"total_segment_value,omitempty"`
	CorporateOverhead  float64        `json:"corporate_overhead,omitempty"`
	NetEnterpriseValue float64        `json:"net_enterprise_value,omitempty"`
	CurrentDiscountPct float64        `json:"current_conglomerate_discount,omitempty"`
	Segments           []SegmentValue `json:"segment_breakdown,omitempty"`
}

type DrugValue struct {
	Name            string  `json:"name"`
	Phase           Phase   `json:"phase"`
	ProbabilityPct  float64 `json:"probability"`
	PeakSales       float64 `json:"peak_sales"`
	NPV             float64 `json:"npv"`
	RiskAdjustedNPV float64 `json:"risk_adjusted_npv"`
	ContributionPct float64 `json:"contribution_pct"`
}

type PipelineDetail struct {
	PipelineValue     float64     `json:"pipeline_value"`
	Cash              float64     `json:"cash"`
	Debt              float64     `json:"debt"`
	NetCash           float64     `json:"net_cash"`
	CashRunwayYears   float64     `json:"cash_runway_years"`
	BurnRate          float64     `json:"current_burn_rate"`
	BurnRateEstimated bool        `json:"burn_rate_estimated"`
	Drugs             []DrugValue `json:"pipeline_breakdown"`
}

// ZeroFCFMethod is one sub-valuation of the Zero-FCF suite.
type ZeroFCFMethod struct {
	Key             string             `json:"key"`
	Label           string             `json:"method"`
	FairValue       float64            `json:"fair_value"`
	EnterpriseValue float64            `json:"enterprise_value"`
	DataQuality     string             `json:"data_quality"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
	Note            string             `json:"note,omitempty"`
}

type ZeroFCFDetail struct {
	CompanyType   string          `json:"company_type"`
	PrimaryMethod string          `json:"primary_method"`
	Confidence    string          `json:"confidence"`
	Methods       []ZeroFCFMethod `json:"valuations"`
}
