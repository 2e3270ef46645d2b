package valuation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"stock-analyzer/internal/sector"
	"stock-analyzer/internal/stats"
	"stock-analyzer/internal/types"
)

const (
	reserveHaircut          = 0.60
	evPerProductionUnit     = 55000.0
	commodityMidCyclePE     = 11.0
	conglomerateDiscount    = 0.20
	corporateOverheadRate   = 0.05
	defaultSegmentMultiple  = 10.0
	biotechDiscountRate     = 0.12
	drugGrossMargin         = 0.80
	defaultYearsToPeak      = 8
	defaultPatentLife       = 12
	defaultLaunchCosts      = 50_000_000.0
	defaultResearchSpend    = 100_000_000.0
	burnFromResearchFactor  = 1.5
	runwayWithoutBurnYears  = 2.0
	bullPipelineMultiplier  = 1.5
	unknownPhaseProbability = 0.10
)

// Reserves describes a producer's reserve base in commodity units.
type Reserves struct {
	ProvenReserves   float64 `json:"proven_reserves"`
	ProductionPerDay float64 `json:"production_per_day"`
	ReserveLife      float64 `json:"reserve_life"`
}

// CommodityInputs are the optional market inputs of CommodityReserve.
type CommodityInputs struct {
	CommodityPrice float64   `json:"commodity_price"`
	Reserves       *Reserves `json:"reserves,omitempty"`
}

// CommodityReserve averages a sector P/B estimate, reserve and production
// based estimates when reserves are given, and a mid-cycle P/E estimate.
func (e *Engine) CommodityReserve(info types.Info, in CommodityInputs) (res *Result, err error) {
	m := string(MethodCommodityReserve)
	defer types.Recover(m, &err)

	shares := info.SharesOutstanding
	if shares <= 0 {
		return nil, types.Insufficient(m, "No shares outstanding data")
	}
	price := info.Price()
	summary := strings.ToLower(info.LongBusinessSummary)
	var estimates []float64

	if info.PriceToBook > 0 {
		if book := price / info.PriceToBook; book > 0 {
			var target float64
			switch {
			case strings.Contains(info.Sector, "Energy") || strings.Contains(summary, "oil"):
				target = e.sectors.Lookup(sector.CommodityPB, "Energy")
			case strings.Contains(info.Sector, "Materials") || strings.Contains(summary, "mining"):
				target = e.sectors.Lookup(sector.CommodityPB, "Materials")
			default:
				target = e.sectors.Fallback(sector.CommodityPB)
			}
			estimates = append(estimates, book*target)
		}
	}

	netCash := info.TotalCash - info.TotalDebt
	if r := in.Reserves; r != nil {
		if in.CommodityPrice > 0 && r.ProvenReserves > 0 {
			pv10 := r.ProvenReserves * in.CommodityPrice * reserveHaircut
			estimates = append(estimates, (pv10+netCash)/shares)
		}
		if r.ProductionPerDay > 0 && info.EnterpriseValue > 0 {
			implied := r.ProductionPerDay * evPerProductionUnit
			estimates = append(estimates, (implied+netCash)/shares)
		}
	}

	if info.TrailingEPS > 0 {
		estimates = append(estimates, info.TrailingEPS*commodityMidCyclePE)
	}

	if len(estimates) == 0 {
		return nil, types.Insufficient(m, "Insufficient data for commodity valuation")
	}

	res = newResult(MethodCommodityReserve, stats.Mean(estimates), price)
	res.Commodity = &CommodityDetail{PBRatio: info.PriceToBook, Estimates: estimates}
	if r := in.Reserves; r != nil {
		res.Commodity.ProvenReserves = r.ProvenReserves
		res.Commodity.ProductionPerDay = r.ProductionPerDay
		res.Commodity.ReserveLifeYears = r.ReserveLife
		res.Commodity.CommodityPrice = in.CommodityPrice
	}
	return res, nil
}

// Segment is one business line of a conglomerate. A zero EBITDAMultiple uses
// the default peer multiple.
type Segment struct {
	Name           string  `json:"name"`
	Revenue        float64 `json:"revenue,omitempty"`
	EBITDA         float64 `json:"ebitda"`
	EBITDAMultiple float64 `json:"ebitda_multiple,omitempty"`
	Description    string  `json:"description,omitempty"`
}

// SumOfParts values each segment at its EBITDA multiple less corporate
// overhead. Without segments it removes a typical conglomerate discount from
// the current enterprise value.
func (e *Engine) SumOfParts(info types.Info, segments []Segment) (res *Result, err error) {
	defer types.Recover(string(MethodSumOfPartsDetailed), &err)

	shares := info.SharesOutstanding
	if shares <= 0 {
		return nil, types.Insufficient(string(MethodSumOfPartsDetailed), "No shares outstanding data")
	}
	price := info.Price()

	if len(segments) == 0 {
		if info.EnterpriseValue == 0 {
			return nil, types.Insufficient(string(MethodSumOfPartsSimple), "No segment data or enterprise value available")
		}
		pure := info.EnterpriseValue / (1 - conglomerateDiscount)
		fv := (pure - info.TotalDebt + info.TotalCash) / shares
		res = newResult(MethodSumOfPartsSimple, fv, price)
		res.SumOfParts = &SumOfPartsDetail{DiscountRemovedPct: conglomerateDiscount * 100}
		res.Note = "Using conglomerate discount removal; provide segment data for detailed analysis"
		return res, nil
	}

	total := 0.0
	parts := make([]SegmentValue, 0, len(segments))
	for _, s := range segments {
		name := s.Name
		if name == "" {
			name = "Unknown"
		}
		multiple := s.EBITDAMultiple
		if multiple == 0 {
			multiple = defaultSegmentMultiple
		}
		v := s.EBITDA * multiple
		total += v
		parts = append(parts, SegmentValue{Name: name, EBITDA: s.EBITDA, Multiple: multiple, Value: v})
	}
	if total > 0 {
		for i := range parts {
			parts[i].Percentage = parts[i].Value / total * 100
		}
	}

	overhead := total * corporateOverheadRate
	netEV := total - overhead
	equity := netEV - info.TotalDebt + info.TotalCash - info.MinorityInterest
	currentEV := price*shares + info.TotalDebt - info.TotalCash

	detail := &SumOfPartsDetail{
		TotalSegmentValue:  total,
		CorporateOverhead:  overhead,
		NetEnterpriseValue: netEV,
		Segments:           parts,
	}
	if netEV > 0 {
		detail.CurrentDiscountPct = (netEV - currentEV) / netEV * 100
	}

	res = newResult(MethodSumOfPartsDetailed, equity/shares, price)
	res.SumOfParts = detail
	return res, nil
}

// Phase is a drug's clinical stage: "1", "2", "3", "approved" or "marketed".
type Phase string

// UnmarshalJSON accepts the phase as a string or as a bare number (2 or 2.0).
func (p *Phase) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Phase(s)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("phase must be a string or number, got %s", b)
	}
	*p = Phase(strconv.FormatFloat(v, 'f', -1, 64))
	return nil
}

var phaseProbability = map[Phase]float64{
	"1":        0.10,
	"2":        0.30,
	"3":        0.60,
	"approved": 1.00,
	"marketed": 1.00,
}

// Drug is one pipeline asset. Zero YearsToPeak and PatentLife and a nil
// LaunchCosts take the documented defaults.
type Drug struct {
	Name                string   `json:"name"`
	Indication          string   `json:"indication,omitempty"`
	Phase               Phase    `json:"phase"`
	PeakSales           float64  `json:"peak_sales"`
	YearsToPeak         int      `json:"years_to_peak,omitempty"`
	PatentLife          int      `json:"patent_life,omitempty"`
	LaunchCosts         *float64 `json:"launch_costs,omitempty"`
	ProbabilityOverride *float64 `json:"probability_override,omitempty"`
}

// rNPV discounts a linear ramp to peak sales and the peak plateau through
// patent expiry, net of launch costs two years before peak.
func (d Drug) rNPV() (npv, probability float64) {
	ytp := d.YearsToPeak
	if ytp <= 0 {
		ytp = defaultYearsToPeak
	}
	patent := d.PatentLife
	if patent <= 0 {
		patent = defaultPatentLife
	}
	launch := types.Or(d.LaunchCosts, defaultLaunchCosts)

	probability = unknownPhaseProbability
	if p, ok := phaseProbability[Phase(strings.ToLower(string(d.Phase)))]; ok {
		probability = p
	}
	if d.ProbabilityOverride != nil {
		probability = *d.ProbabilityOverride
	}

	discount := func(v float64, year int) float64 {
		return v / math.Pow(1+biotechDiscountRate, float64(year))
	}
	for year := 1; year <= ytp; year++ {
		sales := d.PeakSales * float64(year) / float64(ytp)
		npv += discount(sales*drugGrossMargin, year)
	}
	for year := ytp + 1; year <= patent; year++ {
		npv += discount(d.PeakSales*drugGrossMargin, year)
	}
	npv -= discount(launch, max(1, ytp-2))
	return npv, probability
}

// BiotechPipeline sums probability-weighted drug NPVs and adds net cash.
// Without a pipeline it falls back to the revenue multiple method.
func (e *Engine) BiotechPipeline(info types.Info, fin types.Financials, pipeline []Drug) (res *Result, err error) {
	m := string(MethodBiotechPipeline)
	defer types.Recover(m, &err)

	shares := info.SharesOutstanding
	if shares <= 0 {
		return nil, types.Insufficient(m, "No shares outstanding data")
	}

	if len(pipeline) == 0 {
		rev, err := e.RevenueMultiple(info)
		if err != nil {
			return nil, err
		}
		rev.Method = MethodBiotechNoPipeline
		rev.Note = "Using revenue multiples; provide pipeline data for rNPV analysis"
		return rev, nil
	}

	total := 0.0
	drugs := make([]DrugValue, 0, len(pipeline))
	for _, d := range pipeline {
		npv, p := d.rNPV()
		name := d.Name
		if name == "" {
			name = "Unknown Drug"
		}
		total += npv * p
		drugs = append(drugs, DrugValue{
			Name:            name,
			Phase:           d.Phase,
			ProbabilityPct:  p * 100,
			PeakSales:       d.PeakSales,
			NPV:             npv,
			RiskAdjustedNPV: npv * p,
		})
	}
	if total > 0 {
		for i := range drugs {
			drugs[i].ContributionPct = drugs[i].RiskAdjustedNPV / total * 100
		}
	}

	cash, debt := info.TotalCash, info.TotalDebt
	burn := math.Abs(fin.CashFlow.Latest("Operating Cash Flow"))
	estimated := false
	if burn == 0 {
		burn = types.Or(info.ResearchDevelopment, defaultResearchSpend) * burnFromResearchFactor
		estimated = true
	}
	runway := runwayWithoutBurnYears
	if burn > 0 {
		runway = cash / burn
	}

	fv := (total + cash - debt) / shares
	res = newResult(MethodBiotechPipeline, fv, info.Price())
	res.Scenarios = &Scenarios{
		Bear: (cash - debt) / shares,
		Base: fv,
		Bull: fv * bullPipelineMultiplier,
	}
	res.Pipeline = &PipelineDetail{
		PipelineValue:     total,
		Cash:              cash,
		Debt:              debt,
		NetCash:           cash - debt,
		CashRunwayYears:   runway,
		BurnRate:          burn,
		BurnRateEstimated: estimated,
		Drugs:             drugs,
	}
	return res, nil
}
