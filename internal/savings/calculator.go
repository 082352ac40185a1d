package savings

import (
	"fmt"

	"relocation_quiz_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

const monthsPerYear = 12

// Breakdown is the per-request savings result. Every figure is rounded to a
// whole dollar and AnnualSavings is always the sum of the three savings lines.
type Breakdown struct {
	NYTax      int64 `json:"ny_tax"`
	HousingNY  int64 `json:"housing_ny"`
	HousingMIA int64 `json:"housing_mia"`
	UtilNY     int64 `json:"util_ny"`
	UtilMIA    int64 `json:"util_mia"`

	TaxSavings     int64 `json:"tax_savings"`
	HousingSavings int64 `json:"housing_savings"`
	UtilSavings    int64 `json:"util_savings"`
	AnnualSavings  int64 `json:"annual_savings"`

	RetirementSavings    *int64 `json:"retirement_savings,omitempty"`
	YearsUntilRetirement *int   `json:"years_until_retirement,omitempty"`
}

// Adjustments overrides individual config knobs for one call. Nil fields
// fall back to the bracket config. Overrides obey the same ranges as the
// bracket config.
type Adjustments struct {
	NYTaxRate         *float64
	HousingMultiplier *float64
	UtilitiesDelta    *float64
}

// Calculator computes savings breakdowns from an injected bracket config.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	cfg *BracketConfig
}

// NewCalculator creates a calculator bound to cfg.
func NewCalculator(cfg *BracketConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Config returns the bracket table the calculator reads from.
func (c *Calculator) Config() *BracketConfig {
	return c.cfg
}

// Compute returns the savings breakdown for the given brackets. ageBracket may
// be empty. An unknown bracket key is a configuration error.
func (c *Calculator) Compute(incomeBracket, housingBracket, ageBracket string, adj Adjustments) (Breakdown, error) {
	incomeMidpoint, ok := c.cfg.IncomeMidpoints[incomeBracket]
	if !ok {
		return Breakdown{}, unknownBracket("income", incomeBracket)
	}
	housingMidpoint, ok := c.cfg.HousingMidpoints[housingBracket]
	if !ok {
		return Breakdown{}, unknownBracket("housing", housingBracket)
	}

	taxRate, ok := c.cfg.NYEffectiveTaxRates[incomeBracket]
	if !ok {
		return Breakdown{}, unknownBracket("tax rate", incomeBracket)
	}
	if err := adj.validate(); err != nil {
		return Breakdown{}, err
	}
	if adj.NYTaxRate != nil {
		taxRate = *adj.NYTaxRate
	}
	multiplier := c.cfg.MiamiHousingMultiplier
	if adj.HousingMultiplier != nil {
		multiplier = *adj.HousingMultiplier
	}
	utilDelta := c.cfg.UtilitiesDeltaPercent
	if adj.UtilitiesDelta != nil {
		utilDelta = *adj.UtilitiesDelta
	}

	income := decimal.NewFromFloat(incomeMidpoint)
	nyTax := income.Mul(decimal.NewFromFloat(taxRate))

	housingNY := decimal.NewFromFloat(housingMidpoint).Mul(decimal.NewFromInt(monthsPerYear))
	housingMIA := housingNY.Mul(decimal.NewFromFloat(multiplier))
	housingSavings := nonNegative(housingNY.Sub(housingMIA))

	utilNY := decimal.NewFromFloat(c.cfg.UtilitiesBaseline)
	utilMIA := utilNY.Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(utilDelta)))
	utilSavings := nonNegative(utilNY.Sub(utilMIA))

	out := Breakdown{
		NYTax:          whole(nyTax),
		HousingNY:      whole(housingNY),
		HousingMIA:     whole(housingMIA),
		UtilNY:         whole(utilNY),
		UtilMIA:        whole(utilMIA),
		TaxSavings:     whole(nyTax),
		HousingSavings: whole(housingSavings),
		UtilSavings:    whole(utilSavings),
	}
	out.AnnualSavings = out.TaxSavings + out.HousingSavings + out.UtilSavings

	if ageBracket == "" || !c.cfg.Retirement.Enabled {
		return out, nil
	}

	age, ok := c.cfg.AgeRepresentativeAges[ageBracket]
	if !ok {
		return Breakdown{}, unknownBracket("age", ageBracket)
	}
	years := c.cfg.Retirement.RetirementAge - age
	if years < 0 {
		years = 0
	}
	retirement := whole(futureValue(decimal.NewFromInt(out.AnnualSavings), c.cfg.Retirement.AnnualReturnRate, years))
	out.YearsUntilRetirement = &years
	out.RetirementSavings = &retirement

	return out, nil
}

// futureValue is the value after n years of investing amount at the end of
// each year at the given annual rate.
func futureValue(amount decimal.Decimal, rate float64, years int) decimal.Decimal {
	if years <= 0 {
		return decimal.Zero
	}
	if rate == 0 {
		return amount.Mul(decimal.NewFromInt(int64(years)))
	}

	r := decimal.NewFromFloat(rate)
	growth := decimal.NewFromInt(1).Add(r)
	factor := decimal.NewFromInt(1)
	for i := 0; i < years; i++ {
		factor = factor.Mul(growth)
	}
	return amount.Mul(factor.Sub(decimal.NewFromInt(1))).Div(r)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func whole(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

func (a Adjustments) validate() error {
	var problem string
	switch {
	case a.NYTaxRate != nil && (*a.NYTaxRate < 0 || *a.NYTaxRate >= 1):
		problem = fmt.Sprintf("tax rate override %v must be in [0,1)", *a.NYTaxRate)
	case a.HousingMultiplier != nil && *a.HousingMultiplier < 0:
		problem = fmt.Sprintf("housing multiplier override %v must not be negative", *a.HousingMultiplier)
	case a.UtilitiesDelta != nil && *a.UtilitiesDelta <= -1:
		problem = fmt.Sprintf("utilities delta override %v must be greater than -1", *a.UtilitiesDelta)
	default:
		return nil
	}
	return apperr.Configuration(problem).WithOp("savings.Compute")
}

func unknownBracket(kind, key string) error {
	return apperr.Configuration(fmt.Sprintf("unknown %s bracket %q", kind, key)).WithOp("savings.Compute")
}
