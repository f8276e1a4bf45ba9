package domino

// Source identifiers shared with the threshold rule catalog.
const (
	SourceFRED   = "fred"
	SourceQuotes = "quotes"
	SourceManual = "manual"
)

// Domino ids.
const (
	LaborDisplacement = 1
	ConsumerDemand    = 2
	CreditContagion   = 3
	SaaSRepricing     = 4
	HousingWealth     = 5
	PolicyResponse    = 6
)

// Signal names referenced by threshold rules.
const (
	SigProfessionalOpenings = "Professional Services Openings"
	SigGradUnemployment     = "College Grad Unemployment"
	SigJoblessClaims        = "Initial Jobless Claims"
	SigTechLayoffs          = "Tech Layoff Announcements"

	SigConsumerSentiment = "Consumer Sentiment"
	SigCardDelinquency   = "Credit Card Delinquency"
	SigSavingRate        = "Personal Saving Rate"

	SigHighYieldSpread = "High Yield Spread"
	SigYieldCurve      = "Yield Curve 10Y-2Y"
	SigCREDelinquency  = "CRE Loan Delinquency"

	SigSoftwareDrawdown = "Software ETF Drawdown"
	SigVolatility       = "Volatility Index"
	SigSemisSoftware    = "Semis vs Software Ratio"

	SigMortgageDelinquency = "Mortgage Delinquency"
	SigHousingStarts       = "Housing Starts"

	SigEmergencyCuts  = "Emergency Rate Cuts"
	SigFiscalStimulus = "Fiscal Stimulus Proposals"
	SigFedFunds       = "Fed Funds Rate"
)

// Default returns the built-in domino catalog.
func Default() Catalog {
	return Catalog{Dominos: []Domino{
		{
			ID:          LaborDisplacement,
			Name:        "AI Labor Displacement",
			Description: "Automation removes white-collar demand faster than new roles appear.",
			Signals: []Signal{
				{
					Name:          SigProfessionalOpenings,
					Source:        "FRED JTU540099JOL (JOLTS openings, professional and business services)",
					Frequency:     "monthly",
					Baseline:      "Year-over-year change within +/-10%",
					ThresholdText: "Amber below -10% YoY, red below -20% YoY",
				},
				{
					Name:          SigGradUnemployment,
					Source:        "FRED CGBD25O (unemployment rate, bachelor's degree, 25+)",
					Frequency:     "monthly",
					Baseline:      "Below 3.0%",
					ThresholdText: "Amber at 3.0%, red at 4.0%",
				},
				{
					Name:          SigJoblessClaims,
					Source:        "FRED ICSA (initial claims)",
					Frequency:     "weekly",
					Baseline:      "4-week average under 250k",
					ThresholdText: "Amber at 250k, red at 300k (4-week average)",
				},
				{
					Name:          SigTechLayoffs,
					Source:        "Layoff trackers, company filings",
					Frequency:     "ad hoc",
					Baseline:      "Routine restructuring",
					ThresholdText: "Analyst judgement",
					Notes:         "Set manually after reviewing announcements.",
				},
			},
		},
		{
			ID:          ConsumerDemand,
			Name:        "Consumer Demand Erosion",
			Description: "Income shocks propagate into discretionary spending and household credit.",
			Signals: []Signal{
				{
					Name:          SigConsumerSentiment,
					Source:        "FRED UMCSENT (University of Michigan sentiment)",
					Frequency:     "monthly",
					Baseline:      "Above 65",
					ThresholdText: "Amber below 65, red below 55",
				},
				{
					Name:          SigCardDelinquency,
					Source:        "FRED DRCCLACBS (credit card delinquency rate)",
					Frequency:     "quarterly",
					Baseline:      "Below 3.0%",
					ThresholdText: "Amber at 3.0%, red at 4.0%",
				},
				{
					Name:          SigSavingRate,
					Source:        "FRED PSAVERT (personal saving rate)",
					Frequency:     "monthly",
					Baseline:      "Stable between 3% and 8%",
					ThresholdText: "Red below 3%, amber after three consecutive declines",
				},
			},
		},
		{
			ID:          CreditContagion,
			Name:        "Credit Contagion",
			Description: "Stress moves from equity repricing into credit spreads and lending.",
			Signals: []Signal{
				{
					Name:          SigHighYieldSpread,
					Source:        "FRED BAMLH0A0HYM2 (ICE BofA US high yield OAS)",
					Frequency:     "daily",
					Baseline:      "Below 4.5 points",
					ThresholdText: "Amber at 4.5, red at 6.0",
				},
				{
					Name:          SigYieldCurve,
					Source:        "FRED T10Y2Y (10-year minus 2-year treasury)",
					Frequency:     "daily",
					Baseline:      "Positive slope",
					ThresholdText: "Amber below 0, red below -0.5",
				},
				{
					Name:          SigCREDelinquency,
					Source:        "FRED DRCRELEXFACBS (CRE loan delinquency ex-farmland)",
					Frequency:     "quarterly",
					Baseline:      "Below 2.0%",
					ThresholdText: "Amber at 2.0%, red at 3.0%",
				},
			},
		},
		{
			ID:          SaaSRepricing,
			Name:        "SaaS Repricing",
			Description: "Public markets reprice seat-based software as AI compresses pricing power.",
			Signals: []Signal{
				{
					Name:          SigSoftwareDrawdown,
					Source:        "IGV quote vs 52-week high",
					Frequency:     "daily",
					Baseline:      "Within 15% of 52-week high",
					ThresholdText: "Amber at -15%, red at -30%",
				},
				{
					Name:          SigVolatility,
					Source:        "VIX quote",
					Frequency:     "daily",
					Baseline:      "Below 20",
					ThresholdText: "Amber at 20, red at 30",
				},
				{
					Name:          SigSemisSoftware,
					Source:        "SMH / IGV price ratio",
					Frequency:     "daily",
					Baseline:      "Ratio between 0.8 and 1.6",
					ThresholdText: "Amber outside 0.8-1.6, red above 2.0",
				},
			},
		},
		{
			ID:          HousingWealth,
			Name:        "Housing & Wealth Effect",
			Description: "Household balance sheets weaken through housing.",
			Signals: []Signal{
				{
					Name:          SigMortgageDelinquency,
					Source:        "FRED DRSFRMACBS (single-family mortgage delinquency)",
					Frequency:     "quarterly",
					Baseline:      "Below 3.0%",
					ThresholdText: "Amber at 3.0%, red at 4.0%",
				},
				{
					Name:          SigHousingStarts,
					Source:        "FRED HOUST (housing starts)",
					Frequency:     "monthly",
					Baseline:      "Year-over-year change above -15%",
					ThresholdText: "Amber below -15% YoY, red below -25% YoY",
				},
			},
		},
		{
			ID:          PolicyResponse,
			Name:        "Policy Response",
			Description: "Monetary and fiscal authorities react to the disruption.",
			Signals: []Signal{
				{
					Name:          SigEmergencyCuts,
					Source:        "FOMC statements",
					Frequency:     "ad hoc",
					Baseline:      "Scheduled meetings only",
					ThresholdText: "Analyst judgement",
				},
				{
					Name:          SigFiscalStimulus,
					Source:        "Congressional record, treasury announcements",
					Frequency:     "ad hoc",
					Baseline:      "No emergency packages",
					ThresholdText: "Analyst judgement",
				},
				{
					Name:          SigFedFunds,
					Source:        "FRED FEDFUNDS (effective federal funds rate)",
					Frequency:     "monthly",
					Baseline:      "Stable or rising",
					ThresholdText: "Amber after three consecutive cuts, red below 1.0%",
				},
			},
		},
	}}
}
