package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"creekwatch/internal/creek"
)

// DefaultTrendWeeks is the lookback used when a trend request names no window.
const DefaultTrendWeeks = 8

// Toolset is the closed registry of data tools the agent may call. Every
// tool is a pure lookup over the loaded dataset and the EPA screening table;
// unknown sites and metrics come back as structured not-found results, never
// as errors, so the model can recover in conversation.
type Toolset struct {
	store creek.Store
}

func NewToolset(store creek.Store) *Toolset {
	return &Toolset{store: store}
}

// Tools returns the fixed tool list handed to the agent. The registry is
// closed: this is the only place tools are assembled.
func (t *Toolset) Tools() []tool.BaseTool {
	return []tool.BaseTool{
		t.siteInfoTool(),
		t.compareSitesTool(),
		t.trendTool(),
		t.complianceTool(),
		t.explainTool(),
		t.summaryTool(),
		t.listSitesTool(),
	}
}

func metricNotFound(input string) string {
	return fmt.Sprintf("Measurement %q not found. Available metrics: %s.", input, strings.Join(creek.MetricKeys, ", "))
}

func (t *Toolset) siteNotFound(input string) (string, []string) {
	sites, err := t.store.Sites()
	if err != nil {
		return fmt.Sprintf("Site %q not found.", input), nil
	}
	return fmt.Sprintf("Site %q not found.", input), creek.SiteCodes(sites)
}

// ===================================
// Site Info
// ===================================

type SiteInfoInput struct {
	Site string `json:"site"`
}

type LatestReadings struct {
	Date          string `json:"date"`
	EColi         string `json:"ecoli"`
	TotalColiform string `json:"total_coliform"`
	PH            string `json:"ph"`
	Turbidity     string `json:"turbidity"`
}

type SiteInfoOutput struct {
	Found          bool            `json:"found"`
	Site           string          `json:"site,omitempty"`
	Name           string          `json:"name,omitempty"`
	Coordinates    string          `json:"coordinates,omitempty"`
	Samples        int             `json:"samples,omitempty"`
	SampleRange    string          `json:"sample_range,omitempty"`
	Latest         *LatestReadings `json:"latest,omitempty"`
	Message        string          `json:"message,omitempty"`
	AvailableSites []string        `json:"available_sites,omitempty"`
}

func (t *Toolset) siteInfoTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "get_site_info",
			Desc: "Get one monitoring site's location, sample coverage, and latest readings (E. coli, total coliform, pH, turbidity). Accepts the site code (e.g. peav@oldb) or a site name.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"site": {
					Type:     "string",
					Desc:     "Site code or site name, e.g. peav@oldb or Lullwater Creek / Lullwater Rd NE",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *SiteInfoInput) (*SiteInfoOutput, error) {
			sites, err := t.store.Sites()
			if err != nil {
				return nil, fmt.Errorf("failed to list sites: %w", err)
			}
			site, ok := creek.ResolveSite(sites, in.Site)
			if !ok {
				msg, available := t.siteNotFound(in.Site)
				return &SiteInfoOutput{Found: false, Message: msg, AvailableSites: available}, nil
			}

			out := &SiteInfoOutput{
				Found:       true,
				Site:        site.Code,
				Name:        site.Name,
				Coordinates: site.CoordinatesString(),
				Samples:     site.Records,
				SampleRange: site.SampleRangeString(),
			}

			latest, err := t.store.LatestRecord(site.Code)
			if err != nil {
				return nil, fmt.Errorf("failed to load latest record for %s: %w", site.Code, err)
			}
			if latest != nil {
				out.Latest = &LatestReadings{
					Date:          latest.DateString(),
					EColi:         latest.EColiString(),
					TotalColiform: latest.TotalColiformString(),
					PH:            latest.PHString(),
					Turbidity:     latest.TurbidityString(),
				}
			} else {
				out.Message = "No samples recorded for this site yet."
			}

			selectSite(ctx, site.Code)
			return out, nil
		},
	)
}

// ===================================
// Compare Sites
// ===================================

type CompareSitesInput struct {
	Metric string   `json:"metric"`
	Sites  []string `json:"sites,omitempty"`
}

type CompareSitesOutput struct {
	Found        bool               `json:"found"`
	Metric       string             `json:"metric,omitempty"`
	Unit         string             `json:"unit,omitempty"`
	Ranking      []creek.RankedSite `json:"ranking,omitempty"`
	Missing      []string           `json:"missing,omitempty"`
	UnknownSites []string           `json:"unknown_sites,omitempty"`
	Message      string             `json:"message,omitempty"`
}

func (t *Toolset) compareSitesTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "compare_sites",
			Desc: "Rank monitoring sites by the latest reading of one metric, highest value first. Compares every site unless a site list is given.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"metric": {
					Type:     "string",
					Desc:     "Metric to rank by: ecoli, ph, or turbidity",
					Required: true,
				},
				"sites": {
					Type:     "array",
					Desc:     "Optional site codes or names to limit the comparison to",
					ElemInfo: &schema.ParameterInfo{Type: "string"},
				},
			}),
		},
		func(ctx context.Context, in *CompareSitesInput) (*CompareSitesOutput, error) {
			metric, ok := creek.NormalizeMetric(in.Metric)
			if !ok {
				return &CompareSitesOutput{Found: false, Message: metricNotFound(in.Metric)}, nil
			}
			std, _ := creek.StandardFor(metric)

			sites, err := t.store.Sites()
			if err != nil {
				return nil, fmt.Errorf("failed to list sites: %w", err)
			}

			var include []string
			var unknown []string
			for _, q := range in.Sites {
				if site, ok := creek.ResolveSite(sites, q); ok {
					include = append(include, site.Code)
				} else {
					unknown = append(unknown, q)
				}
			}

			latest, err := t.store.LatestAll()
			if err != nil {
				return nil, fmt.Errorf("failed to load latest readings: %w", err)
			}

			ranking, missing := creek.RankByMetric(latest, metric, include)
			out := &CompareSitesOutput{
				Found:        true,
				Metric:       metric,
				Unit:         std.Unit,
				Ranking:      ranking,
				Missing:      missing,
				UnknownSites: unknown,
			}
			if len(ranking) == 0 {
				out.Message = fmt.Sprintf("No sites have a %s reading to compare.", std.Label)
			}
			return out, nil
		},
	)
}

// ===================================
// Trend
// ===================================

type TrendInput struct {
	Site   string `json:"site"`
	Metric string `json:"metric"`
	Weeks  int    `json:"weeks,omitempty"`
}

type TrendOutput struct {
	Found          bool                 `json:"found"`
	Site           string               `json:"site,omitempty"`
	Name           string               `json:"name,omitempty"`
	Metric         string               `json:"metric,omitempty"`
	Unit           string               `json:"unit,omitempty"`
	Weeks          int                  `json:"weeks,omitempty"`
	Window         string               `json:"window,omitempty"`
	Points         []creek.TrendPoint   `json:"points,omitempty"`
	Direction      creek.TrendDirection `json:"direction,omitempty"`
	Change         float64              `json:"change,omitempty"`
	Message        string               `json:"message,omitempty"`
	AvailableSites []string             `json:"available_sites,omitempty"`
}

func (t *Toolset) trendTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "get_trend",
			Desc: "Get how one metric moved at one site over the recent sampling weeks: the ordered readings plus a rising/falling/flat direction. The window ends at the site's most recent sample.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"site": {
					Type:     "string",
					Desc:     "Site code or site name",
					Required: true,
				},
				"metric": {
					Type:     "string",
					Desc:     "Metric to trend: ecoli, ph, or turbidity",
					Required: true,
				},
				"weeks": {
					Type: "number",
					Desc: "Lookback window in weeks (default 8)",
				},
			}),
		},
		func(ctx context.Context, in *TrendInput) (*TrendOutput, error) {
			sites, err := t.store.Sites()
			if err != nil {
				return nil, fmt.Errorf("failed to list sites: %w", err)
			}
			site, ok := creek.ResolveSite(sites, in.Site)
			if !ok {
				msg, available := t.siteNotFound(in.Site)
				return &TrendOutput{Found: false, Message: msg, AvailableSites: available}, nil
			}

			metric, ok := creek.NormalizeMetric(in.Metric)
			if !ok {
				return &TrendOutput{Found: false, Message: metricNotFound(in.Metric)}, nil
			}
			std, _ := creek.StandardFor(metric)

			weeks := in.Weeks
			if weeks <= 0 {
				weeks = DefaultTrendWeeks
			}

			latest, err := t.store.LatestRecord(site.Code)
			if err != nil {
				return nil, fmt.Errorf("failed to load latest record for %s: %w", site.Code, err)
			}
			if latest == nil {
				return &TrendOutput{
					Found:   false,
					Site:    site.Code,
					Name:    site.Name,
					Message: "No samples recorded for this site yet.",
				}, nil
			}

			end := latest.Timestamp
			start := end.AddDate(0, 0, -7*weeks)
			records, err := t.store.RecordsInWindow(site.Code, start, end)
			if err != nil {
				return nil, fmt.Errorf("failed to load window for %s: %w", site.Code, err)
			}

			points := creek.TrendPoints(records, metric)
			window := fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
			if len(points) == 0 {
				return &TrendOutput{
					Found:   false,
					Site:    site.Code,
					Name:    site.Name,
					Metric:  metric,
					Weeks:   weeks,
					Window:  window,
					Message: fmt.Sprintf("No %s data for %s in the last %d weeks.", std.Label, site.Name, weeks),
				}, nil
			}

			out := &TrendOutput{
				Found:     true,
				Site:      site.Code,
				Name:      site.Name,
				Metric:    metric,
				Unit:      std.Unit,
				Weeks:     weeks,
				Window:    window,
				Points:    points,
				Direction: creek.DirectionOf(creek.PointValues(points)),
				Change:    points[len(points)-1].Value - points[0].Value,
			}
			if len(points) == 1 {
				out.Message = "Only one sample in the window, so the direction is flat by definition."
			}

			selectSite(ctx, site.Code)
			return out, nil
		},
	)
}

// ===================================
// EPA Compliance Check
// ===================================

type ComplianceInput struct {
	Metric string `json:"metric"`
}

type ComplianceEntry struct {
	Site       string  `json:"site"`
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	SampledAt  string  `json:"sampled_at"`
	HealthNote string  `json:"health_note"`
}

type ComplianceOutput struct {
	Found        bool              `json:"found"`
	Metric       string            `json:"metric,omitempty"`
	Threshold    string            `json:"threshold,omitempty"`
	Basis        string            `json:"basis,omitempty"`
	Exceedances  []ComplianceEntry `json:"exceedances"`
	AllCompliant bool              `json:"all_compliant"`
	Message      string            `json:"message,omitempty"`
}

func (t *Toolset) complianceTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "check_epa_compliance",
			Desc: "List the sites whose latest reading of a metric is strictly above its EPA screening threshold, worst first, each with the health implication.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"metric": {
					Type:     "string",
					Desc:     "Metric to check: ecoli, ph, or turbidity",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *ComplianceInput) (*ComplianceOutput, error) {
			metric, ok := creek.NormalizeMetric(in.Metric)
			if !ok {
				return &ComplianceOutput{Found: false, Message: metricNotFound(in.Metric), Exceedances: []ComplianceEntry{}}, nil
			}
			std, _ := creek.StandardFor(metric)

			latest, err := t.store.LatestAll()
			if err != nil {
				return nil, fmt.Errorf("failed to load latest readings: %w", err)
			}

			out := &ComplianceOutput{
				Found:       true,
				Metric:      metric,
				Threshold:   std.ThresholdString(),
				Basis:       std.Basis,
				Exceedances: []ComplianceEntry{},
			}
			for _, e := range creek.ExceedingSites(latest, std) {
				out.Exceedances = append(out.Exceedances, ComplianceEntry{
					Site:       e.Code,
					Name:       e.Name,
					Value:      e.Value,
					SampledAt:  e.SampledAt.Format("2006-01-02"),
					HealthNote: std.Note,
				})
			}
			if len(out.Exceedances) == 0 {
				out.AllCompliant = true
				out.Message = fmt.Sprintf("All sites are at or below the %s threshold of %s.", std.Label, std.ThresholdString())
			}
			return out, nil
		},
	)
}

// ===================================
// Explain Measurement
// ===================================

type ExplainInput struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

type ExplainOutput struct {
	Found       bool    `json:"found"`
	Metric      string  `json:"metric,omitempty"`
	Label       string  `json:"label,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Value       float64 `json:"value,omitempty"`
	Threshold   string  `json:"threshold,omitempty"`
	Band        string  `json:"band,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
	HealthNote  string  `json:"health_note,omitempty"`
	Message     string  `json:"message,omitempty"`
}

func (t *Toolset) explainTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "explain_measurement",
			Desc: "Explain what a specific reading of a metric means: whether it is below, at, or above the EPA screening threshold, and the health implication.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"metric": {
					Type:     "string",
					Desc:     "Metric the value belongs to: ecoli, ph, or turbidity",
					Required: true,
				},
				"value": {
					Type:     "number",
					Desc:     "The reading to interpret",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *ExplainInput) (*ExplainOutput, error) {
			metric, ok := creek.NormalizeMetric(in.Metric)
			if !ok {
				return &ExplainOutput{Found: false, Message: metricNotFound(in.Metric)}, nil
			}
			std, _ := creek.StandardFor(metric)

			return &ExplainOutput{
				Found:       true,
				Metric:      metric,
				Label:       std.Label,
				Unit:        std.Unit,
				Value:       in.Value,
				Threshold:   std.ThresholdString(),
				Band:        std.Classify(in.Value).String(),
				Explanation: std.Explain(in.Value),
				HealthNote:  std.Note,
			}, nil
		},
	)
}

// ===================================
// Water Quality Summary
// ===================================

type SummaryInput struct{}

type SiteStatus struct {
	Site               string `json:"site"`
	Name               string `json:"name"`
	Date               string `json:"date"`
	EColi              string `json:"ecoli"`
	PH                 string `json:"ph"`
	Turbidity          string `json:"turbidity"`
	EColiOverCriterion bool   `json:"ecoli_over_criterion"`
}

type SummaryOutput struct {
	Sites                   int          `json:"sites"`
	Records                 int          `json:"records"`
	DateRange               string       `json:"date_range"`
	EColiCriterion          string       `json:"ecoli_criterion"`
	SitesOverEColiCriterion int          `json:"sites_over_ecoli_criterion"`
	Latest                  []SiteStatus `json:"latest"`
}

func (t *Toolset) summaryTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name:        "get_water_quality_summary",
			Desc:        "Get a dataset-wide status summary: every site's latest readings, which sites currently exceed the E. coli criterion, and the overall sample coverage.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		func(ctx context.Context, in *SummaryInput) (*SummaryOutput, error) {
			summary, err := t.store.Summary()
			if err != nil {
				return nil, fmt.Errorf("failed to summarize dataset: %w", err)
			}
			latest, err := t.store.LatestAll()
			if err != nil {
				return nil, fmt.Errorf("failed to load latest readings: %w", err)
			}

			std, _ := creek.StandardFor(creek.MetricEColi)
			out := &SummaryOutput{
				Sites:          summary.Sites,
				Records:        summary.Records,
				DateRange:      summary.DateRangeString(),
				EColiCriterion: std.ThresholdString(),
			}
			for i := range latest {
				sl := &latest[i]
				status := SiteStatus{
					Site:      sl.Site.Code,
					Name:      sl.Site.Name,
					Date:      sl.Latest.DateString(),
					EColi:     sl.Latest.EColiString(),
					PH:        sl.Latest.PHString(),
					Turbidity: sl.Latest.TurbidityString(),
				}
				if v, ok := sl.Latest.Value(creek.MetricEColi); ok && v > std.Threshold {
					status.EColiOverCriterion = true
					out.SitesOverEColiCriterion++
				}
				out.Latest = append(out.Latest, status)
			}
			return out, nil
		},
	)
}

// ===================================
// List Sites
// ===================================

type ListSitesInput struct{}

type SiteEntry struct {
	Site        string `json:"site"`
	Name        string `json:"name"`
	Coordinates string `json:"coordinates"`
	Samples     int    `json:"samples"`
	LastSample  string `json:"last_sample,omitempty"`
}

type ListSitesOutput struct {
	Sites []SiteEntry `json:"sites"`
}

func (t *Toolset) listSitesTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name:        "list_sites",
			Desc:        "List every monitoring site with its code, name, coordinates, and sample coverage.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		func(ctx context.Context, in *ListSitesInput) (*ListSitesOutput, error) {
			sites, err := t.store.Sites()
			if err != nil {
				return nil, fmt.Errorf("failed to list sites: %w", err)
			}
			out := &ListSitesOutput{}
			for i := range sites {
				s := &sites[i]
				entry := SiteEntry{
					Site:        s.Code,
					Name:        s.Name,
					Coordinates: s.CoordinatesString(),
					Samples:     s.Records,
				}
				if s.Records > 0 {
					entry.LastSample = s.LastSample.Format("2006-01-02")
				}
				out.Sites = append(out.Sites, entry)
			}
			return out, nil
		},
	)
}
