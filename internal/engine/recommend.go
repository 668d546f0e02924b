package engine

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"
)

// Recommendation compares the optimal scenario against the current one.
type Recommendation struct {
	Text               string   `json:"recommendation_text"` // markdown
	ProfitImprovement  float64  `json:"profit_improvement"`
	ImprovementPercent float64  `json:"improvement_percent"`
	RiskReduction      float64  `json:"risk_reduction"`
	Changes            []string `json:"changes"`
	SellingDay         int      `json:"selling_day"`
}

var recommendationTmpl = template.Must(template.New("recommendation").Funcs(template.FuncMap{
	"rupees": rupees,
	"fixed1": func(v float64) string { return fmt.Sprintf("%.1f", v) },
}).Parse(`**Farming Strategy Recommendation**
{{if gt .ProfitImprovement 0.0}}
By adopting the optimized strategy, you can increase profit by ₹{{rupees .ProfitImprovement}} ({{fixed1 .ImprovementPercent}}% improvement).
{{end}}{{if gt .RiskReduction 0.0}}
The optimized plan reduces your risk score by {{fixed1 .RiskReduction}} points, making your farming more stable.
{{end}}
**Key Recommendations:**
{{range .Changes}}- {{.}}
{{end}}- Plan to sell around day {{.SellingDay}} for maximum price
`))

// Recommend builds the recommendation, listing only the inputs the optimal
// plan actually changed.
func Recommend(current, optimal ScenarioResult) (Recommendation, error) {
	cur, opt := current.Plan, optimal.Plan

	improvement := optimal.Profit - current.Profit
	r := Recommendation{
		ProfitImprovement:  improvement,
		ImprovementPercent: improvement / math.Max(math.Abs(current.Profit), 1) * 100,
		RiskReduction:      current.Risk.Overall - optimal.Risk.Overall,
		SellingDay:         optimal.Forecast.Window.RecommendedDay,
	}
	if opt.SeedQuality > cur.SeedQuality {
		r.Changes = append(r.Changes, "Invest in higher quality seeds for better yields")
	}
	if opt.IrrigationFrequency > cur.IrrigationFrequency {
		r.Changes = append(r.Changes, "Increase irrigation frequency to compensate for rainfall uncertainty")
	}
	if !opt.Fertilizer.Equal(cur.Fertilizer) {
		r.Changes = append(r.Changes, "Optimize fertilizer mix for balanced NPK nutrition")
	}
	if opt.PestControlIntensity > cur.PestControlIntensity {
		r.Changes = append(r.Changes, "Strengthen pest management to protect yield")
	}

	var buf bytes.Buffer
	if err := recommendationTmpl.Execute(&buf, r); err != nil {
		return Recommendation{}, fmt.Errorf("render recommendation: %w", err)
	}
	r.Text = strings.TrimSpace(buf.String())
	return r, nil
}

// rupees formats an amount with thousands separators and paisa.
func rupees(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}
