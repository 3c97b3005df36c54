package journal

import (
	"bytes"
	"io"
	"os"
	"text/template"
	"time"
)

// RunReport is the view rendered into an Org-mode run page.
type RunReport struct {
	RunRecord

	Leverage float64
	OrgPath  string

	Notes       []string
	NextActions []string
}

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"deref": func(p *float64) float64 { return *p },
}

var runOrg = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// RenderOrg writes the Org page for the run to w.
func (v *RunReport) RenderOrg(w io.Writer) error {
	return runOrg.Execute(w, v)
}

// WriteOrg renders the page into v.OrgPath.
func (v *RunReport) WriteOrg() error {
	buf := new(bytes.Buffer)
	if err := v.RenderOrg(buf); err != nil {
		return err
	}
	return os.WriteFile(v.OrgPath, buf.Bytes(), 0644)
}

const RunOrgTemplate = `
* BACKTEST: {{.Kind}} {{.Market}}{{if .ShortMarket}} / {{.ShortMarket}}{{end}} {{if .Exchange}}{{.Exchange}}{{else}}(exchange?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:KIND:        {{.Kind}}
:EXCHANGE:    {{.Exchange}}
:MARKET:      {{.Market}}
{{- if .ShortMarket}}
:SHORT:       {{.ShortMarket}}
{{- end}}
:LEVERAGE:    {{printf "%g" .Leverage}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:FINAL_PNL:   {{printf "%.6f" .FinalPnL}}
:MAX_DD:      {{printf "%.6f" .MaxDrawdown}}
:SHARPE:      {{if .Sharpe}}{{printf "%.4f" (deref .Sharpe)}}{{else}}(sharpe?){{end}}
:TRADES:      {{.Trades}}
:STOPS:       {{.Stops}}
:LIQUIDATED:  {{.Liquidated}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Engine Parameters
| Parameter | Value |
|-----------+-------|
| Config    | {{printf "%s" .Config}} |

** Performance Summary
- Final P/L:        *{{printf "%.2f" (mul100 .FinalPnL)}}%*
- Hold P/L:         *{{printf "%.2f" (mul100 .HoldPnL)}}%*
- Max Drawdown:     *{{printf "%.2f" (mul100 .MaxDrawdown)}}%*
- Fees:             *{{printf "%.6f" .Fees}}*
- Sharpe:           *{{if .Sharpe}}{{printf "%.4f" (deref .Sharpe)}}{{else}}n/a{{end}}*

** Trade Distribution
| Outcome    | Count |
|------------+-------|
| Trades     | {{.Trades}} |
| Stops      | {{.Stops}} |
| Liquidated | {{.Liquidated}} |

{{- if .Notes }}
** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}

{{- if .NextActions }}
** Notes / Next Actions
{{- range .NextActions }}
- [ ] {{.}}
{{- end }}
{{- end }}
`
