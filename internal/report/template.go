package report

var reportTemplate = `
<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <style>
    body { font-family: 'Helvetica Neue', Arial, sans-serif; margin: 32px; color: #0f172a; }
    h1 { margin: 0 0 4px; font-size: 26px; }
    h2 { font-size: 16px; margin: 24px 0 8px; border-bottom: 2px solid #2563eb; padding-bottom: 4px; }
    .brand { color: #2563eb; font-weight: 700; font-size: 13px; letter-spacing: 1px; }
    .meta { display: flex; justify-content: space-between; margin-bottom: 24px; }
    .label { font-size: 11px; color: #475569; text-transform: uppercase; }
    .value { font-size: 14px; margin-bottom: 4px; }
    .scores { display: flex; gap: 16px; margin: 16px 0; }
    .score-card { flex: 1; border: 1px solid #e2e8f0; border-radius: 8px; padding: 16px; text-align: center; }
    .score-value { font-size: 32px; font-weight: 700; color: #2563eb; }
    ul { margin: 4px 0; padding-left: 20px; }
    li { font-size: 13px; margin-bottom: 2px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { padding: 6px 8px; border-bottom: 1px solid #e2e8f0; text-align: left; font-size: 13px; }
    th { background: #f8fafc; }
    .cost-row { display: flex; justify-content: space-between; font-size: 14px; padding: 4px 0; }
    .footer { margin-top: 32px; font-size: 11px; color: #64748b; border-top: 1px solid #e2e8f0; padding-top: 8px; }
  </style>
</head>
<body>
  <div class="meta">
    <div>
      <div class="brand">XTEAM.PRO</div>
      <h1>Business Automation Audit Report</h1>
      <div class="value">{{.Audit.CompanyName}}</div>
    </div>
    <div style="text-align:right">
      <div class="label">Generated</div>
      <div class="value">{{.GeneratedAt}}</div>
      <div class="label">Industry</div>
      <div class="value">{{.Audit.Industry}}</div>
      <div class="label">Company size</div>
      <div class="value">{{.Audit.CompanySize}}</div>
    </div>
  </div>

  <div class="scores">
    <div class="score-card">
      <div class="score-value">{{.Result.MaturityScore}}</div>
      <div class="label">Automation Maturity</div>
    </div>
    <div class="score-card">
      <div class="score-value">{{.Result.AutomationPotential}}</div>
      <div class="label">Automation Potential</div>
    </div>
    <div class="score-card">
      <div class="score-value">{{pct .Result.ROIProjection}}</div>
      <div class="label">Projected ROI</div>
    </div>
  </div>

  <h2>Strengths</h2>
  <ul>{{range .Result.Strengths}}<li>{{.}}</li>{{end}}</ul>

  <h2>Areas for Improvement</h2>
  <ul>{{range .Result.Weaknesses}}<li>{{.}}</li>{{end}}</ul>

  <h2>Automation Opportunities</h2>
  <ul>{{range .Result.Opportunities}}<li>{{.}}</li>{{end}}</ul>

  <h2>Recommendations</h2>
  <ul>{{range .Result.Recommendations}}<li>{{.}}</li>{{end}}</ul>

  {{if .Result.ProcessScores}}
  <h2>Process Maturity Scores</h2>
  <table>
    <thead><tr><th>Process</th><th>Score</th></tr></thead>
    <tbody>
    {{range $name, $score := .Result.ProcessScores}}
      <tr><td>{{$name}}</td><td>{{$score}} / 100</td></tr>
    {{end}}
    </tbody>
  </table>
  {{end}}

  {{if .HasCosts}}
  <h2>Investment Analysis</h2>
  <div style="max-width:320px;">
    <div class="cost-row"><div>Estimated annual savings</div><div>{{money .EstimatedSavings}}</div></div>
    <div class="cost-row"><div>Implementation cost</div><div>{{money .ImplementationCost}}</div></div>
    <div class="cost-row" style="font-weight:700;"><div>Payback period</div><div>{{printf "%.0f" .PaybackPeriod}} months</div></div>
  </div>
  {{end}}

  <h2>Implementation Timeline</h2>
  <div class="value">{{.Result.ImplementationTimeline}}</div>

  <div class="footer">
    Prepared by XTeam.Pro for {{.Audit.ContactName}} ({{.Audit.ContactEmail}}).
    This assessment is based on the information provided at submission time.
  </div>
</body>
</html>
`
