package server

import (
	"html/template"

	"github.com/shopspring/decimal"
)

var templateFuncs = template.FuncMap{
	"num": func(d decimal.NullDecimal) string {
		if !d.Valid {
			return "-"
		}
		return d.Decimal.StringFixed(2)
	},
}

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(templateFuncs).Parse(dashboardHTML))

const dashboardHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Stock Dashboard</title></head>
<body>
<form method="get" action="/">
  <label>Forward P/E below <input name="forward_pe" value="{{.ForwardPE}}"></label>
  <label><input type="checkbox" name="ma50" value="on"{{if .MA50}} checked{{end}}> Price above MA50</label>
  <label><input type="checkbox" name="ma200" value="on"{{if .MA200}} checked{{end}}> Price above MA200</label>
  <button type="submit">Filter</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<table>
  <thead>
    <tr><th>Symbol</th><th>Price</th><th>Forward P/E</th><th>Forward EPS</th><th>MA50</th><th>MA200</th><th>Dividend %</th><th>Status</th><th>Market</th></tr>
  </thead>
  <tbody>
  {{range .Stocks}}
    <tr>
      <td>{{.Symbol}}</td>
      <td>{{num .Price}}</td>
      <td>{{num .ForwardPE}}</td>
      <td>{{num .ForwardEPS}}</td>
      <td>{{num .MA50}}</td>
      <td>{{num .MA200}}</td>
      <td>{{num .DividendYield}}</td>
      <td>{{.FetchStatus}}{{if .FetchError}} ({{.FetchError}}){{end}}</td>
      <td>{{.Exchange}} {{if .MarketOpen}}open{{else}}closed{{end}}</td>
    </tr>
  {{else}}
    <tr><td colspan="9">No stocks</td></tr>
  {{end}}
  </tbody>
</table>
</body>
</html>
`
