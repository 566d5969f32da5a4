// Package templates renders the dashboard page and the fragments patched
// into it over SSE.
package templates

import (
	"context"
	"encoding/json"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/sales"
)

const (
	PageTitle = "商场销售数据筛选分析工具"

	// EmptyNotice is shown in place of the table when no data was loaded.
	EmptyNotice = "⚠️ 暂无数据可展示，请检查Excel文件和依赖配置！"

	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"
)

var funcs = template.FuncMap{
	"join": strings.Join,
	"orderKey": func() string {
		return sales.ColumnOrderID
	},
}

var tableTemplate = template.Must(template.New("table").Funcs(funcs).Parse(`
<div id="table-content">
{{if .Rows}}<table class="modern-table">
<thead><tr><th>{{orderKey}}</th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.OrderID}}</td>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>{{else}}<p class="empty-result">没有符合筛选条件的数据</p>{{end}}
</div>`))

var summaryTemplate = template.Must(template.New("summary").Funcs(funcs).Parse(`
<div id="summary-content" class="summary">
<strong>✅ 筛选结果统计：</strong>
<ul>
<li>总行数：{{.Rows}} 行</li>
<li>总列数：{{.Columns}} 列</li>
<li>涉及城市：{{join .Cities ", "}}</li>
<li>销售总额：{{.TotalSales.StringFixed 2}}</li>
</ul>
</div>`))

var hourlyTemplate = template.Must(template.New("hourly").Parse(`
<div id="hourly-content">
<table class="modern-table">
<thead><tr><th>小时</th><th>订单数</th><th>销售额</th></tr></thead>
<tbody>
{{range .}}<tr><td>{{.Hour}}</td><td>{{.Transactions}}</td><td>{{.Sales.StringFixed 2}}</td></tr>
{{end}}</tbody>
</table>
</div>`))

var emptyTemplate = template.Must(template.New("empty").Parse(`<div id="empty-state">
{{if .Notice}}<p class="notice">{{.Notice}}</p>{{end}}
<div class="warning">{{.Warning}}</div>
</div>`))

var pageTemplate = template.Must(template.New("page").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<script type="module" src="{{.Script}}"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; display: flex; }
aside { width: 260px; padding: 1rem; background: #f5f6f8; min-height: 100vh; }
main { flex: 1; padding: 1rem 2rem; overflow-x: auto; }
fieldset { border: none; margin: 0 0 1rem; padding: 0; }
legend { font-weight: 600; margin-bottom: .25rem; }
.modern-table { border-collapse: collapse; font-size: .85rem; }
.modern-table th, .modern-table td { border: 1px solid #ddd; padding: .25rem .5rem; white-space: nowrap; }
.summary { background: #e8f4fd; padding: .5rem 1rem; margin: 1rem 0; }
.warning { background: #fff4e5; padding: 1rem; }
.notice { white-space: pre-line; color: #b00020; }
</style>
</head>
<body>
{{if .Available}}
<aside data-signals='{{.Signals}}'>
<h2>🔍 数据筛选条件</h2>
<form data-on-change="@get('/sse/filter')">
<fieldset><legend>选择城市</legend>
{{range .Options.Cities}}<label><input type="checkbox" data-bind-cities value="{{.}}" checked> {{.}}</label><br>
{{end}}</fieldset>
<fieldset><legend>选择顾客类型</legend>
{{range .Options.CustomerTypes}}<label><input type="checkbox" data-bind-customer-types value="{{.}}" checked> {{.}}</label><br>
{{end}}</fieldset>
<fieldset><legend>选择性别</legend>
{{range .Options.Genders}}<label><input type="checkbox" data-bind-genders value="{{.}}" checked> {{.}}</label><br>
{{end}}</fieldset>
</form>
</aside>
{{end}}
<main>
<h1>📊 {{.Title}}</h1>
<hr>
{{if .Available}}
<h2>📋 筛选后的数据结果</h2>
{{.Table}}
{{.Summary}}
<h3>⏰ 各小时销售情况</h3>
{{.Hourly}}
{{else}}
{{.Empty}}
{{end}}
</main>
</body>
</html>`))

// DashboardData is everything the page needs for its first render.
type DashboardData struct {
	Options models.FilterOptions
	Table   *sales.Table
	Summary models.Summary
	Hourly  []models.HourlySales
	// Notice is the load failure message, empty when the data loaded.
	Notice string
}

// Signals is the Datastar signal set of the filter sidebar.
type Signals struct {
	Cities        []string `json:"cities"`
	CustomerTypes []string `json:"customerTypes"`
	Genders       []string `json:"genders"`
}

func Dashboard(data DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		available := !data.Table.Empty()

		view := struct {
			Title     string
			Script    string
			Available bool
			Signals   string
			Options   models.FilterOptions
			Table     template.HTML
			Summary   template.HTML
			Hourly    template.HTML
			Empty     template.HTML
		}{
			Title:     PageTitle,
			Script:    datastarScript,
			Available: available,
			Options:   data.Options,
		}

		if !available {
			empty, err := renderHTML(ctx, EmptyState(data.Notice))
			if err != nil {
				return err
			}
			view.Empty = empty
			return pageTemplate.Execute(w, view)
		}

		signals, err := json.Marshal(Signals{
			Cities:        data.Options.Cities,
			CustomerTypes: data.Options.CustomerTypes,
			Genders:       data.Options.Genders,
		})
		if err != nil {
			return err
		}
		view.Signals = string(signals)

		if view.Table, err = renderHTML(ctx, TransactionTable(data.Table)); err != nil {
			return err
		}
		if view.Summary, err = renderHTML(ctx, SummaryPanel(data.Summary)); err != nil {
			return err
		}
		if view.Hourly, err = renderHTML(ctx, HourlyTable(data.Hourly)); err != nil {
			return err
		}

		return pageTemplate.Execute(w, view)
	})
}

// TransactionTable renders #table-content for t.
func TransactionTable(t *sales.Table) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if t == nil {
			t = sales.EmptyTable()
		}
		return tableTemplate.Execute(w, t)
	})
}

// EmptyState renders #empty-state: the load failure notice, if any, above
// the no-data warning.
func EmptyState(notice string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return emptyTemplate.Execute(w, struct {
			Notice  string
			Warning string
		}{notice, EmptyNotice})
	})
}

// SummaryPanel renders #summary-content.
func SummaryPanel(s models.Summary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return summaryTemplate.Execute(w, s)
	})
}

// HourlyTable renders #hourly-content.
func HourlyTable(hourly []models.HourlySales) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return hourlyTemplate.Execute(w, hourly)
	})
}

// Render writes c to a string.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderHTML(ctx context.Context, c templ.Component) (template.HTML, error) {
	s, err := Render(ctx, c)
	return template.HTML(s), err
}
