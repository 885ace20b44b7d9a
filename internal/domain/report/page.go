package report

import (
	"errors"
	"html/template"
	"strings"
)

// ErrRender is returned when the Markdown cannot be turned into HTML.
var ErrRender = errors.New("report render failed")

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.ClassYear}}届校园招聘分析报告</title>
    <style>
        @import url('https://fonts.googleapis.com/css2?family=Noto+Serif+SC:wght@400;500;600;700&display=swap');
        body {
            font-family: 'Noto Serif SC', serif;
            line-height: 1.6;
            margin: 0;
            padding: 20px;
            color: #333;
            background-color: #f9f9f9;
            font-size: 14px;
        }
        .container {
            max-width: 210mm;
            margin: 0 auto;
            background: white;
            padding: 30px;
            box-shadow: 0 1px 3px rgba(0,0,0,0.1);
        }
        h1 { font-size: 24px; text-align: center; margin-bottom: 30px; font-weight: 600; color: #1a1a1a; }
        h2 { font-size: 18px; border-bottom: 1px solid #eaecef; padding-bottom: 0.3em; margin-top: 24px; margin-bottom: 16px; font-weight: 600; color: #0066cc; }
        h3 { font-size: 16px; margin-top: 20px; margin-bottom: 12px; font-weight: 500; }
        p { margin-bottom: 16px; }
        img { max-width: 100%; height: auto; display: block; margin: 20px auto; border: 1px solid #eee; }
        hr { border: none; border-top: 1px solid #eaecef; margin: 20px 0; }
        .report-footer { margin-top: 30px; text-align: center; font-size: 12px; color: #666; }
        @page { size: A4; margin: 15mm; }
        @media print {
            body { background: white; padding: 0; }
            .container { box-shadow: none; }
            h1, h2, h3 { page-break-after: avoid; }
        }
    </style>
</head>
<body>
    <div class="container">
        {{.Body}}
        <div class="report-footer">
            <p>本报告由{{.Organization}}校园招聘数据分析平台自动生成，数据内部使用，严禁转载外发</p>
        </div>
    </div>
</body>
</html>
`))

type pageData struct {
	ClassYear    int
	Organization string
	Body         template.HTML
}

// page wraps converted Markdown. The body comes from goldmark with raw HTML
// disabled, so it is trusted as markup.
func (c *Composer) page(body string) (string, error) {
	var b strings.Builder
	err := pageTemplate.Execute(&b, pageData{
		ClassYear:    c.classYear,
		Organization: c.organization,
		Body:         template.HTML(body), //nolint:gosec // goldmark output without unsafe mode
	})
	if err != nil {
		return "", errors.Join(ErrRender, err)
	}
	return b.String(), nil
}
