// Package report composes the narrative recruitment report from a statistics
// snapshot, as Markdown and as a styled HTML page.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/okian/recruitstat/internal/domain/stats"
)

// Defaults used when no option overrides them.
const (
	DefaultClassYear          = 2025
	DefaultOrganization       = "人力资源部"
	DefaultTargetInstitutions = 98
)

// PNGDataPrefix is prepended to chart images supplied as raw base64.
const PNGDataPrefix = "data:image/png;base64,"

// ChartImages maps a dimension JSON key to a base64 PNG or a PNG data URL.
type ChartImages map[string]string

// dataURL returns the image for d as a data URL.
func (c ChartImages) dataURL(d stats.Dimension) (string, bool) {
	img := strings.TrimSpace(c[string(d)])
	if img == "" {
		return "", false
	}
	if !strings.HasPrefix(img, PNGDataPrefix) {
		img = PNGDataPrefix + img
	}
	return img, true
}

// section describes how one distribution is narrated.
type section struct {
	dim      stats.Dimension
	title    string
	chartAlt string
	empty    string
	ranks    int
}

var sections = []section{
	{stats.DimPolitical, "政治面貌分布", "政治面貌分布图", "暂无政治面貌数据。", 3},
	{stats.DimGender, "性别分布", "性别分布图", "暂无性别数据。", 2},
	{stats.DimAge, "年龄分布", "年龄分布图", "暂无年龄分布数据。", 3},
	{stats.DimEducation, "学历分布", "学历分布图", "暂无学历数据。", 3},
	{stats.DimInstitution, "院校类别分布", "院校类别分布图", "暂无院校类别数据。", 3},
	{stats.DimMajorType, "专业类型分布", "专业类型分布图", "暂无专业类型数据。", 3},
	{stats.DimProvince, "籍贯分布", "籍贯分布图", "暂无籍贯分布数据。", 3},
}

// Composer renders reports. It is safe for concurrent use.
type Composer struct {
	classYear    int
	organization string
	targets      int
	now          func() time.Time
	md           goldmark.Markdown
}

// Option configures a Composer.
type Option func(*Composer)

// WithClassYear sets the graduating class year used in headings and prose.
func WithClassYear(year int) Option {
	return func(c *Composer) {
		if year > 0 {
			c.classYear = year
		}
	}
}

// WithOrganization sets the department named in the prose and page footer.
func WithOrganization(org string) Option {
	return func(c *Composer) {
		if org = strings.TrimSpace(org); org != "" {
			c.organization = org
		}
	}
}

// WithTargetInstitutions sets the number of domestic target institutions
// named in the overall paragraph.
func WithTargetInstitutions(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.targets = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a Composer with the given options applied over the defaults.
func New(opts ...Option) *Composer {
	c := &Composer{
		classYear:    DefaultClassYear,
		organization: DefaultOrganization,
		targets:      DefaultTargetInstitutions,
		now:          time.Now,
		md:           goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClassYear returns the configured class year.
func (c *Composer) ClassYear() int { return c.classYear }

// Organization returns the department named in reports.
func (c *Composer) Organization() string { return c.organization }

// Markdown renders the report. Every section tolerates any number of
// distribution entries.
func (c *Composer) Markdown(snap stats.Snapshot, charts ChartImages) string {
	return c.markdown(snap, charts, c.now())
}

func (c *Composer) markdown(snap stats.Snapshot, charts ChartImages, now time.Time) string {
	var b strings.Builder
	year := c.classYear

	fmt.Fprintf(&b, "# %d届校园招聘情况说明\n\n", year)
	fmt.Fprintf(&b, "## 一、%d届校园招聘整体情况\n\n", year)
	fmt.Fprintf(&b, "为深入贯彻人才工作会议精神，推进集团及公司\"十四五\"人力资源战略规划实施，"+
		"持续提升公司能主动牵引业务，满足公司高质量度的人才储备需求，"+
		"%s根据公司生产经营和人力资源规划要求，制定%d年招聘计划，"+
		"并根据计划在国内%d所目标院校及海外专场招聘会中全力推进人才引进工作。"+
		"本届校园招聘，截止%s公司累计签约%d人，其中，两方协议%d人，三方协议%d人。\n\n",
		c.organization, year, c.targets, now.Format(time.DateOnly),
		snap.TotalCount, snap.BilateralCount, snap.TrilateralCount)

	fmt.Fprintf(&b, "## 二、%d届校园招聘引进人员情况\n\n", year)
	for i, s := range sections {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, s.title)
		b.WriteString(c.sentence(s, snap.Distribution(s.dim), snap.TotalCount))
		b.WriteString("\n\n")
		if img, ok := charts.dataURL(s.dim); ok {
			fmt.Fprintf(&b, "![%s](%s)\n\n", s.chartAlt, img)
		}
		if s.dim == stats.DimInstitution {
			b.WriteString("#### 重点院校统计\n\n")
			b.WriteString(specialParagraph(snap.SpecialInstitutions))
			b.WriteString("\n\n")
		}
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "*报告生成时间：%s*", now.Format(time.DateTime))
	return b.String()
}

// sentence narrates up to s.ranks leading entries and summarises the rest.
func (c *Composer) sentence(s section, dist stats.Distribution, total int) string {
	if len(dist) == 0 {
		return s.empty
	}
	n := min(len(dist), s.ranks)
	parts := make([]string, 0, n+1)
	for _, e := range dist[:n] {
		parts = append(parts, fmt.Sprintf("%s%d人，占比%s%%", e.Name, e.Count, formatPercent(e.Percentage)))
	}
	if rest := dist[n:]; len(rest) > 0 {
		count := rest.Sum()
		parts = append(parts, fmt.Sprintf("其余%d类合计%d人，占比%s%%",
			len(rest), count, formatPercent(stats.Percentage(count, total))))
	}
	return fmt.Sprintf("%d届校园招聘引进人员中，%s。", c.classYear, strings.Join(parts, "；"))
}

// specialParagraph lists non-zero flagship counts with the alliance remainder
// placed after the two alliance flagships.
func specialParagraph(s stats.SpecialInstitutions) string {
	items := make([]string, 0, len(s.Flagships)+1)
	add := func(label string, n int) {
		if n > 0 {
			items = append(items, label+strconv.Itoa(n)+"人")
		}
	}
	for _, name := range stats.AllianceFlagships {
		add(name, s.Count(name))
	}
	add("C9联盟（除清华北大外）", s.AllianceExcludingFlagships)
	for _, f := range s.Flagships {
		if !isAllianceFlagship(f.Name) {
			add(f.Name, f.Count)
		}
	}
	if len(items) == 0 {
		return "引进重点院校人员情况如下：无。"
	}
	return "引进重点院校人员情况如下：" + strings.Join(items, "、") + "。"
}

func isAllianceFlagship(name string) bool {
	for _, a := range stats.AllianceFlagships {
		if a == name {
			return true
		}
	}
	return false
}

// formatPercent always keeps one decimal, so 100 renders as "100.0".
func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}

// HTML renders the Markdown report into a standalone A4 styled page.
func (c *Composer) HTML(snap stats.Snapshot, charts ChartImages) (string, error) {
	return c.RenderHTML(c.Markdown(snap, charts))
}

// RenderHTML converts an already composed Markdown report into the page.
func (c *Composer) RenderHTML(markdown string) (string, error) {
	var body bytes.Buffer
	if err := c.md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	return c.page(body.String())
}

// Filename returns the archive name for a report rendered now, e.g.
// 校园招聘分析报告_20250101_093000.md.
func (c *Composer) Filename(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return "校园招聘分析报告_" + c.now().Format("20060102_150405") + "." + ext
}
