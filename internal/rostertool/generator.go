package rostertool

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"

	"github.com/okian/recruitstat/internal/adapters/sheet"
	"github.com/okian/recruitstat/internal/domain/model"
	"github.com/okian/recruitstat/pkg/logger"
)

var (
	genders    = []string{"男", "女"}
	political  = []string{"中共党员", "中共预备党员", "共青团员", "群众"}
	origins    = []string{"湖南长沙", "湖南株洲", "湖北武汉", "广东广州", "四川成都", "河南郑州", "江西南昌", "北京", "上海"}
	agreements = []string{"已签约(两方)", "已签约(三方)", "已签约(三方)", "待签约"}
	positions  = []string{"研发工程师", "工艺工程师", "质量工程师", "营销专员", "财务专员"}
	educations = []string{"本科", "硕士研究生", "硕士研究生", "博士研究生"}
	majors     = []struct{ name, kind string }{
		{"电气工程", "工科"},
		{"机械工程", "工科"},
		{"车辆工程", "工科"},
		{"计算机科学与技术", "工科"},
		{"应用数学", "理科"},
		{"会计学", "经管"},
		{"市场营销", "经管"},
	}
	institutions = []struct{ name, tag string }{
		{"清华大学", "C9联盟/985/211"},
		{"北京大学", "C9联盟/985/211"},
		{"浙江大学", "C9联盟/985/211"},
		{"中南大学", "985/211"},
		{"同济大学", "985/211"},
		{"湖南大学", "985/211"},
		{"西南交通大学", "211/轨道交通合作院校"},
		{"北京交通大学", "211/轨道交通合作院校"},
		{"华东交通大学", "轨道交通合作院校"},
		{"湘潭大学", "湖南省知名高校"},
		{"长沙理工大学", "其他签字增补院校"},
		{"新加坡国立大学", "海外院校/QS1-50"},
		{"悉尼大学", "海外院校/QS100"},
		{"某海外大学", "海外院校"},
	}
)

// Generate builds a synthetic roster table of n rows with every required
// column. The same seed always yields the same table. A nil log discards
// output.
func Generate(ctx context.Context, log logger.Logger, n int, seed uint64) (model.Table, error) {
	if n < 1 {
		return model.Table{}, fmt.Errorf("rows must be positive, got %d", n)
	}
	if log == nil {
		log = logger.Nop()
	}
	log.Debug(ctx, "generating synthetic roster", logger.Int("rows", n), logger.Int64("seed", int64(seed)))

	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	pick := func(xs []string) string { return xs[r.IntN(len(xs))] }

	rows := make([][]string, n)
	for i := range rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return model.Table{}, err
			}
		}
		age := 21 + r.IntN(9)
		year := 2025 - age
		major := majors[r.IntN(len(majors))]
		inst := institutions[r.IntN(len(institutions))]
		rows[i] = []string{
			strconv.Itoa(i + 1),
			"候选人" + strconv.Itoa(i+1),
			pick(genders),
			strconv.Itoa(age),
			fmt.Sprintf("%d-%02d-%02d", year, 1+r.IntN(12), 1+r.IntN(28)),
			pick(political),
			pick(origins),
			pick(agreements),
			pick(positions),
			pick(educations),
			major.name,
			major.kind,
			inst.name,
			inst.tag,
		}
	}
	return model.Table{Columns: append([]string(nil), model.RequiredColumns...), Rows: rows}, nil
}

// WriteGenerated writes a synthetic roster workbook of n rows to w.
func WriteGenerated(ctx context.Context, log logger.Logger, w io.Writer, n int, seed uint64) (model.Table, error) {
	t, err := Generate(ctx, log, n, seed)
	if err != nil {
		return model.Table{}, err
	}
	if err := sheet.WriteWorkbook(w, t.Columns, t.Rows); err != nil {
		return model.Table{}, err
	}
	return t, nil
}
