package schema_test

import (
	"errors"
	"testing"

	"github.com/okian/recruitstat/internal/domain/model"
	"github.com/okian/recruitstat/internal/domain/schema"
	. "github.com/smartystreets/goconvey/convey"
)

func fullRow() []string {
	row := make([]string, len(model.RequiredColumns))
	for i := range row {
		row[i] = "x"
	}
	return row
}

func TestValidate(t *testing.T) {
	Convey("Given roster tables", t, func() {
		Convey("When every required column is present with data", func() {
			tbl := model.Table{Columns: model.RequiredColumns, Rows: [][]string{fullRow()}}
			res := schema.Validate(tbl)

			Convey("Then validation passes", func() {
				So(res.OK(), ShouldBeTrue)
				So(res.Err(), ShouldBeNil)
			})

			Convey("Then Check returns typed records", func() {
				ds, err := schema.Check(tbl)
				So(err, ShouldBeNil)
				So(len(ds), ShouldEqual, 1)
			})
		})

		Convey("When extra columns are present", func() {
			cols := append([]string{"备注"}, model.RequiredColumns...)
			row := append([]string{"note"}, fullRow()...)
			res := schema.Validate(model.Table{Columns: cols, Rows: [][]string{row}})

			So(res.OK(), ShouldBeTrue)
		})

		Convey("When some required columns are absent", func() {
			cols := []string{model.ColSeq, model.ColName, model.ColGender}
			res := schema.Validate(model.Table{Columns: cols, Rows: [][]string{{"1", "a", "男"}}})
			err := res.Err()

			Convey("Then every missing column is listed in required order", func() {
				So(res.Missing, ShouldResemble, model.RequiredColumns[3:])
				So(errors.Is(err, schema.ErrMissingColumns), ShouldBeTrue)
				So(errors.Is(err, schema.ErrNoRecords), ShouldBeFalse)
				So(err.Error(), ShouldStartWith, "缺少必需字段: 年龄, 出生日期")
			})
		})

		Convey("When the header is valid but there are no rows", func() {
			err := schema.Validate(model.Table{Columns: model.RequiredColumns}).Err()

			Convey("Then the empty-data rejection is reported", func() {
				So(errors.Is(err, schema.ErrNoRecords), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "Excel文件中没有数据")
			})
		})

		Convey("When rows are present but blank", func() {
			blank := make([]string, len(model.RequiredColumns))
			err := schema.Validate(model.Table{Columns: model.RequiredColumns, Rows: [][]string{blank}}).Err()

			So(errors.Is(err, schema.ErrNoRecords), ShouldBeTrue)
		})

		Convey("When both violations occur", func() {
			_, err := schema.Check(model.Table{})
			var se *schema.Error

			Convey("Then one error carries both", func() {
				So(errors.As(err, &se), ShouldBeTrue)
				So(len(se.Missing), ShouldEqual, len(model.RequiredColumns))
				So(se.Empty, ShouldBeTrue)
				So(errors.Is(err, schema.ErrMissingColumns), ShouldBeTrue)
				So(errors.Is(err, schema.ErrNoRecords), ShouldBeTrue)
			})
		})
	})
}
