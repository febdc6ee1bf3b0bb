package shoplist

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const sheet = "Sheet1"

// XLSX writes the list as a workbook with one row per item.
func XLSX(l List, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", []interface{}{"category", "ingredient", "amount", "meals"}); err != nil {
		return err
	}
	row := 2
	for _, g := range l.Groups {
		for _, it := range g.Items {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			vals := []interface{}{
				g.Category,
				it.Ingredient.Name,
				strings.Join(it.Amounts, " + "),
				strings.Join(it.Meals, ", "),
			}
			if err := sw.SetRow(cell, vals); err != nil {
				return err
			}
			row++
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	if name := strings.TrimSpace(l.Menu.Name); name != "" {
		_ = f.SetDocProps(&excelize.DocProperties{Title: "Shopping list " + name})
	}
	_, err = f.WriteTo(w)
	return err
}
