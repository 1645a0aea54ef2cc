package generate_excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"autoservice/internal/service"
	"autoservice/internal/storage"
)

type EarningsSource interface {
	EarningsHistory(ctx context.Context, actor storage.Actor, apprenticeID int64, window service.Window) (*service.EarningsHistory, error)
}

type GenerateExcelService struct {
	source EarningsSource
}

func NewGenerateService(source EarningsSource) *GenerateExcelService {
	return &GenerateExcelService{source: source}
}

const sheet = "Заработок"

var headers = []string{"№", "Дата выполнения", "Заказ", "Задача", "Сумма"}

// GenerateExcel строит xlsx с историей начислений ученика за окно.
// Права проверяются тем же EarningsHistory, что и для JSON.
func (g *GenerateExcelService) GenerateExcel(ctx context.Context, actor storage.Actor, apprenticeID int64, window service.Window) ([]byte, error) {
	const op = "service.generate_excel.GenerateExcel"

	history, err := g.source.EarningsHistory(ctx, actor, apprenticeID, window)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// #,##0
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s, период: %s", history.ApprenticeName, history.Window))
	for i, name := range headers {
		f.SetCellValue(sheet, cellName(i+1, 2), name)
	}
	f.SetCellStyle(sheet, "A2", cellName(len(headers), 2), headerStyle)

	row := 3
	for i, e := range history.Entries {
		f.SetCellValue(sheet, cellName(1, row), i+1)
		f.SetCellValue(sheet, cellName(2, row), e.CompletedAt.Format("2006-01-02 15:04"))
		f.SetCellValue(sheet, cellName(3, row), e.OrderID)
		f.SetCellValue(sheet, cellName(4, row), e.TaskTitle)
		f.SetCellValue(sheet, cellName(5, row), e.Amount)
		row++
	}

	f.SetCellValue(sheet, cellName(4, row), "Итого")
	f.SetCellValue(sheet, cellName(5, row), history.Total)
	f.SetCellValue(sheet, cellName(4, row+1), "Баланс")
	f.SetCellValue(sheet, cellName(5, row+1), history.Balance)
	f.SetCellStyle(sheet, cellName(5, 3), cellName(5, row+1), moneyStyle)

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      2,
		TopLeftCell: "A3",
	})
	f.SetColWidth(sheet, "B", "B", 18)
	f.SetColWidth(sheet, "D", "D", 40)
	f.SetColWidth(sheet, "E", "E", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
