package archive

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"bloodbank/internal/core"
	"bloodbank/pkg/domain"
)

// XLSXContentType is the media type of rendered reports.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Report sheet names.
const (
	SheetStock    = "Stock"
	SheetShortage = "Shortage"
	SheetUnits    = "Units"
	SheetWaiting  = "Waiting List"
)

// Inventory is the input of an inventory report.
type Inventory struct {
	GeneratedAt time.Time
	Stock       map[string]int
	Shortage    map[string]int
	Units       []core.BloodUnit
	Waiting     []core.Recipient
}

// InventoryFromService collects the report input from svc.
func InventoryFromService(svc *core.Service) Inventory {
	return Inventory{
		GeneratedAt: svc.Now(),
		Stock:       svc.StockByGroup(),
		Shortage:    svc.ShortageByGroup(),
		Units:       svc.ListUnits(),
		Waiting:     svc.WaitingList(),
	}
}

// RenderInventoryReport builds an XLSX workbook with one sheet per view.
func RenderInventoryReport(inv Inventory) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F4CCCC"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	sheets := []struct {
		name   string
		header []string
		rows   [][]any
	}{
		{SheetStock, []string{"Blood Group", "In Stock"}, groupRows(inv.Stock)},
		{SheetShortage, []string{"Blood Group", "Waiting"}, groupRows(inv.Shortage)},
		{SheetUnits, []string{"Unit", "Donor", "Blood Group", "Donation Date", "Expiry Date", "Status", "Recipient"}, unitRows(inv.Units)},
		{SheetWaiting, []string{"Recipient", "Name", "Blood Group", "Reason", "Mobile"}, waitingRows(inv.Waiting)},
	}
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s.name, s.header, s.rows, headerStyle); err != nil {
			return nil, err
		}
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Blood bank inventory",
		Created: inv.GeneratedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("set properties: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle int) error {
	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func groupRows(counts map[string]int) [][]any {
	rows := make([][]any, 0, len(domain.BloodGroups))
	for _, g := range domain.BloodGroups {
		rows = append(rows, []any{g, counts[g]})
	}
	return rows
}

func unitRows(units []core.BloodUnit) [][]any {
	rows := make([][]any, 0, len(units))
	for _, u := range units {
		recipient := ""
		if u.RecipientID != nil {
			recipient = fmt.Sprint(*u.RecipientID)
		}
		rows = append(rows, []any{
			u.ID, u.DonorID, u.BloodGroup,
			u.DonationDate.Format(time.DateOnly), u.ExpiryDate.Format(time.DateOnly),
			string(u.Status), recipient,
		})
	}
	return rows
}

func waitingRows(recipients []core.Recipient) [][]any {
	rows := make([][]any, 0, len(recipients))
	for _, r := range recipients {
		rows = append(rows, []any{r.ID, r.FullName(), r.BloodGroup, r.Reason, r.MobileNo})
	}
	return rows
}
