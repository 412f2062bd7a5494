package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"

	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/platform/textfold"

	"github.com/xuri/excelize/v2"
)

// column describes one header the reader looks for. Any alias matches,
// compared without case or accents.
type column struct {
	name     string
	aliases  []string
	required bool
}

var clientColumns = []column{
	{name: "DNI", aliases: []string{"dni", "ruc_dni", "ruc"}, required: true},
	{name: "Nombres", aliases: []string{"nombres", "nombre", "razon_social"}, required: true},
	{name: "Dirección", aliases: []string{"direccion"}, required: true},
	{name: "Teléfono", aliases: []string{"telefono", "celular"}, required: true},
	{name: "Correo", aliases: []string{"correo", "email"}},
}

var orderColumns = []column{
	{name: "DNI_Cliente", aliases: []string{"dni_cliente", "ruc_dni_cliente"}, required: true},
	{name: "Fecha", aliases: []string{"fecha"}, required: true},
	{name: "Descripción", aliases: []string{"descripcion", "detalle_carga"}, required: true},
	{name: "Estado", aliases: []string{"estado"}},
}

// sheet is the first worksheet of a workbook with its header resolved.
type sheet struct {
	rows  [][]string
	index map[string]int
}

func openSheet(path string, cols []column) (*sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook %q has no sheets", path)
	}

	rows, err := f.GetRows(names[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %q: %w", names[0], path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q of %q is empty", names[0], path)
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		k := textfold.Key(h)
		if _, dup := header[k]; !dup && k != "" {
			header[k] = i
		}
	}

	index := make(map[string]int, len(cols))
	var missing []string
	for _, c := range cols {
		found := false
		for _, a := range c.aliases {
			if i, ok := header[a]; ok {
				index[c.name] = i
				found = true
				break
			}
		}
		if !found && c.required {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%q: missing required columns: %s", path, strings.Join(missing, ", "))
	}

	return &sheet{rows: rows[1:], index: index}, nil
}

func (s *sheet) cell(row []string, name string) string {
	i, ok := s.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ReadClientRows reads the client workbook at path. Blank rows are skipped.
func ReadClientRows(path string) ([]domain.ClientImportRow, error) {
	s, err := openSheet(path, clientColumns)
	if err != nil {
		return nil, fmt.Errorf("read client rows: %w", err)
	}

	out := make([]domain.ClientImportRow, 0, len(s.rows))
	for i, row := range s.rows {
		if blank(row) {
			continue
		}
		out = append(out, domain.ClientImportRow{
			Line:    i + 2,
			TaxID:   s.cell(row, "DNI"),
			Name:    s.cell(row, "Nombres"),
			Address: s.cell(row, "Dirección"),
			Phone:   s.cell(row, "Teléfono"),
			Email:   s.cell(row, "Correo"),
		})
	}
	return out, nil
}

// ReadOrderRows reads the order workbook at path. Date cells stored as
// Excel serial numbers are converted to YYYY-MM-DD.
func ReadOrderRows(path string) ([]domain.OrderImportRow, error) {
	s, err := openSheet(path, orderColumns)
	if err != nil {
		return nil, fmt.Errorf("read order rows: %w", err)
	}

	out := make([]domain.OrderImportRow, 0, len(s.rows))
	for i, row := range s.rows {
		if blank(row) {
			continue
		}
		out = append(out, domain.OrderImportRow{
			Line:        i + 2,
			ClientTaxID: s.cell(row, "DNI_Cliente"),
			Date:        normalizeDate(s.cell(row, "Fecha")),
			Description: s.cell(row, "Descripción"),
			Status:      s.cell(row, "Estado"),
		})
	}
	return out, nil
}

func normalizeDate(v string) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return t.Format("2006-01-02")
}
