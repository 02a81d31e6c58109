package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ReadCSV lee filas sku;nombre;precio;costo;stock;stock_minimo (separador ';', con encabezado).
// Los exportes del ERP vienen en ISO-8859-1; latin1=false asume UTF-8.
func ReadCSV(r io.Reader, latin1 bool) ([]Item, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 6

	var items []Item
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "sku") {
			continue
		}
		it, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		items = append(items, it)
	}
	return items, nil
}

func parseRecord(rec []string) (Item, error) {
	sku := strings.TrimSpace(rec[0])
	name := strings.TrimSpace(rec[1])
	if sku == "" || name == "" {
		return Item{}, errors.New("sku y nombre son obligatorios")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
	if err != nil || !price.IsPositive() {
		return Item{}, fmt.Errorf("precio inválido %q", rec[2])
	}
	cost, err := decimal.NewFromString(strings.TrimSpace(rec[3]))
	if err != nil || cost.IsNegative() {
		return Item{}, fmt.Errorf("costo inválido %q", rec[3])
	}
	stock, err := strconv.ParseInt(strings.TrimSpace(rec[4]), 10, 64)
	if err != nil || stock < 0 {
		return Item{}, fmt.Errorf("stock inválido %q", rec[4])
	}
	minStock, err := strconv.ParseInt(strings.TrimSpace(rec[5]), 10, 64)
	if err != nil || minStock < 0 {
		return Item{}, fmt.Errorf("stock mínimo inválido %q", rec[5])
	}
	return Item{SKU: sku, Name: name, Price: price, UnitCost: cost, Stock: stock, MinStock: minStock}, nil
}
