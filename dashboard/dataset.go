// Package dashboard serves churn statistics for the telco dataset and shows
// the latest prediction of the inference service.
package dashboard

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"churnguard/db"
)

// Dataset column names.
const (
	ColumnCustomerID    = "Customer ID"
	ColumnChurnLabel    = "Churn Label"
	ColumnContract      = "Contract"
	ColumnMonthlyCharge = "Monthly Charge"
	ColumnTenure        = "Tenure in Months"
)

// LoadDataset reads the telco CSV at path. charset names the file encoding
// ("utf-8", "gbk", "windows-1252", ...); empty means UTF-8.
func LoadDataset(path, charset string) ([]db.Customer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadDataset(file, charset)
}

// ReadDataset parses the CSV from r. Only the churn label column is required.
func ReadDataset(r io.Reader, charset string) ([]db.Customer, error) {
	enc, err := lookupEncoding(charset)
	if err != nil {
		return nil, err
	}
	// A BOM-aware UTF-8 decoder strips the marker Excel exports add.
	decoder := unicode.BOMOverride(enc.NewDecoder())
	reader := csv.NewReader(transform.NewReader(r, decoder))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	labelIdx, ok := index[ColumnChurnLabel]
	if !ok {
		return nil, fmt.Errorf("dataset has no %q column", ColumnChurnLabel)
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	customers := make([]db.Customer, 0)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if labelIdx >= len(row) || strings.TrimSpace(row[labelIdx]) == "" {
			continue
		}
		charge, _ := strconv.ParseFloat(field(row, ColumnMonthlyCharge), 64)
		tenure, _ := strconv.Atoi(field(row, ColumnTenure))
		customers = append(customers, db.Customer{
			CustomerID:    field(row, ColumnCustomerID),
			ChurnLabel:    strings.TrimSpace(row[labelIdx]),
			Contract:      field(row, ColumnContract),
			MonthlyCharge: charge,
			TenureMonths:  tenure,
		})
	}
	return customers, nil
}

func lookupEncoding(charset string) (encoding.Encoding, error) {
	if charset == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	return enc, nil
}
