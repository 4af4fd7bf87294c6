// Package matcher resolves county parcel numbers to account numbers using
// the assessor's CSV export, and extracts parcel numbers from property
// folder names.
package matcher

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ParcelMatcher maps normalized parcel numbers to account numbers. The CSV
// is loaded once at construction; lookups are read-only afterwards.
type ParcelMatcher struct {
	csvPath   string
	parcelMap map[string]string
}

// NewParcelMatcher loads the accounts CSV and builds the lookup table. The
// file must carry ACCOUNTNO and PARCELNO columns; anything else is a fatal
// configuration problem, not a per-lookup one.
func NewParcelMatcher(csvPath string) (*ParcelMatcher, error) {
	m := &ParcelMatcher{
		csvPath:   csvPath,
		parcelMap: make(map[string]string),
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// NormalizeParcelNumber prepares a parcel number for matching: trim, upper
// case, and strip the separators people type into folder names.
func NormalizeParcelNumber(parcelNo string) string {
	normalized := strings.ToUpper(strings.TrimSpace(parcelNo))
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, "_", "")
	normalized = strings.ReplaceAll(normalized, " ", "")
	return normalized
}

func (m *ParcelMatcher) load() error {
	f, err := os.Open(m.csvPath)
	if err != nil {
		return fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // assessor exports have ragged rows

	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read CSV %s: %w", m.csvPath, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("CSV %s is empty", m.csvPath)
	}

	header := records[0]
	accountCol, parcelCol := -1, -1
	for i, col := range header {
		switch strings.ToUpper(strings.TrimSpace(col)) {
		case "ACCOUNTNO":
			accountCol = i
		case "PARCELNO":
			parcelCol = i
		}
	}
	if accountCol < 0 || parcelCol < 0 {
		return fmt.Errorf("CSV %s missing required columns ACCOUNTNO/PARCELNO (found: %v)", m.csvPath, header)
	}

	for _, row := range records[1:] {
		if len(row) <= accountCol || len(row) <= parcelCol {
			continue
		}
		account := strings.TrimSpace(row[accountCol])
		parcel := strings.TrimSpace(row[parcelCol])

		// Spreadsheet round-trips leave "nan" in blank cells.
		if parcel == "" || strings.EqualFold(parcel, "nan") {
			continue
		}
		if account == "" || strings.EqualFold(account, "nan") {
			continue
		}

		parcel = repairNumericCell(parcel)

		if normalized := NormalizeParcelNumber(parcel); normalized != "" {
			m.parcelMap[normalized] = account
		}
	}

	slog.Debug("photoproc: loaded parcel map", "csv", m.csvPath, "entries", len(m.parcelMap))
	return nil
}

// repairNumericCell undoes the damage spreadsheets do to long parcel numbers:
// scientific notation ("3.177e+11") and float formatting ("317703000043.0").
func repairNumericCell(cell string) string {
	lower := strings.ToLower(cell)
	if strings.Contains(lower, "e+") || strings.Contains(lower, "e-") {
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			return strconv.FormatFloat(f, 'f', 0, 64)
		}
		return cell
	}
	if strings.HasSuffix(cell, ".0") {
		return strings.TrimSuffix(cell, ".0")
	}
	return cell
}

// Match resolves a parcel number to an account number. Matching is exact
// first, then tolerant of leading zeros on either side, since folders and
// CSV exports disagree about them. The second return is false when nothing
// matches.
func (m *ParcelMatcher) Match(parcelNo string) (string, bool) {
	normalized := NormalizeParcelNumber(parcelNo)
	if normalized == "" {
		return "", false
	}

	if account, ok := m.parcelMap[normalized]; ok {
		return account, true
	}

	stripped := strings.TrimLeft(normalized, "0")
	if stripped != "" {
		if account, ok := m.parcelMap[stripped]; ok {
			return account, true
		}

		// Reverse check: the CSV side may carry the leading zeros. Keys are
		// scanned in sorted order so repeated runs pick the same row.
		keys := make([]string, 0, len(m.parcelMap))
		for k := range m.parcelMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, stored := range keys {
			if strings.TrimLeft(stored, "0") == stripped {
				return m.parcelMap[stored], true
			}
		}
	}

	return "", false
}

// Len returns the number of parcel entries loaded from the CSV.
func (m *ParcelMatcher) Len() int {
	return len(m.parcelMap)
}

// Path returns the CSV file the matcher was loaded from.
func (m *ParcelMatcher) Path() string {
	return m.csvPath
}
