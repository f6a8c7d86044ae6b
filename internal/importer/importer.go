// Package importer reads vocabulary entries from CSV or Excel files. It only
// parses; seeding the item store (and leaving already-known words untouched)
// is the store's job.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/wordmem/pkg/models"
	"github.com/xuri/excelize/v2"
)

// Config defines the import configuration
type Config struct {
	FilePath            string // Path to the Excel or CSV file
	WordColumn          string // Column with the word
	MeaningColumn       string // Column with the meaning
	PronunciationColumn string // Column with the pronunciation
	DifficultyColumn    string // Column with the difficulty
	SheetName           string // Name of the sheet to import (Excel only)
	StartRow            int    // The row to start importing from (1-based index)
}

// DefaultConfig returns the default import configuration
func DefaultConfig(filePath string) Config {
	return Config{
		FilePath:            filePath,
		WordColumn:          "A",
		MeaningColumn:       "B",
		PronunciationColumn: "C",
		DifficultyColumn:    "D",
		SheetName:           "Sheet1",
		StartRow:            2, // By default, start from the second row (skip header)
	}
}

// Result holds the outcome of an import operation
type Result struct {
	TotalProcessed int
	Records        []models.ImportRecord
	Skipped        int
	Errors         []string
}

// ReadFile parses vocabulary records from an Excel or CSV file, chosen by
// file extension.
func ReadFile(config Config) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return readCSV(config)
	}
	return readExcel(config)
}

// readCSV parses a CSV file with a header row naming the fields
// word, meaning, pronunciation and difficulty.
func readCSV(config Config) (*Result, error) {
	f, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %v", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	wordIdx, ok := columns["word"]
	if !ok {
		return nil, fmt.Errorf("CSV file has no 'word' column")
	}

	result := &Result{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", line, err))
			continue
		}
		result.TotalProcessed++

		field := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		word := ""
		if wordIdx < len(row) {
			word = strings.TrimSpace(row[wordIdx])
		}
		rec, err := buildRecord(word, field("meaning"), field("pronunciation"), field("difficulty"))
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", line, err))
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

// readExcel parses an Excel file using the configured column letters.
func readExcel(config Config) (*Result, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	result := &Result{}
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++

		cell := func(column string) string {
			idx, err := excelize.ColumnNameToNumber(column)
			if err != nil || idx > len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx-1])
		}

		rec, err := buildRecord(
			cell(config.WordColumn),
			cell(config.MeaningColumn),
			cell(config.PronunciationColumn),
			cell(config.DifficultyColumn),
		)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

// buildRecord validates one parsed row.
func buildRecord(word, meaning, pronunciation, difficulty string) (models.ImportRecord, error) {
	if word == "" {
		return models.ImportRecord{}, fmt.Errorf("empty word")
	}
	rec := models.ImportRecord{
		Word:          word,
		Meaning:       meaning,
		Pronunciation: pronunciation,
		Difficulty:    1,
	}
	if difficulty != "" {
		d, err := strconv.Atoi(difficulty)
		if err != nil {
			return models.ImportRecord{}, fmt.Errorf("invalid difficulty %q", difficulty)
		}
		if d < 1 {
			d = 1
		}
		if d > 5 {
			d = 5
		}
		rec.Difficulty = d
	}
	return rec, nil
}
