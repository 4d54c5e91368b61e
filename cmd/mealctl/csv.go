package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var cleanWhitespace = regexp.MustCompile(`\s+`)

// readCSV returns every data row keyed by its lower-cased header.
func readCSV(path string) ([]map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("csv path must not be empty")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := make([]string, len(rows[0]))
	for i, key := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(key))
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[key] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}
	return records, nil
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func normalizeText(value string) string {
	value = normalizeValue(value)
	if value == "" {
		return value
	}
	return strings.TrimSpace(cleanWhitespace.ReplaceAllString(value, " "))
}

// parseNumber reads an optional non-negative number from column key.
func parseNumber(record map[string]string, key string) (float64, error) {
	value := normalizeValue(record[key])
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, value)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return parsed, nil
}

func parseFlag(record map[string]string, key string) (bool, error) {
	value := normalizeValue(record[key])
	if value == "" {
		return false, nil
	}
	switch strings.ToLower(value) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", key, value)
	}
	return parsed, nil
}

func parseID(record map[string]string, key string) (uint, error) {
	value := normalizeValue(record[key])
	if value == "" {
		return 0, fmt.Errorf("%s: required", key)
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("%s: %q is not a valid id", key, value)
	}
	return uint(parsed), nil
}
