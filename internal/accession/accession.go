// Package accession validates SRA run accessions and loads accession lists
// from plain-text, CSV and TSV files.
package accession

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gardiner-lab/seq-downloader/internal/models"
)

// Run accessions carry a fixed three-letter archive prefix followed by
// digits: SRR (NCBI), ERR (EBI), DRR (DDBJ).
var runPattern = regexp.MustCompile(`^(SRR|ERR|DRR)\d+$`)

// GSE series numbers are GSE followed by digits.
var gsePattern = regexp.MustCompile(`^GSE\d+$`)

// Validate checks a single run accession.
func Validate(acc string) error {
	if !runPattern.MatchString(acc) {
		return &models.InputValidationError{
			Input:  acc,
			Reason: "expected SRR, ERR or DRR followed by digits",
		}
	}
	return nil
}

// ValidateGSE checks a GEO series number.
func ValidateGSE(gse string) error {
	if !gsePattern.MatchString(gse) {
		return &models.InputValidationError{
			Input:  gse,
			Reason: "expected GSE followed by digits",
		}
	}
	return nil
}

// Dedupe collapses duplicate accessions, preserving first-seen order.
func Dedupe(accs []string) []string {
	seen := make(map[string]struct{}, len(accs))
	out := make([]string, 0, len(accs))
	for _, a := range accs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// LoadFile reads an accession list from path. The format is chosen by
// extension: .csv and .tsv are parsed as delimited records where only the
// first column is significant; anything else is treated as one accession per
// line. Lines starting with '#' and blank lines are ignored. Duplicates
// collapse to one entry, keeping first-seen order. Any malformed accession
// makes the whole load fail with an InputValidationError.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open accession list: %w", err)
	}
	defer f.Close()

	var comma rune
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		comma = ','
	case ".tsv":
		comma = '\t'
	default:
		comma = 0
	}

	if comma == 0 {
		return parseLines(f)
	}
	return parseDelimited(f, comma)
}

// ParseCommaSeparated splits a user-typed "SRR1, SRR2" style input.
func ParseCommaSeparated(input string) ([]string, error) {
	var accs []string
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if err := Validate(part); err != nil {
			return nil, err
		}
		accs = append(accs, part)
	}
	if len(accs) == 0 {
		return nil, &models.InputValidationError{Input: input, Reason: "no accessions found"}
	}
	return Dedupe(accs), nil
}

func parseLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var accs []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := Validate(line); err != nil {
			return nil, err
		}
		accs = append(accs, line)
	}
	return Dedupe(accs), nil
}

func parseDelimited(r io.Reader, comma rune) ([]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.Comment = '#'
	reader.FieldsPerRecord = -1 // extra columns carry sample metadata we ignore

	var accs []string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse accession list: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		field := strings.TrimSpace(record[0])
		if field == "" {
			continue
		}
		// Tolerate an optional header row naming the first column.
		if first && strings.EqualFold(field, "accession") {
			first = false
			continue
		}
		first = false
		if err := Validate(field); err != nil {
			return nil, err
		}
		accs = append(accs, field)
	}
	return Dedupe(accs), nil
}
