package duplicate

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	rule          = "============================================================"
	printedRows   = 5
	printedPairs  = 3
	printedValues = 3
)

// PrintSummary writes the console summary of a comparison
func PrintSummary(w io.Writer, res *Results) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "DUPLICATE ANALYSIS RESULTS")
	fmt.Fprintf(w, "%s\n", rule)
	fmt.Fprintf(w, "Compared %d rows against %d rows on %v\n", res.File1Rows, res.File2Rows, res.Columns)

	if res.Exact.Count > 0 {
		fmt.Fprintf(w, "\nEXACT MATCHES: %d found\n", res.Exact.Count)
		fmt.Fprintf(w, "   Criteria: %s\n", res.Exact.Description)
		for i, row := range res.Exact.Rows {
			if i >= printedRows {
				break
			}
			fmt.Fprintf(w, "   %d. %s\n", i+1, formatRecord(row, res.Exact.Columns))
		}
	}

	if len(res.Overlap) > 0 {
		fmt.Fprintln(w, "\nCOLUMN-BY-COLUMN DUPLICATES:")
		for _, o := range res.Overlap {
			fmt.Fprintf(w, "   %s: %d duplicates\n", o.Column, o.Count)
			fmt.Fprintf(w, "      Sample values: %s\n", quoteList(head(o.SampleValues, printedValues)))
		}
	}

	if res.Names != nil && res.Names.Count > 0 {
		fmt.Fprintf(w, "\nNAME MATCHES: %d found\n", res.Names.Count)
		for i, m := range res.Names.Matches {
			if i >= printedPairs {
				break
			}
			fmt.Fprintf(w, "   %d. File1: %s | File2: %s\n", i+1,
				formatRecord(m.File1Data, res.Names.Columns),
				formatRecord(m.File2Data, res.Names.Columns))
		}
	}

	if res.Exact.Count == 0 && len(res.Overlap) == 0 && (res.Names == nil || res.Names.Count == 0) {
		fmt.Fprintln(w, "\nNo duplicates found.")
	}
}

// WriteReport writes the detailed text report
func WriteReport(w io.Writer, res *Results) error {
	var b strings.Builder

	b.WriteString("DUPLICATE ANALYSIS RESULTS\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "File 1 rows: %d\n", res.File1Rows)
	fmt.Fprintf(&b, "File 2 rows: %d\n", res.File2Rows)
	fmt.Fprintf(&b, "Columns: %s\n\n", strings.Join(res.Columns, ", "))

	b.WriteString("EXACT_MATCHES:\n")
	fmt.Fprintf(&b, "Count: %d\n", res.Exact.Count)
	fmt.Fprintf(&b, "Description: %s\n", res.Exact.Description)
	for i, row := range res.Exact.Rows {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, formatRecord(row, res.Exact.Columns))
	}
	b.WriteString("\n")

	b.WriteString("COLUMN_DUPLICATES:\n")
	fmt.Fprintf(&b, "Count: %d\n", len(res.Overlap))
	for _, o := range res.Overlap {
		fmt.Fprintf(&b, "  %s: %d duplicates (sample values: %s)\n", o.Column, o.Count, quoteList(o.SampleValues))
	}
	b.WriteString("\n")

	if res.Names != nil {
		b.WriteString("NAME_MATCHES:\n")
		fmt.Fprintf(&b, "Count: %d\n", res.Names.Count)
		fmt.Fprintf(&b, "Description: %s\n", res.Names.Description)
		for i, m := range res.Names.Matches {
			fmt.Fprintf(&b, "  %d. File1 row %d: %s | File2 row %d: %s\n", i+1,
				m.File1Index, formatRecord(m.File1Data, res.Names.Columns),
				m.File2Index, formatRecord(m.File2Data, res.Names.Columns))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// SaveReport writes the text report to filename
func SaveReport(filename string, res *Results) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", filename, err)
	}
	if err := WriteReport(file, res); err != nil {
		file.Close()
		return fmt.Errorf("failed to write report %s: %w", filename, err)
	}
	return file.Close()
}

// PrintEmailSummary writes the console summary of an email comparison,
// listing at most limit matches
func PrintEmailSummary(w io.Writer, res *EmailResults, limit int) {
	fmt.Fprintf(w, "Alumni records: %d\n", res.AlumniRows)
	fmt.Fprintf(w, "Bounced emails: %d\n", res.BouncedRows)
	fmt.Fprintf(w, "\nClean alumni emails: %d\n", res.AlumniClean)
	fmt.Fprintf(w, "Clean bounced emails: %d\n", res.BouncedClean)
	fmt.Fprintf(w, "\nEmail matches found: %d\n", len(res.Matches))

	if len(res.Matches) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSample matches:")
	for i, m := range res.Matches {
		if i >= limit {
			break
		}
		fmt.Fprintf(w, "  %d. %s -> %s %s\n", i+1, m.Email, m.FirstName, m.LastName)
	}
}

// formatRecord renders cells in column order
func formatRecord(rec map[string]string, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, fmt.Sprintf("%s: %q", c, rec[c]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func head(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
