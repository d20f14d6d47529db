// Package export renders score entries into downloadable artifacts: a CSV
// file, an XLSX workbook, and a PNG distribution chart.
package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/okian/icaoscore/internal/domain/model"
	"github.com/okian/icaoscore/internal/domain/rubric"
)

// TimestampLayout formats entry times in exported rows.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// MIME types of the exported artifacts.
const (
	MIMECSV  = "text/csv"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPNG  = "image/png"
)

// Header returns the column names shared by every tabular export.
func Header() []string {
	h := make([]string, 0, 4+rubric.CriterionCount)
	h = append(h, "Timestamp", "Candidate ID", "Rater Name")
	h = append(h, rubric.Labels()...)
	return append(h, "Overall")
}

// Row returns the cell values of e in Header order.
func Row(e model.Entry, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	row := make([]string, 0, 4+rubric.CriterionCount)
	row = append(row, e.Time().In(loc).Format(TimestampLayout), e.CandidateID, e.RaterName)
	for _, v := range e.Scores {
		row = append(row, strconv.Itoa(v))
	}
	return append(row, strconv.Itoa(e.Overall()))
}

// CSV renders entries with an unquoted header line and one row per entry
// in which every field is wrapped in double quotes. Field content is not
// escaped. Rows are separated by "\n" with no trailing newline.
func CSV(entries []model.Entry, loc *time.Location) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrNoData
	}
	var b strings.Builder
	b.WriteString(strings.Join(Header(), ","))
	for _, e := range entries {
		b.WriteByte('\n')
		for i, f := range Row(e, loc) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(f)
			b.WriteByte('"')
		}
	}
	return []byte(b.String()), nil
}

// Filename returns "icao_scores_<YYYY-MM-DD>.<ext>" for the UTC date of now.
func Filename(ext string, now time.Time) string {
	return "icao_scores_" + now.UTC().Format(time.DateOnly) + "." + ext
}
