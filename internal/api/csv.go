package api

import (
	"strconv"
	"strings"

	"vidoptimize/internal/models"
)

const csvDateLayout = "1/2/2006"

var csvHeader = []string{"Date", "Video Title", "Original Title", "Optimized Title", "Status", "Views", "Engagement"}

var csvQuoteEscaper = strings.NewReplacer(`"`, `""`)

// optimizationsCSV renders the export with every field quoted and rows joined
// by a bare newline. Zero optimizations produce the header row alone.
func optimizationsCSV(optimizations []models.Optimization) string {
	var sb strings.Builder
	writeCSVRow(&sb, csvHeader)

	for _, o := range optimizations {
		sb.WriteByte('\n')
		writeCSVRow(&sb, []string{
			o.CreatedAt.UTC().Format(csvDateLayout),
			o.VideoTitle,
			derefString(o.OriginalTitle),
			derefString(o.OptimizedTitle),
			string(o.Status),
			strconv.Itoa(o.Metrics.Views),
			strconv.Itoa(o.Metrics.Engagement),
		})
	}

	return sb.String()
}

func writeCSVRow(sb *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(csvQuoteEscaper.Replace(cell))
		sb.WriteByte('"')
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
