package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"crime-etl/models"
)

// printer formats counts with thousands separators.
var printer = message.NewPrinter(language.English)

func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// TopAreas sums the area-month aggregate per area and returns the n busiest
// areas, ties broken by name.
func TopAreas(rows []models.AreaMonthAgg, n int) []models.AreaTotal {
	totals := make(map[string]int64)
	for _, r := range rows {
		totals[r.AreaName] += r.TotalCrimes
	}

	areas := make([]models.AreaTotal, 0, len(totals))
	for area, crimes := range totals {
		areas = append(areas, models.AreaTotal{Area: area, Crimes: crimes})
	}
	sort.Slice(areas, func(i, j int) bool {
		if areas[i].Crimes != areas[j].Crimes {
			return areas[i].Crimes > areas[j].Crimes
		}
		return areas[i].Area < areas[j].Area
	})
	if len(areas) > n {
		areas = areas[:n]
	}
	return areas
}

// PrintReport writes the end-of-run summary to w.
func PrintReport(w io.Writer, r *models.RunReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)
	p := printer

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  CRIME ETL SUMMARY (%s)\033[0m\n", r.Stage)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Run\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Run id   : %s\n", r.RunID)
	fmt.Fprintf(w, "  Duration : %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintln(w)

	if r.RawRows > 0 {
		fmt.Fprintf(w, "\033[1;33m  Raw → Silver\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		p.Fprintf(w, "  Raw rows          : \033[1m%d\033[0m\n", r.RawRows)
		for _, s := range r.Clean.Steps {
			p.Fprintf(w, "    %-22s %10d  (-%d)\n", s.Name, s.Remaining, s.Dropped)
		}
		p.Fprintf(w, "  Date parse drops  : %d\n", r.DateParseDropped)
		p.Fprintf(w, "  Silver rows       : \033[1;32m%d\033[0m\n", r.SilverRows)
		p.Fprintf(w, "  Reduction         : %.2f%%\n", r.Reduction())
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Validation Warnings\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for _, msg := range r.Warnings {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
		fmt.Fprintln(w)
	}

	if len(r.Tables) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Tables Loaded\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for _, t := range r.Tables {
			p.Fprintf(w, "  %-26s \033[1m%12d\033[0m rows\n", t.Table, t.Rows)
			if t.BackupPath != "" {
				fmt.Fprintf(w, "    backup: %s\n", t.BackupPath)
			}
		}
		fmt.Fprintln(w)
	}

	if len(r.TopAreas) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Top Areas by Crimes\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		top := r.TopAreas[0].Crimes
		for _, a := range r.TopAreas {
			p.Fprintf(w, "  %-18s %-30s %d\n", truncate(a.Area, 18), bar(a.Crimes, top, 30), a.Crimes)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// bar scales n against max into at most width blocks.
func bar(n, max int64, width int) string {
	if max <= 0 || n <= 0 {
		return ""
	}
	blocks := int(n * int64(width) / max)
	if blocks == 0 {
		blocks = 1
	}
	return strings.Repeat("█", blocks)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
