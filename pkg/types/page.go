package types

import "fmt"

// Page is one of the downstream dashboard pages that consume an ingestion.
type Page string

const (
	PageNone               Page = ""
	PagePowerForecasting   Page = "Power Forecasting"
	PageTheftDetection     Page = "Electricity Theft Detection"
	PageEnergyOptimization Page = "Energy Optimization"
)

// Pages lists the pages a session can navigate to, in the order they are
// offered to the user.
var Pages = []Page{
	PagePowerForecasting,
	PageTheftDetection,
	PageEnergyOptimization,
}

// ParsePage validates s against the known pages.
func ParsePage(s string) (Page, error) {
	for _, p := range Pages {
		if string(p) == s {
			return p, nil
		}
	}
	return PageNone, fmt.Errorf("unknown page: %q", s)
}
