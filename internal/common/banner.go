package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner to stderr.
func PrintBanner(config *Config) {
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)

	lineColor := banner.ColorGreen
	textColor := banner.ColorBold + banner.ColorWhite
	width := 64
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	art := []string{
		`  .d8888b.                   888            d8b`,
		` d88P  Y88b                  888            Y8P`,
		` 888    888  8888b.  888d888 888888 .d88b.  888 888d888 8888b.`,
		` 888            "88b 888P"   888   d8P  Y8b 888 888P"       "88b`,
		` 888    888 .d888888 888     888   88888888 888 888     .d888888`,
		` Y88b  d88P 888  888 888     Y88b. Y8b.     888 888     888  888`,
		`  "Y8888P"  "Y888888 888      "Y888 "Y8888  888 888     "Y888888`,
	}

	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)
	for _, line := range art {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n%s  Personal Portfolio Valuation & Reconciliation%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)

	kvLines := [][2]string{
		{"Version", GetFullVersion()},
		{"Environment", config.Environment},
		{"Service", serviceURL},
		{"Storage", config.Storage.Driver},
		{"Currency", config.DisplayCurrency},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", kv[0], kv[1])
	}
	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)
}
