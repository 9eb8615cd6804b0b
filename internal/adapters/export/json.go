package export

import (
	"encoding/json"
	"io"

	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
)

// ScanReport is the JSON document printed for a scan run.
type ScanReport struct {
	Interface string                `json:"interface"`
	Networks  []domain.Network      `json:"networks,omitempty"`
	PMKIDs    []domain.PMKIDCapture `json:"pmkids,omitempty"`
	Vendors   map[string]string     `json:"vendors,omitempty"`
}

// ExportJSON writes the report as indented JSON
func ExportJSON(w io.Writer, report ScanReport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
