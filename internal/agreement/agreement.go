// Package agreement renders lease agreements as PDF documents addressable by lease id.
package agreement

import (
	"context"       // Cancellation
	"errors"        // Sentinel errors
	"fmt"           // File naming
	"os"            // File checks
	"path/filepath" // Disk paths

	"rental_system/internal/domain" // Importing domain models

	"github.com/google/uuid"      // Lease identifiers
	"github.com/jung-kurt/gofpdf" // PDF rendering
)

// ErrIncompleteLease is returned when tenant or property were not preloaded
var ErrIncompleteLease = errors.New("lease must be loaded with tenant and property")

// Renderer writes one PDF per lease into Dir
type Renderer struct {
	Dir string // Output directory
}

// NewRenderer creates the output directory
func NewRenderer(dir string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Renderer{Dir: dir}, nil
}

// FileName is the stable document name for a lease
func FileName(leaseID uuid.UUID) string {
	return fmt.Sprintf("lease-agreement-%s.pdf", leaseID)
}

// Render writes the agreement for lease and returns its path on disk
func (r *Renderer) Render(ctx context.Context, lease *domain.Lease) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if lease.Tenant == nil || lease.Property == nil {
		return "", ErrIncompleteLease
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252 for the pound sign
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 14, "Lease Agreement", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	rows := [][2]string{
		{"Tenant", lease.Tenant.Name},
		{"Email", lease.Tenant.Email},
		{"Property", lease.Property.Title},
		{"Address", lease.Property.Address},
		{"Start Date", lease.StartDate.Format("02 Jan 2006")},
		{"End Date", lease.EndDate.Format("02 Jan 2006")},
		{"Rent Amount", "£" + lease.RentAmount.StringFixed(2)},
		{"Status", string(lease.Status)},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(45, 9, row[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 9, tr(row[1]), "", 1, "L", false, 0, "")
	}

	out := filepath.Join(r.Dir, FileName(lease.ID))
	if err := pdf.OutputFileAndClose(out); err != nil {
		return "", err
	}
	return out, nil
}

// Locate returns the path of a previously rendered agreement
func (r *Renderer) Locate(leaseID uuid.UUID) (string, bool) {
	out := filepath.Join(r.Dir, FileName(leaseID))
	if _, err := os.Stat(out); err != nil {
		return "", false
	}
	return out, true
}
