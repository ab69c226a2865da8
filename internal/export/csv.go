package export

import (
	"encoding/csv"
	"io"

	"github.com/Harshitk-cp/balancereports/internal/domain"
)

type csvRenderer struct{}

func (csvRenderer) ContentType() string { return "text/csv" }
func (csvRenderer) Extension() string   { return "csv" }

func (csvRenderer) Render(w io.Writer, r *domain.GeneratedReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"section", "line", "amount"}); err != nil {
		return err
	}
	for _, l := range Lines(r) {
		if err := cw.Write([]string{l.Section, l.Line, l.Amount.StringFixed(2)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
