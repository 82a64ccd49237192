package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"finanzas/internal/core"
)

// SeriesRecord is one CSV line of the monthly history.
type SeriesRecord struct {
	Year                  int    `csv:"año"`
	Month                 int    `csv:"mes"`
	Ingresos              string `csv:"ingresos"`
	GastoNormal           string `csv:"gasto_normal"`
	GastoProvisiones      string `csv:"gasto_provisiones"`
	GastoAhorros          string `csv:"gasto_ahorros"`
	GastoTotal            string `csv:"gasto_total"`
	ProvisionesReservadas string `csv:"provisiones_reservadas"`
	AhorrosDepositados    string `csv:"ahorros_depositados"`
	SaldoReal             string `csv:"saldo_real"`
}

func newSeriesRecord(p core.SeriesPoint) SeriesRecord {
	s := p.Summary
	return SeriesRecord{
		Year:                  p.Period.Year,
		Month:                 p.Period.Month,
		Ingresos:              s.Ingresos.StringFixed(2),
		GastoNormal:           s.GastoNormal.StringFixed(2),
		GastoProvisiones:      s.GastoProvisiones.StringFixed(2),
		GastoAhorros:          s.GastoAhorros.StringFixed(2),
		GastoTotal:            s.GastoTotal.StringFixed(2),
		ProvisionesReservadas: s.ProvisionesReservadas.StringFixed(2),
		AhorrosDepositados:    s.AhorrosDepositados.StringFixed(2),
		SaldoReal:             s.SaldoReal.StringFixed(2),
	}
}

// SeriesCSV writes the time series with a header line, oldest month first.
func SeriesCSV(w io.Writer, points []core.SeriesPoint) error {
	records := make([]SeriesRecord, len(points))
	for i, p := range points {
		records[i] = newSeriesRecord(p)
	}
	cw := csv.NewWriter(w)
	if err := gocsv.MarshalCSV(records, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("write series csv: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
