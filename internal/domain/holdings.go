package domain

// dpmsHeaderProductType is the Platform-B row type that represents a
// discretionary-portfolio-management header row rather than a real
// holding, and is filtered out of every Platform-B view.
const dpmsHeaderProductType = "DPMS_HEADER"

// HoldingRow is one row from Platform B's holdings-with-PnL endpoint.
// All monetary math uses the *Lcy (SGD-denominated) fields.
type HoldingRow struct {
	Code            InstrumentCode
	Name            string
	ProductType     string
	CurrentValueLcy float64
	CurrentUnits    float64
}

// IsDPMSHeader reports whether this row should be excluded from
// holdings math.
func (h HoldingRow) IsDPMSHeader() bool {
	return h.ProductType == dpmsHeaderProductType
}

// FilterHoldingRows drops DPMS_HEADER rows, preserving order.
func FilterHoldingRows(rows []HoldingRow) []HoldingRow {
	out := make([]HoldingRow, 0, len(rows))
	for _, row := range rows {
		if row.IsDPMSHeader() {
			continue
		}
		out = append(out, row)
	}
	return out
}
