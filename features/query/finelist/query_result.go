package finelist

import (
	"github.com/shopspring/decimal"

	"github.com/Jehd061990/liber/core"
)

// Fines is the query result. TotalOutstanding sums the Unpaid fines among Fines.
type Fines struct {
	Fines            []core.Fine
	Count            int
	TotalOutstanding decimal.Decimal
}
