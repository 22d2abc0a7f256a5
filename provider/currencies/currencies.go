package currencies

import "github.com/sig-0/travelrates/storage/types"

var (
	CAD types.Currency = "CAD"
	USD types.Currency = "USD"
	EUR types.Currency = "EUR"
)
