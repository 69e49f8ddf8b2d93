package pricefeed

import (
	"fmt"
	"math"
	"strconv"
)

// FormatUSD renders a price as whole dollars with thousands separators, e.g.
// 95123.45 -> "$95,123". Pure; never fails on finite input.
func FormatUSD(price float64) string {
	neg := price < 0
	digits := strconv.FormatInt(int64(math.Round(math.Abs(price))), 10)

	var grouped []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, d)
	}

	if neg {
		return "-$" + string(grouped)
	}
	return "$" + string(grouped)
}

// FormatChange renders a signed 24h percentage change with two decimals, e.g.
// 2.406 -> "+2.41%", -0.5 -> "-0.50%". Zero carries a plus sign.
func FormatChange(change float64) string {
	if change >= 0 {
		return fmt.Sprintf("+%.2f%%", change)
	}
	return fmt.Sprintf("%.2f%%", change)
}
