package aggregate

import "github.com/shopspring/decimal"

// round1 保留一位小数（十进制四舍五入，远离零）
func round1(v float64) float64 {
	return roundPlaces(v, 1)
}

// round3 保留三位小数
func round3(v float64) float64 {
	return roundPlaces(v, 3)
}

func roundPlaces(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
