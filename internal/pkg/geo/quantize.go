package geo

import (
	"math"
	"strconv"

	"github.com/urban-context/internal/domain"
)

// Quantize округляет значение до decimals знаков к ближайшему (не отбрасывает).
// Близкие точки с одинаковым результатом считаются одним местом для кеша.
func Quantize(x float64, decimals int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	// округление по точному двоичному значению, без артефактов x*10^n
	s := strconv.FormatFloat(x, 'f', decimals, 64)
	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		pow := math.Pow(10, float64(decimals))
		return math.Round(x*pow) / pow
	}
	return q
}

// NewBucketKey - ключ партиции кеша для точки
func NewBucketKey(lat, lon float64, decimals int) domain.BucketKey {
	return domain.BucketKey{
		LatRound: Quantize(lat, decimals),
		LonRound: Quantize(lon, decimals),
	}
}
