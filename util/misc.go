package util

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// JsonHash returns the hex encoded xxhash of the JSON encoding of s
func JsonHash(s interface{}) string {
	bs, _ := json.Marshal(s)
	return strconv.FormatUint(xxhash.Sum64(bs), 16)
}

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func MaxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Clip bounds v to [low, high]
func Clip(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}

// Bucket maps v onto an integer cell of the given width
func Bucket(v, width float64) int {
	if width <= 0 {
		return 0
	}
	return int(math.Floor(v / width))
}

func CopyIntSlice(s []int) []int {
	out := make([]int, len(s))
	copy(out, s)
	return out
}

func CopyFloatSlice(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}

func CopyStringIntMap(m map[string]int) map[string]int {
	out := make(map[string]int)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MovingAverage returns the trailing average of s over the given window.
// Entries before the window fills are averaged over what is available.
func MovingAverage(s []float64, window int) []float64 {
	out := make([]float64, len(s))
	if window <= 0 {
		window = 1
	}
	sum := 0.0
	for i, v := range s {
		sum += v
		if i >= window {
			sum -= s[i-window]
		}
		out[i] = sum / float64(MinInt(i+1, window))
	}
	return out
}
