package utils_test

import (
	"encoding/json"
	"math"
	"testing"

	"jsoncache/core/utils"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want int
	}{
		{"Int", 3, 3},
		{"Int64", int64(4), 4},
		{"Uint32", uint32(5), 5},
		{"Float64", float64(2), 2},
		{"Float64Truncates", 2.9, 2},
		{"NaN", math.NaN(), -1},
		{"JSONNumber", json.Number("7"), 7},
		{"String", " 8 ", 8},
		{"FloatString", "3.0", 3},
		{"Bytes", []byte("9"), 9},
		{"Nil", nil, -1},
		{"Garbage", "abc", -1},
		{"Bool", true, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.ToInt(tt.val, -1))
		})
	}
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", utils.ToString(nil))
	assert.Equal(t, "abc", utils.ToString("abc"))
	assert.Equal(t, "abc", utils.ToString([]byte("abc")))
	assert.Equal(t, "42", utils.ToString(42))
	assert.Equal(t, "true", utils.ToString(true))
}

func TestToBool(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want bool
	}{
		{"True", true, true},
		{"False", false, false},
		{"One", 1, true},
		{"Zero", 0, false},
		{"FloatOne", float64(1), true},
		{"StringTrue", "TRUE", true},
		{"StringYes", "yes", true},
		{"StringOne", "1", true},
		{"StringNo", "no", false},
		{"Bytes", []byte("on"), true},
		{"Nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.ToBool(tt.val))
		})
	}
}
