// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fingerprint

// The ids below are persisted inside every stored fingerprint. Existing ids
// must never change; new tags and dtypes are appended with the next free id.

var opTags = map[string]int{
	"placeholder":                0,
	"elewise_single_abs":         1,
	"elewise_single_exp":         2,
	"elewise_single_log":         3,
	"elewise_single_rec":         4,
	"elewise_single_relu":        5,
	"elewise_single_sqrt":        6,
	"elewise_single_rsqrt":       7,
	"elewise_single_not":         8,
	"elewise_single_cast":        9,
	"elewise_single_round":       10,
	"elewise_single_floor":       11,
	"elewise_single_ceil":        12,
	"elewise_single_trunc":       13,
	"elewise_single_VS_add":      14,
	"elewise_single_VS_mul":      15,
	"elewise_single_VS_max":      16,
	"elewise_single_VS_min":      17,
	"elewise_single_lrelu":       18,
	"elewise_binary_add":         19,
	"elewise_binary_sub":         20,
	"elewise_binary_mul":         21,
	"elewise_binary_div":         22,
	"elewise_binary_max":         23,
	"elewise_binary_min":         24,
	"elewise_binary_and":         25,
	"elewise_binary_or":          26,
	"elewise_binary_cmp":         27,
	"elewise_binary_cmpsel":      28,
	"elewise_binary_vcmpv_gt":    29,
	"elewise_binary_vcmpv_ge":    30,
	"elewise_binary_vcmpv_lt":    31,
	"elewise_binary_vcmpv_le":    32,
	"elewise_binary_vcmpv_eq":    33,
	"elewise_binary_vcmpv_ne":    34,
	"elewise_binary_scalar_axpy": 35,
	"elewise_multiple_mla":       36,
	"elewise_multiple_madd":      37,
	"elewise_multiple_maddrelu":  38,
	"elewise_multiple_sel":       39,
	"broadcast":                  40,
	"broadcast_for_tensor":       41,
	"reduce_sum":                 42,
	"reduce_max":                 43,
	"reduce_min":                 44,
	"reduce_prod":                45,
	"tuple_reduce_sum":           46,
	"cast_to":                    47,
	"set_value":                  48,
}

var dtypes = map[string]int{
	"float16":  0,
	"float32":  1,
	"int8":     2,
	"uint8":    3,
	"int16":    4,
	"uint16":   5,
	"int32":    6,
	"uint32":   7,
	"int64":    8,
	"uint64":   9,
	"bool":     10,
	"bfloat16": 11,
	"float64":  12,
}

// OpID returns the stable id of an operation tag.
func OpID(tag string) (int, bool) {
	id, ok := opTags[tag]
	return id, ok
}

// DTypeID returns the stable id of an element type.
func DTypeID(dtype string) (int, bool) {
	id, ok := dtypes[dtype]
	return id, ok
}
