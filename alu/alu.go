// Package alu implements ALU32, the pure combinational 32-bit
// arithmetic/logic/shift/compare unit shared by every KryptoNyte family
// member's execute stage.
package alu

import "github.com/kryptonyte/core/decode"

// Exec evaluates one ALU operation over a, b and returns the 32-bit
// result. Overflow wraps modulo 2^32; SRA preserves sign; shift amounts
// are always taken from b[4:0].
func Exec(op decode.AluOp, a, b uint32) uint32 {
	switch op {
	case decode.OpADD:
		return a + b
	case decode.OpSUB:
		return a - b
	case decode.OpAND:
		return a & b
	case decode.OpOR:
		return a | b
	case decode.OpXOR:
		return a ^ b
	case decode.OpSLL:
		return a << (b & 0x1F)
	case decode.OpSRL:
		return a >> (b & 0x1F)
	case decode.OpSRA:
		return uint32(int32(a) >> (b & 0x1F))
	case decode.OpSLT:
		if int32(a) < int32(b) {
			return 1
		}
		return 0
	case decode.OpSLTU:
		if a < b {
			return 1
		}
		return 0
	}
	// Unreachable: AluOp is constructed exclusively by decode.Decode.
	panic("alu: unknown op")
}
