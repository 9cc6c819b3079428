// hand_asm reads a line-oriented RV32I assembly source, one instruction
// or label per line, and writes the encoded instruction stream as a flat
// binary image — the descendant of the teacher's hand_asm tool,
// retargeted from raw hex-byte lines to real mnemonics built on the asm
// package.
//
// Source format, one per line:
//
//	label:
//	ADDI x1, x0, 5
//	BEQ x1, x2, label   # comment
//
// Blank lines and lines starting with '#' are ignored. Registers are
// x0-x31; immediates are decimal or 0x-prefixed hex. Branch/JAL targets
// may name a label instead of a literal immediate; hand_asm resolves it
// to a pc-relative byte offset in a second pass.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/kryptonyte/core/asm"
)

var offset = flag.Int("offset", 0, "Byte offset to start writing assembled instructions. Everything prior is zero filled.")

type line struct {
	addr     uint32
	mnemonic string
	operands []string
}

func main() {
	flag.Parse()
	if len(flag.Args()) != 2 {
		log.Fatalf("Invalid command: %s <input> <output>", os.Args[0])
	}
	in, out := flag.Args()[0], flag.Args()[1]

	f, err := os.Open(in)
	if err != nil {
		log.Fatalf("Can't open %q for input - %v", in, err)
	}
	lines, labels, err := parse(f)
	f.Close()
	if err != nil {
		log.Fatalf("%v", err)
	}

	buf := make([]byte, *offset)
	for _, l := range lines {
		word, err := encode(l, labels)
		if err != nil {
			log.Fatalf("line %#x: %v", l.addr, err)
		}
		buf = append(buf, byte(word), byte(word>>8), byte(word>>16), byte(word>>24))
	}

	of, err := os.Create(out)
	if err != nil {
		log.Fatalf("Can't open output %q - %v", out, err)
	}
	n, err := of.Write(buf)
	if cerr := of.Close(); err == nil {
		err = cerr
	}
	if err != nil || n != len(buf) {
		log.Fatalf("short/failed write to %q: wrote %d of %d bytes, err=%v", out, n, len(buf), err)
	}
}

// parse reads src, returning the instruction lines in program order and a
// label -> byte-address table. Addresses start at *offset and advance by
// 4 for every instruction line; a label resolves to the address of the
// instruction immediately following it.
func parse(src *os.File) ([]line, map[string]uint32, error) {
	var lines []line
	labels := map[string]uint32{}
	addr := uint32(*offset)

	scanner := bufio.NewScanner(src)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.HasSuffix(text, ":") {
			label := strings.TrimSuffix(text, ":")
			if _, dup := labels[label]; dup {
				return nil, nil, fmt.Errorf("line %d: duplicate label %q", lineNo, label)
			}
			labels[label] = addr
			continue
		}

		fields := strings.SplitN(text, " ", 2)
		mnemonic := strings.ToUpper(strings.TrimSpace(fields[0]))
		var operands []string
		if len(fields) == 2 {
			for _, op := range strings.Split(fields[1], ",") {
				if op = strings.TrimSpace(op); op != "" {
					operands = append(operands, op)
				}
			}
		}
		lines = append(lines, line{addr: addr, mnemonic: mnemonic, operands: operands})
		addr += 4
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return lines, labels, nil
}

// branchTarget resolves an operand naming either a label or a literal
// pc-relative byte offset into the immediate encode*() branch/JAL
// helpers expect: the signed byte distance from this instruction's own
// address.
func branchTarget(op string, pc uint32, labels map[string]uint32) (int32, error) {
	if addr, ok := labels[op]; ok {
		return int32(addr - pc), nil
	}
	return imm(op)
}

func encode(l line, labels map[string]uint32) (uint32, error) {
	op := l.operands
	need := func(n int) error {
		if len(op) != n {
			return fmt.Errorf("%s: want %d operand(s), got %d", l.mnemonic, n, len(op))
		}
		return nil
	}
	reg3 := func() (rd, rs1, rs2 uint32, err error) {
		if err = need(3); err != nil {
			return
		}
		if rd, err = reg(op[0]); err != nil {
			return
		}
		if rs1, err = reg(op[1]); err != nil {
			return
		}
		rs2, err = reg(op[2])
		return
	}
	regImm := func() (rd, rs1 uint32, i int32, err error) {
		if err = need(3); err != nil {
			return
		}
		if rd, err = reg(op[0]); err != nil {
			return
		}
		if rs1, err = reg(op[1]); err != nil {
			return
		}
		i, err = imm(op[2])
		return
	}

	switch l.mnemonic {
	case "ADD", "SUB", "SLL", "SLT", "SLTU", "XOR", "SRL", "SRA", "OR", "AND",
		"MUL", "MULH", "MULHSU", "MULHU", "DIV", "DIVU", "REM", "REMU":
		rd, rs1, rs2, err := reg3()
		if err != nil {
			return 0, err
		}
		fn := map[string]func(uint32, uint32, uint32) uint32{
			"ADD": asm.ADD, "SUB": asm.SUB, "SLL": asm.SLL, "SLT": asm.SLT, "SLTU": asm.SLTU,
			"XOR": asm.XOR, "SRL": asm.SRL, "SRA": asm.SRA, "OR": asm.OR, "AND": asm.AND,
			"MUL": asm.MUL, "MULH": asm.MULH, "MULHSU": asm.MULHSU, "MULHU": asm.MULHU,
			"DIV": asm.DIV, "DIVU": asm.DIVU, "REM": asm.REM, "REMU": asm.REMU,
		}[l.mnemonic]
		return fn(rd, rs1, rs2), nil

	case "ADDI", "SLTI", "SLTIU", "XORI", "ORI", "ANDI":
		rd, rs1, i, err := regImm()
		if err != nil {
			return 0, err
		}
		fn := map[string]func(uint32, uint32, int32) uint32{
			"ADDI": asm.ADDI, "SLTI": asm.SLTI, "SLTIU": asm.SLTIU,
			"XORI": asm.XORI, "ORI": asm.ORI, "ANDI": asm.ANDI,
		}[l.mnemonic]
		return fn(rd, rs1, i), nil

	case "SLLI", "SRLI", "SRAI":
		rd, rs1, shamt, err := regImm()
		if err != nil {
			return 0, err
		}
		switch l.mnemonic {
		case "SLLI":
			return asm.SLLI(rd, rs1, uint32(shamt)), nil
		case "SRLI":
			return asm.SRLI(rd, rs1, uint32(shamt)), nil
		default:
			return asm.SRAI(rd, rs1, uint32(shamt)), nil
		}

	case "LB", "LH", "LW", "LBU", "LHU":
		rd, rs1, i, err := regImm()
		if err != nil {
			return 0, err
		}
		fn := map[string]func(uint32, uint32, int32) uint32{
			"LB": asm.LB, "LH": asm.LH, "LW": asm.LW, "LBU": asm.LBU, "LHU": asm.LHU,
		}[l.mnemonic]
		return fn(rd, rs1, i), nil

	case "SB", "SH", "SW":
		if err := need(3); err != nil {
			return 0, err
		}
		rs1, err := reg(op[0])
		if err != nil {
			return 0, err
		}
		rs2, err := reg(op[1])
		if err != nil {
			return 0, err
		}
		i, err := imm(op[2])
		if err != nil {
			return 0, err
		}
		fn := map[string]func(uint32, uint32, int32) uint32{"SB": asm.SB, "SH": asm.SH, "SW": asm.SW}[l.mnemonic]
		return fn(rs1, rs2, i), nil

	case "BEQ", "BNE", "BLT", "BGE", "BLTU", "BGEU":
		if err := need(3); err != nil {
			return 0, err
		}
		rs1, err := reg(op[0])
		if err != nil {
			return 0, err
		}
		rs2, err := reg(op[1])
		if err != nil {
			return 0, err
		}
		target, err := branchTarget(op[2], l.addr, labels)
		if err != nil {
			return 0, err
		}
		fn := map[string]func(uint32, uint32, int32) uint32{
			"BEQ": asm.BEQ, "BNE": asm.BNE, "BLT": asm.BLT, "BGE": asm.BGE, "BLTU": asm.BLTU, "BGEU": asm.BGEU,
		}[l.mnemonic]
		return fn(rs1, rs2, target), nil

	case "JAL":
		if err := need(2); err != nil {
			return 0, err
		}
		rd, err := reg(op[0])
		if err != nil {
			return 0, err
		}
		target, err := branchTarget(op[1], l.addr, labels)
		if err != nil {
			return 0, err
		}
		return asm.JAL(rd, target), nil

	case "JALR":
		rd, rs1, i, err := regImm()
		if err != nil {
			return 0, err
		}
		return asm.JALR(rd, rs1, i), nil

	case "LUI", "AUIPC":
		if err := need(2); err != nil {
			return 0, err
		}
		rd, err := reg(op[0])
		if err != nil {
			return 0, err
		}
		i, err := imm(op[1])
		if err != nil {
			return 0, err
		}
		if l.mnemonic == "LUI" {
			return asm.LUI(rd, i), nil
		}
		return asm.AUIPC(rd, i), nil

	case "FENCE":
		return asm.FENCE(), nil
	case "FENCE.I":
		return asm.FENCEI(), nil
	case "ECALL":
		return asm.ECALL(), nil
	case "EBREAK":
		return asm.EBREAK(), nil
	case "NOP":
		return asm.NOP(), nil

	case "CSRRW", "CSRRS", "CSRRC":
		if err := need(3); err != nil {
			return 0, err
		}
		rd, err := reg(op[0])
		if err != nil {
			return 0, err
		}
		csr, err := imm(op[1])
		if err != nil {
			return 0, err
		}
		rs1, err := reg(op[2])
		if err != nil {
			return 0, err
		}
		fn := map[string]func(uint32, uint32, uint32) uint32{"CSRRW": asm.CSRRW, "CSRRS": asm.CSRRS, "CSRRC": asm.CSRRC}[l.mnemonic]
		return fn(rd, uint32(csr), rs1), nil

	case "CSRRWI", "CSRRSI", "CSRRCI":
		if err := need(3); err != nil {
			return 0, err
		}
		rd, err := reg(op[0])
		if err != nil {
			return 0, err
		}
		csr, err := imm(op[1])
		if err != nil {
			return 0, err
		}
		zimm, err := imm(op[2])
		if err != nil {
			return 0, err
		}
		fn := map[string]func(uint32, uint32, uint32) uint32{"CSRRWI": asm.CSRRWI, "CSRRSI": asm.CSRRSI, "CSRRCI": asm.CSRRCI}[l.mnemonic]
		return fn(rd, uint32(csr), uint32(zimm)), nil
	}

	return 0, fmt.Errorf("unknown mnemonic %q", l.mnemonic)
}

func reg(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "x") && !strings.HasPrefix(s, "X") {
		return 0, fmt.Errorf("not a register: %q", s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 || n > 31 {
		return 0, fmt.Errorf("invalid register: %q", s)
	}
	return uint32(n), nil
}

func imm(s string) (int32, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate: %q", s)
	}
	return int32(v), nil
}
