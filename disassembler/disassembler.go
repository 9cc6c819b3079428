// disassembler loads a flat RV32I binary image (or an ELF32 RISC-V
// conformance-test binary, detected by a .elf suffix) and disassembles it
// to stdout starting at the entry PC. It is the descendant of the
// teacher's 6502 disassembler driver, stripped of the C64/PRG/BASIC-
// listing logic that doesn't apply here: the only "loader" variants left
// are a flat binary and an ELF, and there's no compressed-instruction
// form to make the byte-count bookkeeping interesting.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/kryptonyte/core/disassemble"
	"github.com/kryptonyte/core/elfload"
	"github.com/kryptonyte/core/memory"
)

var (
	startPC = flag.Uint64("start_pc", uint64(memory.Base), "PC value to start disassembling. Ignored for ELF input: the entry point from the ELF header is used instead.")
	offset  = flag.Uint64("offset", 0, "Byte offset from memory.Base to start loading a flat binary. Ignored for ELF input.")
)

func main() {
	flag.Parse()
	if len(flag.Args()) != 1 {
		log.Fatalf("Invalid command: %s [-start_pc <PC> -offset <offset>] <filename>", os.Args[0])
	}
	fn := flag.Args()[0]

	bank, err := memory.NewRAM(memory.Base, int(memory.Size), nil)
	if err != nil {
		log.Fatalf("Can't initialize RAM: %v", err)
	}
	bank.PowerOn()

	pc := uint32(*startPC)
	var length int
	if strings.HasSuffix(strings.ToLower(fn), ".elf") {
		img, err := elfload.Load(fn)
		if err != nil {
			log.Fatalf("Can't load ELF %s - %v", fn, err)
		}
		elfload.LoadInto(img, bank)
		pc = img.EntryPC
		length = len(img.Bytes)
	} else {
		b, err := ioutil.ReadFile(fn)
		if err != nil {
			log.Fatalf("Can't open %s - %v", fn, err)
		}
		base := memory.Base + uint32(*offset)
		for i, byt := range b {
			bank.WriteByte(base+uint32(i), byt)
		}
		length = len(b)
	}

	log.Printf("%#x bytes loaded, starting disassembly at pc=%#08x", length, pc)
	end := pc + uint32(length)
	for pc < end {
		var line string
		line, pc = disassemble.Step(pc, bank)
		fmt.Println(line)
	}
}
