// octonyte-panel is a live SDL2 debug panel for the barrel-threaded
// family members (TetraNyte/OctoNyte): a grid of colored cells shows
// which hardware thread owns which pipeline stage this cycle, and a
// bottom row flashes the most recent register-file write per thread. It
// is the descendant of the teacher's vcs_main.go: the same sdl.Main/
// sdl.Do/fastImage direct-surface-pixel-poke pattern, with the Atari
// 2600's 192-scanline picture replaced by a small occupancy grid redrawn
// once per rendered cycle, plus golang.org/x/image/font/basicfont for
// the stage-name and per-cell PC/thread labels vcs_main.go's own HUD-
// less surface blit never needed.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"io/ioutil"
	"log"
	"net/http"
	_ "net/http/pprof"
	"strings"
	"sync"

	"github.com/kryptonyte/core/cpu"
	"github.com/kryptonyte/core/disassemble"
	"github.com/kryptonyte/core/elfload"
	"github.com/kryptonyte/core/memory"
	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	cartPath  = flag.String("cart", "", "Path to a flat RV32I binary image to load (mutually exclusive with --elf)")
	elfPath   = flag.String("elf", "", "Path to an ELF32 RISC-V conformance-test binary to load")
	family    = flag.String("family", "octo", "Barrel family to display: tetra or octo")
	cellScale = flag.Int("scale", 1, "Scale factor for the panel window")
	redrawEvery = flag.Int("redraw_every", 100000, "Cycles to run between panel redraws, so the window stays responsive instead of blocking on vsync every cycle")
	port      = flag.Int("port", 6061, "Port to run the HTTP server for pprof")
)

const (
	cellW, cellH = 110, 56
	headerH      = 20
)

var threadColor = []color.RGBA{
	{230, 70, 70, 255}, {70, 200, 90, 255}, {70, 130, 230, 255}, {230, 200, 60, 255},
	{200, 80, 220, 255}, {60, 200, 200, 255}, {230, 140, 60, 255}, {160, 160, 160, 255},
}

// barrel adapts whichever family member *family names to the one shape
// the panel needs to draw: tick the core, and read which thread sits in
// which stage. Regs/CSR/thread-PC access goes through the field/method
// each family member already exports; there's no need for a cpu-package
// interface just for this debug tool.
type barrel struct {
	tick, tickDone func()
	pc             func(thread int) uint32
	stageThreads   func() []int
	stageValids    func() []bool
	snapshot       func(thread uint8) [32]uint32
	numThreads     int
	stageNames     []string
}

func main() {
	flag.Parse()

	go func() {
		log.Println(http.ListenAndServe(fmt.Sprintf("localhost:%d", *port), nil))
	}()

	if (*cartPath == "") == (*elfPath == "") {
		log.Fatalf("exactly one of -cart or -elf must be given")
	}

	imem, err := memory.NewRAM(memory.Base, int(memory.Size), nil)
	if err != nil {
		log.Fatalf("can't allocate RAM: %v", err)
	}
	imem.PowerOn()
	if *elfPath != "" {
		img, err := elfload.Load(*elfPath)
		if err != nil {
			log.Fatalf("can't load ELF %s: %v", *elfPath, err)
		}
		elfload.LoadInto(img, imem)
	} else {
		b, err := ioutil.ReadFile(*cartPath)
		if err != nil {
			log.Fatalf("can't open %s: %v", *cartPath, err)
		}
		for i, byt := range b {
			imem.WriteByte(memory.Base+uint32(i), byt)
		}
	}

	var b barrel
	switch strings.ToLower(*family) {
	case "tetra":
		t := cpu.NewTetraNyte(imem, imem)
		b = barrel{
			tick: t.Tick, tickDone: t.TickDone, pc: t.ThreadPC,
			stageThreads: t.Sched.StageThreads, stageValids: t.Sched.StageValids,
			snapshot: t.Regs.Snapshot, numThreads: 4,
			stageNames: []string{"F", "D+RR", "E+M", "WB"},
		}
	case "octo":
		o := cpu.NewOctoNyte(imem, imem)
		b = barrel{
			tick: o.Tick, tickDone: o.TickDone, pc: o.ThreadPC,
			stageThreads: o.Sched.StageThreads, stageValids: o.Sched.StageValids,
			snapshot: o.Regs.Snapshot, numThreads: 8,
			stageNames: []string{"F", "D", "DS", "RR", "E1", "E2", "E3", "WB"},
		}
	default:
		log.Fatalf("unknown -family %q: want tetra or octo", *family)
	}

	run(b, imem)
}

type fastImage struct {
	surface *sdl.Surface
	data    []byte
}

func (f *fastImage) Set(x, y int, c color.Color) {
	i := int32(y)*f.surface.Pitch + int32(x)*int32(f.surface.Format.BytesPerPixel)
	rgba, ok := c.(color.RGBA)
	if !ok {
		rgba = color.RGBAModel.Convert(c).(color.RGBA)
	}
	f.data[i+0], f.data[i+1], f.data[i+2], f.data[i+3] = rgba.R, rgba.G, rgba.B, rgba.A
}

func (f *fastImage) ColorModel() color.Model { return f.surface.ColorModel() }
func (f *fastImage) Bounds() image.Rectangle { return f.surface.Bounds() }
func (f *fastImage) At(x, y int) color.Color { return f.surface.At(x, y) }

func run(b barrel, imem memory.Bank) {
	numStages := len(b.stageNames)
	w := cellW * numStages * *cellScale
	h := (headerH + cellH + cellH) * *cellScale

	sdl.Main(func() {
		var window *sdl.Window
		fi := &fastImage{}
		var wg sync.WaitGroup
		wg.Add(1)
		sdl.Do(func() {
			if err := sdl.Init(sdl.INIT_EVERYTHING); err != nil {
				log.Fatalf("can't init SDL: %v", err)
			}
			var err error
			window, err = sdl.CreateWindow("octonyte-panel", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(w), int32(h), sdl.WINDOW_SHOWN)
			if err != nil {
				log.Fatalf("can't create window: %v", err)
			}
			fi.surface, err = window.GetSurface()
			if err != nil {
				log.Fatalf("can't get window surface: %v", err)
			}
			fi.data = fi.surface.Pixels()
			wg.Done()
		})
		wg.Wait()
		defer func() {
			window.Destroy()
			sdl.Quit()
		}()

		prev := make([][32]uint32, b.numThreads)
		last := make([]string, b.numThreads) // most recent "xN=val" write, per thread
		quit := false
		for cycle := 0; !quit; cycle++ {
			b.tick()
			b.tickDone()

			for t := 0; t < b.numThreads; t++ {
				snap := b.snapshot(uint8(t))
				for r := 1; r < 32; r++ {
					if snap[r] != prev[t][r] {
						last[t] = fmt.Sprintf("x%d=%#x", r, snap[r])
					}
				}
				prev[t] = snap
			}

			if cycle%*redrawEvery != 0 {
				continue
			}
			sdl.Do(func() {
				draw(fi, b, last, *cellScale, imem)
				window.UpdateSurface()
				for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
					if _, ok := e.(*sdl.QuitEvent); ok {
						quit = true
					}
				}
			})
		}
	})
}

func draw(fi *fastImage, b barrel, last []string, scale int, imem memory.Bank) {
	bounds := fi.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			fi.Set(x, y, color.RGBA{20, 20, 20, 255})
		}
	}

	stageThreads := b.stageThreads()
	stageValids := b.stageValids()
	drawer := &font.Drawer{Dst: fi, Src: image.NewUniform(color.White), Face: basicfont.Face7x13}

	for s, name := range b.stageNames {
		x := s * cellW * scale
		label(drawer, x+4, headerH-4, name)

		th := stageThreads[s]
		cellColor := color.RGBA{50, 50, 50, 255}
		if stageValids[s] {
			cellColor = threadColor[th%len(threadColor)]
		}
		fillRect(fi, x, headerH, cellW*scale, cellH*scale, cellColor)

		if stageValids[s] {
			pc := b.pc(th)
			dis, _ := disassemble.Step(pc, imem)
			drawer.Src = image.NewUniform(color.Black)
			label(drawer, x+4, headerH+16, fmt.Sprintf("t%d pc=%#06x", th, pc))
			label(drawer, x+4, headerH+32, shorten(dis, 14))
		}
	}

	for t := 0; t < b.numThreads; t++ {
		x := (t % len(b.stageNames)) * cellW * scale
		y := headerH + cellH*scale + (t/len(b.stageNames))*16
		drawer.Src = image.NewUniform(threadColor[t%len(threadColor)])
		label(drawer, x+4, y+16, fmt.Sprintf("t%d %s", t, last[t]))
	}
}

func shorten(s string, n int) string {
	// Drop the "ADDR  HEXWORD  " prefix Step emits; the panel already
	// shows pc separately and has no room for the full line.
	if parts := strings.SplitN(s, "  ", 3); len(parts) == 3 {
		s = parts[2]
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}

func label(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

func fillRect(fi *fastImage, x, y, w, h int, c color.Color) {
	b := fi.Bounds()
	for yy := y; yy < y+h && yy < b.Max.Y; yy++ {
		for xx := x; xx < x+w && xx < b.Max.X; xx++ {
			fi.Set(xx, yy, c)
		}
	}
}
