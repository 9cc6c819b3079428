// Package icache implements ICache: a direct-mapped, block-granular
// instruction cache with a miss -> refill -> replay FSM, driven by the
// same Tick/TickDone two-phase commit style used throughout the core
// family.
package icache

import "math/bits"

// State is the ICache controller's FSM position (spec §4.9).
type State int

const (
	Idle State = iota
	Compare
	Refill
	WaitResp
	Replay
)

// MemRequest is the outgoing request to external memory when a miss
// needs a refill.
type MemRequest struct {
	Valid bool
	Addr  uint32 // aligned block address
}

// Response is CPU-side: the fetched word and whether it is valid this
// cycle.
type Response struct {
	Valid bool
	Data  uint32
}

// Config parameterizes capacity, block size, and address width.
type Config struct {
	CapacityBytes int
	BlockBytes    int
	AddrBits      int
}

type line struct {
	valid bool
	tag   uint32
	block []byte
}

// ICache is a direct-mapped cache (one line per index — "set-associative
// (direct-mapped here)" per spec §2).
type ICache struct {
	cfg        Config
	indexBits  uint
	offsetBits uint
	tagBits    uint
	numLines   int
	lines      []line

	state State
	reqAddr, reqAddrReg uint32
	reqValid            bool

	memReq MemRequest

	// shadow fields for the two-phase commit.
	nextState    State
	nextReqAddrR uint32
	nextLines    []line
	nextMemReq   MemRequest

	pendingRefillLine int
	refillData        []byte
}

// New allocates an ICache per cfg. CapacityBytes and BlockBytes must be
// powers of two with CapacityBytes a multiple of BlockBytes.
func New(cfg Config) *ICache {
	numLines := cfg.CapacityBytes / cfg.BlockBytes
	offsetBits := uint(bits.Len(uint(cfg.BlockBytes - 1)))
	indexBits := uint(bits.Len(uint(numLines - 1)))
	tagBits := uint(cfg.AddrBits) - indexBits - offsetBits

	c := &ICache{
		cfg:        cfg,
		indexBits:  indexBits,
		offsetBits: offsetBits,
		tagBits:    tagBits,
		numLines:   numLines,
		lines:      make([]line, numLines),
	}
	for i := range c.lines {
		c.lines[i].block = make([]byte, cfg.BlockBytes)
	}
	return c
}

func (c *ICache) index(addr uint32) int {
	return int((addr >> c.offsetBits) & ((1 << c.indexBits) - 1))
}

func (c *ICache) tag(addr uint32) uint32 {
	return addr >> (c.indexBits + c.offsetBits)
}

func (c *ICache) blockAddr(addr uint32) uint32 {
	return addr &^ uint32(c.cfg.BlockBytes-1)
}

// Request presents a new fetch request. Only meaningful while the
// controller is Idle or has just returned to Compare; callers should
// check MemRequestOut()/Response() each cycle to know when it is safe to
// issue a new request (i.e. after the previous one resolved to a Hit).
func (c *ICache) Request(addr uint32) {
	c.reqAddr = addr
	c.reqValid = true
}

// Tick computes next-state into shadow fields from the current state and
// any pending request/response.
func (c *ICache) Tick(resp MemResponse) {
	c.nextLines = c.lines
	c.nextMemReq = MemRequest{}

	switch c.state {
	case Idle:
		if c.reqValid {
			c.nextReqAddrR = c.reqAddr
			c.nextState = Compare
		} else {
			c.nextState = Idle
		}
	case Compare:
		idx := c.index(c.reqAddrReg)
		ln := c.lines[idx]
		if ln.valid && ln.tag == c.tag(c.reqAddrReg) {
			// Hit: stay in Compare, ready for the next request.
			c.nextState = Idle
			if c.reqValid {
				c.nextReqAddrR = c.reqAddr
				c.nextState = Compare
			}
		} else {
			c.nextState = Refill
			c.nextMemReq = MemRequest{Valid: true, Addr: c.blockAddr(c.reqAddrReg)}
		}
	case Refill:
		c.nextState = WaitResp
	case WaitResp:
		if resp.Valid {
			idx := c.index(c.reqAddrReg)
			lines := make([]line, len(c.lines))
			copy(lines, c.lines)
			lines[idx] = line{valid: true, tag: c.tag(c.reqAddrReg), block: append([]byte(nil), resp.Block...)}
			c.nextLines = lines
			c.nextState = Replay
		} else {
			c.nextState = WaitResp
		}
	case Replay:
		c.nextState = Compare
	}
}

// MemResponse is the incoming refill response: a full cache block.
type MemResponse struct {
	Valid bool
	Block []byte
}

// TickDone commits shadow state computed by the most recent Tick call.
func (c *ICache) TickDone() {
	c.state = c.nextState
	c.reqAddrReg = c.nextReqAddrR
	c.lines = c.nextLines
	c.memReq = c.nextMemReq
	// A served request clears reqValid; Compare/Replay both resolve the
	// previously latched request by the time TickDone runs.
	if c.state == Compare || c.state == Idle {
		c.reqValid = false
	}
}

// MemRequestOut returns this cycle's outgoing refill request, if any.
func (c *ICache) MemRequestOut() MemRequest {
	return c.memReq
}

// Response returns the CPU-visible response for this cycle: valid only
// when the request latched in reqAddrReg has actually been served,
// either by a same-cycle hit in Compare or by a Replay that is
// guaranteed to hit (spec §4.9 invariant (b)/(c)).
func (c *ICache) Response() Response {
	if c.state != Compare {
		return Response{}
	}
	idx := c.index(c.reqAddrReg)
	ln := c.lines[idx]
	if !ln.valid || ln.tag != c.tag(c.reqAddrReg) {
		return Response{}
	}
	offset := c.reqAddrReg & uint32(c.cfg.BlockBytes-1)
	word := uint32(ln.block[offset]) | uint32(ln.block[offset+1])<<8 |
		uint32(ln.block[offset+2])<<16 | uint32(ln.block[offset+3])<<24
	return Response{Valid: true, Data: word}
}

// State returns the controller's current FSM state, for debug/test
// introspection.
func (c *ICache) State() State {
	return c.state
}
