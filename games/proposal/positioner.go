/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package proposal

import (
	"math/rand/v2"
)

const (
	DefaultPadding = 24
	DefaultOffset  = 120

	// MaxJitter is far past any real screen; larger ranges are cut down to it.
	MaxJitter = 10000
)

var (
	DefaultButton = Size{Width: 140, Height: 56}
	DefaultJitter = JitterRange{Min: 200, Max: 380}
)

// Rand is the randomness the positioner and quiz draw from.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

// DefaultRand draws from the math/rand/v2 global source.
var DefaultRand Rand = globalRand{}

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Size struct {
	Width  int
	Height int
}

// JitterRange holds inclusive bounds on the distance moved along each axis.
type JitterRange struct {
	Min int
	Max int
}

func (j JitterRange) normalize() JitterRange {
	if j.Min < 0 {
		j.Min = 0
	}
	if j.Max < 0 {
		j.Max = 0
	}
	if j.Min > j.Max {
		j.Min, j.Max = j.Max, j.Min
	}
	j.Min = min(j.Min, MaxJitter)
	j.Max = min(j.Max, MaxJitter)
	return j
}

// Positioner computes where the decline button goes next. It holds no state
// besides its constants and random source.
type Positioner struct {
	Padding int
	Button  Size
	Offset  int

	rng Rand
}

func NewPositioner(rng Rand) *Positioner {
	if rng == nil {
		rng = DefaultRand
	}

	return &Positioner{
		Padding: DefaultPadding,
		Button:  DefaultButton,
		Offset:  DefaultOffset,
		rng:     rng,
	}
}

// clamp lets the low bound win when hi < lo.
func clamp(value, lo, hi int) int {
	return max(lo, min(value, hi))
}

func (p *Positioner) bounds(v Viewport) (maxX, maxY int) {
	return v.Width - p.Button.Width - p.Padding, v.Height - p.Button.Height - p.Padding
}

// Clamp forces pos into the visible area of v.
func (p *Positioner) Clamp(v Viewport, pos Position) Position {
	maxX, maxY := p.bounds(v)

	return Position{
		X: clamp(pos.X, p.Padding, maxX),
		Y: clamp(pos.Y, p.Padding, maxY),
	}
}

// Initial places the button Offset units right of and below the center of v.
func (p *Positioner) Initial(v Viewport) Position {
	return p.Clamp(v, Position{
		X: v.Width/2 + p.Offset,
		Y: v.Height/2 + p.Offset,
	})
}

func (p *Positioner) shift(j JitterRange) int {
	magnitude := j.Min + p.rng.IntN(j.Max-j.Min+1)
	if p.rng.IntN(2) == 0 {
		return -magnitude
	}
	return magnitude
}

// Next moves current by a random signed distance in j along each axis,
// x first, then clamps the result into v.
func (p *Positioner) Next(v Viewport, current Position, j JitterRange) Position {
	j = j.normalize()

	dx := p.shift(j)
	dy := p.shift(j)

	return p.Clamp(v, Position{
		X: current.X + dx,
		Y: current.Y + dy,
	})
}
