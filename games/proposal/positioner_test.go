package proposal

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inBounds(t *testing.T, p *Positioner, v Viewport, pos Position) {
	t.Helper()

	maxX := max(p.Padding, v.Width-p.Button.Width-p.Padding)
	maxY := max(p.Padding, v.Height-p.Button.Height-p.Padding)

	require.GreaterOrEqual(t, pos.X, p.Padding)
	require.LessOrEqual(t, pos.X, maxX)
	require.GreaterOrEqual(t, pos.Y, p.Padding)
	require.LessOrEqual(t, pos.Y, maxY)
}

func TestNextStaysInBounds(t *testing.T) {
	p := NewPositioner(rand.New(rand.NewPCG(1, 2)))

	viewports := []Viewport{
		{Width: 1920, Height: 1080},
		{Width: 1200, Height: 800},
		{Width: 390, Height: 844},
		{Width: 300, Height: 300},
		{Width: 188, Height: 104},
		{Width: 100, Height: 40},
		{Width: 1, Height: 1},
	}

	for _, v := range viewports {
		pos := p.Initial(v)
		inBounds(t, p, v, pos)

		for range 500 {
			pos = p.Next(v, pos, DefaultJitter)
			inBounds(t, p, v, pos)
		}

		// Starting from far outside the viewport still lands inside.
		inBounds(t, p, v, p.Next(v, Position{X: -5000, Y: 9000}, JitterRange{Min: 0, Max: 10}))
	}
}

func TestNextIsReproducible(t *testing.T) {
	v := Viewport{Width: 1200, Height: 800}
	cur := Position{X: 600, Y: 400}

	// x: magnitude 200+10, positive; y: magnitude 200+20, negative.
	script := []int{10, 1, 20, 0}

	a := NewPositioner(&scriptedRand{values: append([]int{}, script...)}).Next(v, cur, DefaultJitter)
	b := NewPositioner(&scriptedRand{values: append([]int{}, script...)}).Next(v, cur, DefaultJitter)

	assert.Equal(t, Position{X: 810, Y: 180}, a)
	assert.Equal(t, a, b)
}

func TestNextClampsOvershoot(t *testing.T) {
	v := Viewport{Width: 1200, Height: 800}
	p := NewPositioner(&scriptedRand{values: []int{180, 1, 180, 0}})

	got := p.Next(v, Position{X: 1000, Y: 100}, DefaultJitter)

	assert.Equal(t, Position{X: 1036, Y: 24}, got)
}

func TestNextNormalizesJitter(t *testing.T) {
	v := Viewport{Width: 1200, Height: 800}
	p := NewPositioner(&scriptedRand{values: []int{0, 1, 0, 1}})

	got := p.Next(v, Position{X: 500, Y: 300}, JitterRange{Min: 50, Max: 10})

	assert.Equal(t, Position{X: 510, Y: 310}, got)
}

func TestNextCapsHugeJitter(t *testing.T) {
	v := Viewport{Width: 1200, Height: 800}
	p := NewPositioner(&scriptedRand{values: []int{math.MaxInt, 1, math.MaxInt, 0}})

	var got Position
	require.NotPanics(t, func() {
		got = p.Next(v, Position{X: 500, Y: 300}, JitterRange{Min: math.MaxInt - 1, Max: math.MaxInt})
	})
	inBounds(t, p, v, got)
	assert.Equal(t, JitterRange{Min: MaxJitter, Max: MaxJitter}, JitterRange{Min: math.MaxInt, Max: math.MaxInt}.normalize())
}

func TestInitialPosition(t *testing.T) {
	p := NewPositioner(nil)

	assert.Equal(t, Position{X: 720, Y: 520}, p.Initial(Viewport{Width: 1200, Height: 800}))

	small := Viewport{Width: 300, Height: 300}
	got := p.Initial(small)
	inBounds(t, p, small, got)
	assert.Equal(t, Position{X: 136, Y: 220}, got)

	// Too small to fit the button: the low bound wins.
	assert.Equal(t, Position{X: 24, Y: 24}, p.Initial(Viewport{Width: 100, Height: 50}))
}

func TestRotationWraps(t *testing.T) {
	require.Len(t, DefaultTeases, 8)

	r := NewRotation(DefaultTeases)

	var seen []Message
	for range 9 {
		seen = append(seen, r.Advance())
	}

	assert.Equal(t, seen[0], seen[8])
	assert.NotEqual(t, seen[0], seen[1])
	assert.Equal(t, 9, r.Index())
}
