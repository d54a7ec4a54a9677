// Package hostwindow opens an ebiten window over a running core.Core: it
// polls the keyboard into button presses once per Update and blits the
// core's framebuffer once per Draw. It is the only place in this repository
// that imports ebiten — internal/core and everything it depends on stays
// free of any rendering/windowing dependency.
package hostwindow

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/kaelbrook/gbcore/internal/core"
)

const (
	screenW = 160
	screenH = 144
)

// App is an ebiten.Game driving one core.Core.
type App struct {
	core  *core.Core
	title string
	scale int

	tex  *ebiten.Image
	rgba [screenW * screenH * 4]byte

	runErr error
}

// NewApp returns an App ready to Run. scale is the integer window upscale
// factor; values <= 0 fall back to 3.
func NewApp(c *core.Core, title string, scale int) *App {
	if scale <= 0 {
		scale = 3
	}
	return &App{core: c, title: title, scale: scale}
}

// Run opens the window and blocks until it is closed or Update returns an
// error other than ebiten's own termination sentinel.
func (a *App) Run() error {
	ebiten.SetWindowTitle(a.title)
	ebiten.SetWindowSize(screenW*a.scale, screenH*a.scale)
	return ebiten.RunGame(a)
}

// Err returns the error (if any) that caused the last Update to stop the
// core, e.g. a DecodeError from an undefined opcode.
func (a *App) Err() error { return a.runErr }

var keyButtons = [...]struct {
	key ebiten.Key
	btn core.Button
}{
	{ebiten.KeyArrowRight, core.ButtonRight},
	{ebiten.KeyArrowLeft, core.ButtonLeft},
	{ebiten.KeyArrowUp, core.ButtonUp},
	{ebiten.KeyArrowDown, core.ButtonDown},
	{ebiten.KeyZ, core.ButtonA},
	{ebiten.KeyX, core.ButtonB},
	{ebiten.KeyEnter, core.ButtonStart},
	{ebiten.KeyShiftRight, core.ButtonSelect},
}

func (a *App) Update() error {
	if a.runErr != nil {
		return a.runErr
	}
	for _, kb := range keyButtons {
		if ebiten.IsKeyPressed(kb.key) {
			a.core.PressButton(kb.btn)
		} else {
			a.core.ReleaseButton(kb.btn)
		}
	}
	status, err := a.core.StepFrame()
	if err != nil {
		a.runErr = err
		return err
	}
	_ = status // Break always comes with an error (handled above); Stop is not an error, so the next Update keeps stepping the stopped CPU
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(screenW, screenH)
	}
	fb := a.core.Framebuffer()
	for i := 0; i < screenW*screenH; i++ {
		a.rgba[i*4+0] = fb[i*3+0]
		a.rgba[i*4+1] = fb[i*3+1]
		a.rgba[i*4+2] = fb[i*3+2]
		a.rgba[i*4+3] = 0xFF
	}
	a.tex.WritePixels(a.rgba[:])
	screen.DrawImage(a.tex, nil)
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return screenW, screenH }
