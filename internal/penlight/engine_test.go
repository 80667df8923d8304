package penlight

import (
	"errors"
	"image/color"
	"testing"
)

type fakeWriter struct {
	frames int
	last   []color.RGBA
	err    error
}

func (w *fakeWriter) WriteColors(buf []color.RGBA) error {
	if w.err != nil {
		return w.err
	}
	w.frames++
	w.last = append(w.last[:0], buf...)
	return nil
}

func newTestEngine(lengths ...int) (*Engine, []*fakeWriter) {
	writers := make([]*fakeWriter, len(lengths))
	strips := make([]*Strip, len(lengths))
	for i, n := range lengths {
		writers[i] = &fakeWriter{}
		strips[i] = NewStrip(6+i, n, writers[i])
	}
	return NewEngine(strips), writers
}

func allPixels(w *fakeWriter, c Color) bool {
	if len(w.last) == 0 {
		return false
	}
	want := c.RGBA()
	for _, p := range w.last {
		if p != want {
			return false
		}
	}
	return true
}

func TestSetColorRoundTrip(t *testing.T) {
	e, writers := newTestEngine(8, 8)
	tests := []Color{
		{0, 0, 0},
		{255, 255, 255},
		{10, 20, 30},
		{1, 0, 255},
	}
	for _, c := range tests {
		if err := e.SetColor(c); err != nil {
			t.Fatalf("SetColor(%v) returned %v", c, err)
		}
		if got := e.CurrentColor(); got != c {
			t.Errorf("CurrentColor() = %v after SetColor(%v)", got, c)
		}
		for i, w := range writers {
			if !allPixels(w, c) {
				t.Errorf("strip %d not filled with %v: %v", i, c, w.last)
			}
		}
	}
}

func TestSetStripColorLeavesWholeDeviceState(t *testing.T) {
	e, writers := newTestEngine(8, 4)
	red := Color{R: 255}
	green := Color{G: 255}

	if err := e.SetColor(red); err != nil {
		t.Fatal(err)
	}
	if err := e.SetStripColor(1, green); err != nil {
		t.Fatal(err)
	}

	if got := e.CurrentColor(); got != red {
		t.Errorf("SetStripColor changed CurrentColor to %v", got)
	}
	if !allPixels(writers[0], red) {
		t.Errorf("strip 0 disturbed: %v", writers[0].last)
	}
	if !allPixels(writers[1], green) {
		t.Errorf("strip 1 not green: %v", writers[1].last)
	}
}

func TestSetStripColorOutOfRangeIsNoOp(t *testing.T) {
	e, writers := newTestEngine(8)
	before := writers[0].frames
	for _, i := range []int{-1, 1, 100} {
		if err := e.SetStripColor(i, Color{R: 255}); err != nil {
			t.Errorf("SetStripColor(%d) returned %v, want nil", i, err)
		}
	}
	if writers[0].frames != before {
		t.Errorf("out-of-range strip index caused %d hardware writes", writers[0].frames-before)
	}
}

func TestStopAutoModeIdempotent(t *testing.T) {
	e, writers := newTestEngine(8, 8)
	if err := e.StartAutoMode(PatternCycle, 0); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := e.StopAutoMode(); err != nil {
			t.Fatalf("StopAutoMode call %d returned %v", i+1, err)
		}
		if e.AutoMode() {
			t.Errorf("auto mode still on after stop %d", i+1)
		}
		for si, w := range writers {
			if !allPixels(w, Black) {
				t.Errorf("strip %d not black after stop %d: %v", si, i+1, w.last)
			}
		}
	}
}

func TestStartAutoModeRejectsUnknownPatterns(t *testing.T) {
	e, _ := newTestEngine(8)
	for _, p := range []int{-1, 0, 5, 99} {
		err := e.StartAutoMode(p, 0)
		if !errors.Is(err, ErrUnknownPattern) {
			t.Errorf("StartAutoMode(%d) = %v, want ErrUnknownPattern", p, err)
		}
		if e.AutoMode() {
			t.Errorf("StartAutoMode(%d) armed auto mode", p)
		}
	}
	for p := PatternCycle; p <= PatternAlternate; p++ {
		if err := e.StartAutoMode(p, 0); err != nil {
			t.Errorf("StartAutoMode(%d) = %v, want nil", p, err)
		}
	}
}

func TestAdvanceNoOpWithoutAutoMode(t *testing.T) {
	e, writers := newTestEngine(8)
	if err := e.Advance(5000); err != nil {
		t.Fatal(err)
	}
	if writers[0].frames != 0 {
		t.Errorf("Advance wrote %d frames with auto mode off", writers[0].frames)
	}
}

func TestAdvanceIntervalGating(t *testing.T) {
	e, writers := newTestEngine(8)
	if err := e.StartAutoMode(PatternCycle, 1000); err != nil {
		t.Fatal(err)
	}

	if err := e.Advance(1999); err != nil {
		t.Fatal(err)
	}
	if writers[0].frames != 0 {
		t.Fatal("Advance stepped before the interval elapsed")
	}

	if err := e.Advance(2000); err != nil {
		t.Fatal(err)
	}
	if !allPixels(writers[0], Palette[0]) {
		t.Errorf("first step should render %v, got %v", Palette[0], writers[0].last)
	}

	// The stamp moved to 2000, so 2999 is again too early.
	frames := writers[0].frames
	if err := e.Advance(2999); err != nil {
		t.Fatal(err)
	}
	if writers[0].frames != frames {
		t.Error("Advance stepped again before the next interval")
	}

	if err := e.Advance(3000); err != nil {
		t.Fatal(err)
	}
	if !allPixels(writers[0], Palette[1]) {
		t.Errorf("second step should render %v, got %v", Palette[1], writers[0].last)
	}
}

func TestPatternRainbowUsesShortInterval(t *testing.T) {
	e, writers := newTestEngine(8)
	gradient := RainbowGradient(GradientSteps)
	if err := e.StartAutoMode(PatternRainbow, 0); err != nil {
		t.Fatal(err)
	}

	if err := e.Advance(499); err != nil {
		t.Fatal(err)
	}
	if writers[0].frames != 0 {
		t.Fatal("rainbow stepped before 500ms")
	}
	if err := e.Advance(500); err != nil {
		t.Fatal(err)
	}
	if !allPixels(writers[0], gradient[0]) {
		t.Errorf("expected %v, got %v", gradient[0], writers[0].last)
	}
	if err := e.Advance(1000); err != nil {
		t.Fatal(err)
	}
	if !allPixels(writers[0], gradient[1]) {
		t.Errorf("expected %v, got %v", gradient[1], writers[0].last)
	}
}

func TestPatternCycleWrapsAroundPalette(t *testing.T) {
	e, writers := newTestEngine(8)
	if err := e.StartAutoMode(PatternCycle, 0); err != nil {
		t.Fatal(err)
	}
	now := uint32(0)
	for step := 0; step < 15; step++ {
		now += 1000
		if err := e.Advance(now); err != nil {
			t.Fatal(err)
		}
		want := Palette[step%len(Palette)]
		if !allPixels(writers[0], want) {
			t.Fatalf("step %d: expected %v, got %v", step, want, writers[0].last)
		}
	}
}

func TestPatternBlinkAlternatesLitAndDark(t *testing.T) {
	e, writers := newTestEngine(8)
	if err := e.StartAutoMode(PatternBlink, 0); err != nil {
		t.Fatal(err)
	}
	want := []Color{Palette[0], Black, Palette[1], Black, Palette[2], Black}
	now := uint32(0)
	for step, c := range want {
		now += 1000
		if err := e.Advance(now); err != nil {
			t.Fatal(err)
		}
		if !allPixels(writers[0], c) {
			t.Fatalf("step %d: expected %v, got %v", step, c, writers[0].last)
		}
	}
}

func TestPatternBlinkIndexWraps(t *testing.T) {
	e, writers := newTestEngine(8)
	if err := e.StartAutoMode(PatternBlink, 0); err != nil {
		t.Fatal(err)
	}
	// 4294967294/2 mod 7 == 1, so the lit step shows the second color.
	e.index = 4294967294

	if err := e.Advance(1000); err != nil {
		t.Fatal(err)
	}
	if !allPixels(writers[0], Palette[1]) {
		t.Fatalf("expected %v near index wrap, got %v", Palette[1], writers[0].last)
	}
	if err := e.Advance(2000); err != nil {
		t.Fatal(err)
	}
	if !allPixels(writers[0], Black) {
		t.Fatalf("expected dark phase at max index, got %v", writers[0].last)
	}
	// Index wrapped through zero; the cycle continues from the start.
	if err := e.Advance(3000); err != nil {
		t.Fatal(err)
	}
	if !allPixels(writers[0], Palette[0]) {
		t.Fatalf("expected %v after index wrap, got %v", Palette[0], writers[0].last)
	}
}

func TestPatternAlternateStrips(t *testing.T) {
	e, writers := newTestEngine(8, 8)
	if err := e.StartAutoMode(PatternAlternate, 0); err != nil {
		t.Fatal(err)
	}

	if err := e.Advance(1000); err != nil {
		t.Fatal(err)
	}
	if !allPixels(writers[0], Palette[0]) || !allPixels(writers[1], Black) {
		t.Errorf("step 0: got strip0=%v strip1=%v", writers[0].last, writers[1].last)
	}

	if err := e.Advance(2000); err != nil {
		t.Fatal(err)
	}
	if !allPixels(writers[0], Black) || !allPixels(writers[1], Palette[0]) {
		t.Errorf("step 1: got strip0=%v strip1=%v", writers[0].last, writers[1].last)
	}

	if err := e.Advance(3000); err != nil {
		t.Fatal(err)
	}
	if !allPixels(writers[0], Palette[1]) || !allPixels(writers[1], Black) {
		t.Errorf("step 2: got strip0=%v strip1=%v", writers[0].last, writers[1].last)
	}

	if got := e.CurrentColor(); got != Black {
		t.Errorf("alternating pattern should not track a whole-device color, got %v", got)
	}
}

func TestAdvanceSurvivesTickWrap(t *testing.T) {
	e, writers := newTestEngine(8)
	start := ^uint32(0) - 500
	if err := e.StartAutoMode(PatternCycle, start); err != nil {
		t.Fatal(err)
	}
	// 1000ms later the counter has wrapped to 499.
	if err := e.Advance(499); err != nil {
		t.Fatal(err)
	}
	if !allPixels(writers[0], Palette[0]) {
		t.Errorf("expected a step across the tick wrap, got %v", writers[0].last)
	}
}

func TestBrightnessScalesHardwareOnly(t *testing.T) {
	e, writers := newTestEngine(8)
	e.SetBrightness(128)
	c := Color{R: 255, G: 0, B: 0}
	if err := e.SetColor(c); err != nil {
		t.Fatal(err)
	}
	if got := e.CurrentColor(); got != c {
		t.Errorf("CurrentColor() = %v, brightness must not rewrite it", got)
	}
	if !allPixels(writers[0], Color{R: 128}) {
		t.Errorf("expected scaled hardware output, got %v", writers[0].last)
	}
}

func TestSetColorPropagatesWriteError(t *testing.T) {
	e, writers := newTestEngine(8, 8)
	boom := errors.New("boom")
	writers[0].err = boom
	err := e.SetColor(Color{R: 255})
	if !errors.Is(err, boom) {
		t.Errorf("SetColor returned %v, want the driver error", err)
	}
	// The second strip is still written even when the first fails.
	if !allPixels(writers[1], Color{R: 255}) {
		t.Errorf("strip 1 skipped after strip 0 fault: %v", writers[1].last)
	}
}

func TestTicksDiff(t *testing.T) {
	tests := []struct {
		a, b uint32
		want int32
	}{
		{0, 0, 0},
		{1000, 0, 1000},
		{0, 1000, -1000},
		{0, ^uint32(0), 1},
		{^uint32(0), 0, -1},
		{499, ^uint32(0) - 500, 1000},
	}
	for _, tc := range tests {
		if got := TicksDiff(tc.a, tc.b); got != tc.want {
			t.Errorf("TicksDiff(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
