package x11

import (
	"testing"

	"github.com/BurntSushi/xgbutil/ewmh"
)

func TestUpdateStrutsForMonitor_OnlyCountsOverlappingDocks(t *testing.T) {
	left := Monitor{Name: "DP-1", X: 0, Y: 0, Width: 1920, Height: 1080}
	right := Monitor{Name: "HDMI-1", X: 1920, Y: 0, Width: 1280, Height: 1024}
	rootW, rootH := 3200, 1080

	// 30px top panel spanning only the left monitor.
	panel := &ewmh.WmStrutPartial{Top: 30, TopStartX: 0, TopEndX: 1919}

	var accLeft, accRight Struts
	updateStrutsForMonitor(left, rootW, rootH, panel, &accLeft)
	updateStrutsForMonitor(right, rootW, rootH, panel, &accRight)

	if accLeft != (Struts{Top: 30}) {
		t.Fatalf("expected 30px top strut on DP-1, got %+v", accLeft)
	}
	if !accRight.IsZero() {
		t.Fatalf("expected no strut on HDMI-1, got %+v", accRight)
	}
}

func TestUpdateStrutsForMonitor_BottomAndRight(t *testing.T) {
	mon := Monitor{X: 1920, Y: 0, Width: 1280, Height: 1080}
	rootW, rootH := 3200, 1080

	var acc Struts
	updateStrutsForMonitor(mon, rootW, rootH, fullStrut(&ewmh.WmStrut{Bottom: 40, Right: 64}, rootW, rootH), &acc)

	if acc.Bottom != 40 || acc.Right != 64 || acc.Top != 0 || acc.Left != 0 {
		t.Fatalf("unexpected struts %+v", acc)
	}
}

func TestInsetsWithin(t *testing.T) {
	mon := Monitor{X: 0, Y: 0, Width: 1920, Height: 1080}

	got := insetsWithin(mon, 48, 24, 1920-48, 1080-24-32)
	want := Struts{Left: 48, Top: 24, Bottom: 32}
	if got != want {
		t.Fatalf("insetsWithin = %+v, want %+v", got, want)
	}

	if got := insetsWithin(mon, 4000, 0, 100, 100); !got.IsZero() {
		t.Fatalf("expected disjoint work area to reserve nothing, got %+v", got)
	}
}
