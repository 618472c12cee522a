// Package screen detects connected displays and selects the secondary
// output the kiosk browser should be pinned to.
package screen

// Info describes one connected display output. Equality for "did the
// screen change" purposes is by Name.
type Info struct {
	Name    string
	Width   int
	Height  int
	XOffset int
	YOffset int
	Primary bool
}

// Query enumerates connected displays. Implementations fail soft: a
// missing or erroring query tool yields an empty list, never an error
// the supervisor has to handle.
type Query interface {
	DetectScreens() []Info
}

// FindSecondary selects the display the browser should target:
//
//  1. The first output not flagged primary, in query order.
//  2. A single primary-only output means a single-display system: none.
//  3. Multiple outputs with no non-primary flag: the one with the
//     largest horizontal offset (rightmost is assumed to be the
//     extended display). Ties resolve to the first encountered.
//
// Returns false when no secondary display exists.
func FindSecondary(screens []Info) (Info, bool) {
	for _, s := range screens {
		if !s.Primary {
			return s, true
		}
	}

	if len(screens) < 2 {
		return Info{}, false
	}

	best := screens[0]
	for _, s := range screens[1:] {
		if s.XOffset > best.XOffset {
			best = s
		}
	}
	return best, true
}
