package screen

import (
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// connectedRe matches xrandr output lines for connected outputs:
//
//	HDMI-1 connected 1920x1080+1920+0 (normal left inverted ...) 527mm x 296mm
//	eDP-1 connected primary 1920x1080+0+0 ...
var connectedRe = regexp.MustCompile(`^(\S+) connected( primary)? (\d+)x(\d+)\+(\d+)\+(\d+)`)

// XrandrQuery detects screens by parsing `xrandr --query` output.
type XrandrQuery struct {
	logger *slog.Logger

	// runQuery is swappable for tests; defaults to running xrandr.
	runQuery func() (string, error)
}

// NewXrandrQuery creates an xrandr-backed display query.
func NewXrandrQuery(logger *slog.Logger) *XrandrQuery {
	return &XrandrQuery{
		logger: logger,
		runQuery: func() (string, error) {
			out, err := exec.Command("xrandr", "--query").Output()
			return string(out), err
		},
	}
}

// DetectScreens returns all connected outputs. A missing or failing
// xrandr binary yields an empty list; display detection is never fatal.
func (q *XrandrQuery) DetectScreens() []Info {
	out, err := q.runQuery()
	if err != nil {
		q.logger.Warn("display query failed", "error", err)
		return nil
	}
	return ParseXrandr(out)
}

// ParseXrandr extracts connected outputs from xrandr --query text.
// Disconnected outputs and outputs without resolved geometry are skipped.
func ParseXrandr(out string) []Info {
	var screens []Info
	for _, line := range strings.Split(out, "\n") {
		m := connectedRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		screens = append(screens, Info{
			Name:    m[1],
			Primary: m[2] != "",
			Width:   atoi(m[3]),
			Height:  atoi(m[4]),
			XOffset: atoi(m[5]),
			YOffset: atoi(m[6]),
		})
	}
	return screens
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
