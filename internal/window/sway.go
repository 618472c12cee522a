package window

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// swayNode is the subset of the swaymsg get_tree node schema we need.
type swayNode struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	AppID string `json:"app_id"`
	PID   int    `json:"pid"`
	Rect  struct {
		X      int `json:"x"`
		Y      int `json:"y"`
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"rect"`
	WindowProperties struct {
		Class string `json:"class"`
	} `json:"window_properties"`
	Nodes         []swayNode `json:"nodes"`
	FloatingNodes []swayNode `json:"floating_nodes"`
}

// SwayPositioner positions windows on Wayland/sway using swaymsg.
type SwayPositioner struct {
	runner Runner
	logger *slog.Logger
	cfg    Config

	mu       sync.Mutex
	warmedUp bool
}

// NewSwayPositioner creates a sway positioner backed by swaymsg.
func NewSwayPositioner(runner Runner, cfg Config, logger *slog.Logger) *SwayPositioner {
	cfg.applyDefaults()
	return &SwayPositioner{runner: runner, logger: logger, cfg: cfg}
}

// Position implements the same contract as the wmctrl strategy over
// swaymsg criteria commands, with the container tree used for locating
// and verifying the window.
func (p *SwayPositioner) Position(ctx context.Context, target Rect, match Match) error {
	p.mu.Lock()
	if !p.warmedUp {
		p.warmedUp = true
		p.mu.Unlock()
		sleep(ctx, p.cfg.WarmupDelay)
	} else {
		p.mu.Unlock()
	}

	var lastErr error
	for attempt := 1; attempt <= p.cfg.Attempts; attempt++ {
		if attempt > 1 {
			sleep(ctx, p.cfg.StepDelay)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.positionOnce(ctx, target, match); err != nil {
			lastErr = err
			p.logger.Warn("window positioning attempt failed",
				"attempt", attempt, "error", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("window not positioned after %d attempts: %w", p.cfg.Attempts, lastErr)
}

func (p *SwayPositioner) positionOnce(ctx context.Context, target Rect, match Match) error {
	node, err := p.findNode(ctx, match)
	if err != nil {
		return err
	}

	criteria := fmt.Sprintf("[con_id=%d]", node.ID)
	steps := []string{
		criteria + " fullscreen disable",
		fmt.Sprintf("%s floating enable, move absolute position %d %d", criteria, target.X, target.Y),
		fmt.Sprintf("%s resize set %d %d", criteria, target.Width, target.Height),
	}
	for _, step := range steps {
		if _, err := p.runner.Run(ctx, "swaymsg", step); err != nil {
			return fmt.Errorf("swaymsg %q: %w", step, err)
		}
		sleep(ctx, p.cfg.StepDelay)
	}

	moved, err := p.findNode(ctx, match)
	if err != nil {
		return err
	}
	if moved.Rect.X < target.X || moved.Rect.X >= target.X+target.Width {
		return fmt.Errorf("window at x=%d, outside target [%d,%d)",
			moved.Rect.X, target.X, target.X+target.Width)
	}

	if _, err := p.runner.Run(ctx, "swaymsg", criteria+" fullscreen enable"); err != nil {
		return fmt.Errorf("enable fullscreen: %w", err)
	}

	p.logger.Info("window positioned",
		"con_id", node.ID, "x", target.X, "y", target.Y,
		"width", target.Width, "height", target.Height)
	return nil
}

func (p *SwayPositioner) findNode(ctx context.Context, match Match) (swayNode, error) {
	out, err := p.runner.Run(ctx, "swaymsg", "-t", "get_tree")
	if err != nil {
		return swayNode{}, fmt.Errorf("get_tree: %w", err)
	}

	var root swayNode
	if err := json.Unmarshal([]byte(out), &root); err != nil {
		return swayNode{}, fmt.Errorf("parse get_tree: %w", err)
	}

	var leaves []swayNode
	collectLeaves(root, &leaves)

	for _, n := range leaves {
		if match.PID != 0 && n.PID == match.PID {
			return n, nil
		}
	}
	for _, n := range leaves {
		if containsFold(n.AppID, match.NameHint) || containsFold(n.WindowProperties.Class, match.NameHint) {
			return n, nil
		}
	}
	for _, n := range leaves {
		if containsFold(n.Name, match.TitleHint) {
			return n, nil
		}
	}
	return swayNode{}, fmt.Errorf("no container matching pid=%d name=%q title=%q",
		match.PID, match.NameHint, match.TitleHint)
}

// collectLeaves gathers view containers (nodes without children).
func collectLeaves(n swayNode, out *[]swayNode) {
	if len(n.Nodes) == 0 && len(n.FloatingNodes) == 0 && n.PID != 0 {
		*out = append(*out, n)
		return
	}
	for _, c := range n.Nodes {
		collectLeaves(c, out)
	}
	for _, c := range n.FloatingNodes {
		collectLeaves(c, out)
	}
}
