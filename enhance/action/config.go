package action

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config is one parsed marker action. Field defaults apply when the raw
// configuration omits or mangles a key, parsing never fails outright.
type Config struct {
	Target   string
	Fade     float64 // opacity applied to non-target prose, 1 means no dimming
	Animate  Animate
	Overlay  Overlay
	Duration time.Duration
	Delay    time.Duration
}

func DefaultActionConfig() Config {
	return Config{
		Fade:     1,
		Animate:  AnimateFadeIn,
		Overlay:  OverlayOver,
		Duration: time.Second,
	}
}

// ParseConfig parses a pipe separated key:value action configuration, for
// example "target:p1-2|fade:0.1|animate:typing|duration:2000". Unknown keys
// and unparsable values are reported as warnings and skipped, numeric values
// are clamped to their valid range.
func ParseConfig(raw string) (Config, []string) {
	cfg := DefaultActionConfig()

	var warns []string
	for part := range strings.SplitSeq(raw, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			warns = append(warns, fmt.Sprintf("action key without value: %q", part))
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "target":
			cfg.Target = value
		case "fade":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				warns = append(warns, fmt.Sprintf("bad fade value %q, keeping %v", value, cfg.Fade))
				continue
			}
			cfg.Fade = min(max(v, 0), 1)
		case "animate":
			v, err := ParseAnimate(value)
			if err != nil {
				warns = append(warns, fmt.Sprintf("bad animate value %q, keeping %v", value, cfg.Animate))
				continue
			}
			cfg.Animate = v
		case "overlay":
			v, err := ParseOverlay(value)
			if err != nil {
				warns = append(warns, fmt.Sprintf("bad overlay value %q, keeping %v", value, cfg.Overlay))
				continue
			}
			cfg.Overlay = v
		case "duration":
			d, err := parseMillis(value)
			if err != nil {
				warns = append(warns, fmt.Sprintf("bad duration value %q, keeping %v", value, cfg.Duration))
				continue
			}
			cfg.Duration = d
		case "delay":
			d, err := parseMillis(value)
			if err != nil {
				warns = append(warns, fmt.Sprintf("bad delay value %q, keeping %v", value, cfg.Delay))
				continue
			}
			cfg.Delay = d
		default:
			warns = append(warns, fmt.Sprintf("unknown action key %q", key))
		}
	}
	return cfg, warns
}

// parseMillis accepts a bare millisecond count.
func parseMillis(value string) (time.Duration, error) {
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond, nil
}
