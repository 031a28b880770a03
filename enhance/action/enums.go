// Package action parses and executes interactive marker actions: resolving
// target expressions, dimming surrounding prose, overlaying content and
// running reveal animations.
package action

// Animate selects the reveal animation for marker content.
// Glitch and slide are accepted for compatibility but currently execute as
// plain reveals.
// ENUM(typing, fade-in, glitch, slide)
type Animate int

// Overlay selects how marker content is placed relative to its targets.
// ENUM(over, replace, beside, append)
type Overlay int
