// Package detrend removes slow components from a vowel segment.
//
// Multiplicative equalises the short-term level of a signal with a sliding
// window, leaving a series whose volume envelope is flat. Additive splits a
// series into empirical modes and groups them into a fine-scale residual, a
// periodic band and a slow additive trend.
//
// Both stages report the dispersion of what they removed: the spread of the
// per-window levels and the spread of the additive trend.
package detrend
