// Package timer implements anchored interval timers.
//
// A Timer fires at fixed wall-clock boundaries computed from a single anchor
// (anchor + n*interval), so scheduling overhead never accumulates into
// drift. Each eligible tick either invokes a user callback or posts a Tick
// event to a weakly-referenced target; a timer whose target has been
// released simply stops.
//
// Timers can be paused and resumed without disturbing the phase math, reset
// to a fresh anchor, and configured to skip (coalesce) ticks that are
// already overdue. Stop cancels a timer without waiting; StopAll cancels a
// batch and waits until every loop has fully drained.
package timer
