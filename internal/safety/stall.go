package safety

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/zeebo/blake3"
)

// StallReason identifies why the stall detector rejected a step.
type StallReason int

const (
	// NoStateChange means recent steps produced identical checksums.
	NoStateChange StallReason = iota
	// ToolLoop means the same tools are being called in a repeating order.
	ToolLoop
	// IdenticalCalls means the same tool+args pair has been called too
	// many times.
	IdenticalCalls
)

func (r StallReason) String() string {
	switch r {
	case NoStateChange:
		return "no state change across multiple steps"
	case ToolLoop:
		return "repeated tool call sequence detected"
	case IdenticalCalls:
		return "identical tool calls detected"
	default:
		return "unknown stall reason"
	}
}

// StallError reports that the stall detector rejected a step.
type StallError struct {
	Reason StallReason
}

func (e *StallError) Error() string { return e.Reason.String() }

type stateSnapshot struct {
	stepNumber    int
	toolInvoked   string
	filesModified []string
	checksum      string
}

func computeChecksum(tool string, filesModified []string) string {
	sorted := append([]string(nil), filesModified...)
	sort.Strings(sorted)

	h := blake3.New()
	_, _ = h.WriteString(tool)
	for _, f := range sorted {
		_, _ = h.WriteString(f)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func newStateSnapshot(step int, tool string, filesModified []string) stateSnapshot {
	return stateSnapshot{
		stepNumber:    step,
		toolInvoked:   tool,
		filesModified: filesModified,
		checksum:      computeChecksum(tool, filesModified),
	}
}

// Detector tracks recent execution steps and reports a StallReason when
// the loop shows no forward progress: identical repeated calls, no state
// change across a window of steps, or a repeating tool-call pattern.
//
// The identical-call check is independent of, and runs before, the
// window-based checks. Within the window-based checks, NoStateChange is
// checked before ToolLoop, so a window that is both "all identical" and
// "alternating" reports NoStateChange.
type Detector struct {
	snapshots  []stateSnapshot
	config     Config
	stepNumber int
	callCounts map[string]int // (tool + sorted args) -> count
}

// NewDetector creates a stall detector with the default config.
func NewDetector() *Detector {
	return NewDetectorWithConfig(DefaultConfig())
}

// NewDetectorWithConfig creates a stall detector with a custom config.
func NewDetectorWithConfig(config Config) *Detector {
	return &Detector{
		config:     config,
		callCounts: make(map[string]int),
	}
}

// RecordStep records a tool execution step, returning a *StallError if a
// stall is detected.
func (d *Detector) RecordStep(tool string, args map[string]string, filesModified []string) error {
	d.stepNumber++

	if err := d.checkIdenticalCall(tool, args); err != nil {
		return err
	}

	snapshot := newStateSnapshot(d.stepNumber, tool, filesModified)
	d.snapshots = append(d.snapshots, snapshot)

	maxLen := d.config.StallThreshold + 1
	if len(d.snapshots) > maxLen {
		d.snapshots = d.snapshots[len(d.snapshots)-maxLen:]
	}

	if len(d.snapshots) >= d.config.StallThreshold {
		if reason, ok := d.detectStall(); ok {
			return &StallError{Reason: reason}
		}
	}

	return nil
}

func (d *Detector) checkIdenticalCall(tool string, args map[string]string) error {
	key := tool + "\x00" + argsSignature(args)
	d.callCounts[key]++

	if d.callCounts[key] > d.config.MaxIdenticalCalls {
		return &StallError{Reason: IdenticalCalls}
	}
	return nil
}

func argsSignature(args map[string]string) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sig := ""
	for _, k := range keys {
		sig += fmt.Sprintf("%s=%s\x01", k, args[k])
	}
	return sig
}

func (d *Detector) detectStall() (StallReason, bool) {
	if d.detectNoStateChange() {
		return NoStateChange, true
	}
	if d.detectToolLoop() {
		return ToolLoop, true
	}
	return 0, false
}

// window returns the most recent StallThreshold snapshots in
// reverse-chronological order (newest first), matching the ordering the
// original detector uses for pattern matching.
func (d *Detector) window() []stateSnapshot {
	n := d.config.StallThreshold
	if n > len(d.snapshots) {
		n = len(d.snapshots)
	}
	chron := d.snapshots[len(d.snapshots)-n:]
	rev := make([]stateSnapshot, n)
	for i, s := range chron {
		rev[n-1-i] = s
	}
	return rev
}

func (d *Detector) detectNoStateChange() bool {
	if len(d.snapshots) < d.config.StallThreshold {
		return false
	}
	w := d.window()
	recent := w[0].checksum
	for _, s := range w {
		if s.checksum != recent {
			return false
		}
	}
	return true
}

func (d *Detector) detectToolLoop() bool {
	if len(d.snapshots) < d.config.StallThreshold {
		return false
	}

	w := d.window()
	seq := make([]string, len(w))
	for i, s := range w {
		seq[i] = s.toolInvoked
	}

	unique := make(map[string]struct{})
	for _, t := range seq {
		unique[t] = struct{}{}
	}
	if len(unique) < 2 {
		return false
	}

	if len(seq) >= 3 {
		first, second := seq[0], seq[1]
		if first != second {
			alternates := true
			for i, t := range seq {
				expected := first
				if i%2 != 0 {
					expected = second
				}
				if t != expected {
					alternates = false
					break
				}
			}
			if alternates {
				return true
			}
		}
	}

	for patternLen := 2; patternLen < len(seq)/2; patternLen++ {
		if len(seq)%patternLen != 0 {
			continue
		}
		pattern := seq[:patternLen]
		allMatch := true
		for i := 0; i < len(seq); i += patternLen {
			chunk := seq[i : i+patternLen]
			if !equalStrings(chunk, pattern) {
				allMatch = false
				break
			}
		}
		if allMatch {
			return true
		}
	}

	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Reset clears all detector state. Call this when starting a new
// execution phase or after user intervention.
func (d *Detector) Reset() {
	d.snapshots = nil
	d.stepNumber = 0
	d.callCounts = make(map[string]int)
}

// StepNumber returns the number of steps recorded.
func (d *Detector) StepNumber() int { return d.stepNumber }

// HistorySize returns the number of snapshots currently retained.
func (d *Detector) HistorySize() int { return len(d.snapshots) }

// CanDetect reports whether enough history has accumulated to detect a stall.
func (d *Detector) CanDetect() bool { return len(d.snapshots) >= d.config.StallThreshold }
