// Package resync realigns a line diff into paired rows so that a single
// inserted or deleted instruction does not shift every following line out
// of step.
package resync

// Row pairs a current-side cell with a target-side cell. A nil cell is blank.
type Row struct {
	Current *string
	Target  *string
}

func cell(s string) *string { return &s }

// Pair returns a row with both cells filled.
func Pair(current, target string) Row { return Row{Current: cell(current), Target: cell(target)} }

// CurrentOnly returns a row with a blank target cell.
func CurrentOnly(current string) Row { return Row{Current: cell(current)} }

// TargetOnly returns a row with a blank current cell.
func TargetOnly(target string) Row { return Row{Target: cell(target)} }

// CurrentText is the current cell, or "" when blank.
func (r Row) CurrentText() string {
	if r.Current == nil {
		return ""
	}
	return *r.Current
}

// TargetText is the target cell, or "" when blank.
func (r Row) TargetText() string {
	if r.Target == nil {
		return ""
	}
	return *r.Target
}

// Mismatch reports whether the rendered cells differ.
func (r Row) Mismatch() bool { return r.CurrentText() != r.TargetText() }

// Columns projects rows onto their current and target sides.
func Columns(rows []Row) (current, target []string) {
	current = make([]string, len(rows))
	target = make([]string, len(rows))
	for i, r := range rows {
		current[i] = r.CurrentText()
		target[i] = r.TargetText()
	}
	return current, target
}

// Kind classifies a Run by which backlogs hold entries.
type Kind int

const (
	Balanced    Kind = iota // both backlogs empty
	CurrentSide             // only deletes
	TargetSide              // only inserts
	Mixed                   // both sides
)

func (k Kind) String() string {
	switch k {
	case Balanced:
		return "balanced"
	case CurrentSide:
		return "current-only"
	case TargetSide:
		return "target-only"
	case Mixed:
		return "mixed"
	}
	return "unknown"
}

// Run holds the deletes and inserts collected between two equal lines.
type Run struct {
	Current []string
	Target  []string
}

// Kind reports which backlogs are populated.
func (r Run) Kind() Kind {
	switch {
	case len(r.Current) == 0 && len(r.Target) == 0:
		return Balanced
	case len(r.Target) == 0:
		return CurrentSide
	case len(r.Current) == 0:
		return TargetSide
	}
	return Mixed
}

// Empty reports whether neither backlog holds anything.
func (r Run) Empty() bool { return r.Kind() == Balanced }
