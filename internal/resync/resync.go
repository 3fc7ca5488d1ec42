package resync

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/banjo360/dump-diff/internal/linediff"
)

// minAnchor is the shortest common prefix that marks two lines as the same
// instruction with different operands.
const minAnchor = 3

var (
	ErrOffsetMismatch = errors.New("prefix anchors disagree")
	ErrNoProgress     = errors.New("synchronization made no progress")
	ErrLengthMismatch = errors.New("aligned columns differ in length")
)

// InvariantError reports an internal consistency failure of the realigner.
// It never results from input data.
type InvariantError struct {
	Err    error
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal error: %v (%s)", e.Err, e.Detail)
}

func (e *InvariantError) Unwrap() error { return e.Err }

func invariant(err error, format string, args ...any) error {
	return &InvariantError{Err: err, Detail: fmt.Sprintf(format, args...)}
}

// Align turns a tagged edit script into aligned rows. Deletes and inserts
// between two equal lines form a Run that is resolved before the equal row.
func Align(ops []linediff.Op) ([]Row, error) {
	rows := make([]Row, 0, len(ops))
	var run Run

	flush := func() error {
		resolved, err := Resolve(run)
		if err != nil {
			return err
		}
		rows = append(rows, resolved...)
		run = Run{}
		return nil
	}

	for _, op := range ops {
		switch op.Tag {
		case linediff.Equal:
			if err := flush(); err != nil {
				return nil, err
			}
			rows = append(rows, Pair(op.Text, op.Text))
		case linediff.Delete:
			run.Current = append(run.Current, op.Text)
		case linediff.Insert:
			run.Target = append(run.Target, op.Text)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Resolve aligns one Run. Equal-length backlogs are zipped positionally,
// a one-sided backlog is padded with blanks, and unequal mixed backlogs go
// through Synchronize.
func Resolve(run Run) ([]Row, error) {
	switch run.Kind() {
	case Balanced:
		return nil, nil
	case CurrentSide:
		rows := make([]Row, 0, len(run.Current))
		for _, c := range run.Current {
			rows = append(rows, CurrentOnly(c))
		}
		return rows, nil
	case TargetSide:
		rows := make([]Row, 0, len(run.Target))
		for _, t := range run.Target {
			rows = append(rows, TargetOnly(t))
		}
		return rows, nil
	}

	if len(run.Current) == len(run.Target) {
		rows := make([]Row, len(run.Current))
		for i := range run.Current {
			rows[i] = Pair(run.Current[i], run.Target[i])
		}
		return rows, nil
	}

	slog.Debug("Synchronizing mixed run", "current", len(run.Current), "target", len(run.Target))
	return Synchronize(run.Current, run.Target)
}

// Synchronize interleaves a current backlog l with a target backlog r,
// pairing lines that share a common prefix of at least three bytes and
// padding the lines that sit between anchors.
func Synchronize(l, r []string) ([]Row, error) {
	rows := make([]Row, 0, max(len(l), len(r)))
	i, j := 0, 0

	for i < len(l) && j < len(r) {
		oi, oj := i, j
		pl := anchor(l[i:], r[j])
		pr := anchor(r[j:], l[i])

		switch {
		case pl >= 0 && pr >= 0:
			if pl != pr {
				return nil, invariant(ErrOffsetMismatch, "current offset %d, target offset %d at (%d, %d)", pl, pr, i, j)
			}
			if pl == 0 {
				rows = append(rows, Pair(l[i], r[j]))
				i++
				j++
			} else {
				rows = append(rows, CurrentOnly(l[i]))
				i++
			}
		case pr >= 0:
			for end := j + pr; j < end; j++ {
				rows = append(rows, TargetOnly(r[j]))
			}
		case pl >= 0:
			for end := i + pl; i < end; i++ {
				rows = append(rows, CurrentOnly(l[i]))
			}
		default:
			rows = append(rows, Pair(l[i], r[j]))
			i++
			j++
		}

		if i == oi && j == oj {
			return nil, invariant(ErrNoProgress, "cursors stuck at (%d, %d)", i, j)
		}
	}

	for ; i < len(l); i++ {
		rows = append(rows, CurrentOnly(l[i]))
	}
	for ; j < len(r); j++ {
		rows = append(rows, TargetOnly(r[j]))
	}
	return rows, nil
}

// anchor returns the offset of the first line in lines sharing at least
// minAnchor leading bytes with s, or -1.
func anchor(lines []string, s string) int {
	for k, line := range lines {
		if CommonPrefixLen(line, s) >= minAnchor {
			return k
		}
	}
	return -1
}

// CommonPrefixLen returns the number of leading bytes a and b share.
func CommonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for k := 0; k < n; k++ {
		if a[k] != b[k] {
			return k
		}
	}
	return n
}

// Check verifies that rows project onto columns of equal length and that
// the columns reproduce the input sequences once blanks are dropped.
func Check(rows []Row, current, target []string) error {
	var nc, nt int
	for _, r := range rows {
		if r.Current != nil {
			if nc >= len(current) || *r.Current != current[nc] {
				return invariant(ErrLengthMismatch, "current column diverges at line %d", nc)
			}
			nc++
		}
		if r.Target != nil {
			if nt >= len(target) || *r.Target != target[nt] {
				return invariant(ErrLengthMismatch, "target column diverges at line %d", nt)
			}
			nt++
		}
	}
	if nc != len(current) || nt != len(target) {
		return invariant(ErrLengthMismatch, "aligned %d/%d current and %d/%d target lines", nc, len(current), nt, len(target))
	}
	return nil
}
