package resync

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banjo360/dump-diff/internal/linediff"
)

func TestCommonPrefixLen(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"add", "", 0},
		{"add r1, r2", "add r1, r3", 8},
		{"add", "add", 3},
		{"add", "addi", 3},
		{"mov", "add", 0},
		{"ldr", "lsl", 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q/%q", tt.a, tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, CommonPrefixLen(tt.a, tt.b))
			assert.Equal(t, tt.want, CommonPrefixLen(tt.b, tt.a))
		})
	}
}

func TestRunKind(t *testing.T) {
	assert.Equal(t, Balanced, Run{}.Kind())
	assert.True(t, Run{}.Empty())
	assert.Equal(t, CurrentSide, Run{Current: []string{"nop"}}.Kind())
	assert.Equal(t, TargetSide, Run{Target: []string{"nop"}}.Kind())
	assert.Equal(t, Mixed, Run{Current: []string{"nop"}, Target: []string{"ret"}}.Kind())
	assert.Equal(t, "mixed", Mixed.String())
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		run  Run
		want []Row
	}{
		{
			name: "balanced",
			run:  Run{},
			want: nil,
		},
		{
			name: "one-sided target drain",
			run:  Run{Target: []string{"nop", "nop"}},
			want: []Row{TargetOnly("nop"), TargetOnly("nop")},
		},
		{
			name: "one-sided current drain",
			run:  Run{Current: []string{"ret"}},
			want: []Row{CurrentOnly("ret")},
		},
		{
			name: "equal lengths zip positionally",
			run:  Run{Current: []string{"mov x0, x1", "b 0x40"}, Target: []string{"ldr x9, [sp]", "ret"}},
			want: []Row{Pair("mov x0, x1", "ldr x9, [sp]"), Pair("b 0x40", "ret")},
		},
		{
			name: "prefix anchors",
			run:  Run{Current: []string{"add r1, r2", "sub r3, r4"}, Target: []string{"add r1, r3", "sub r3, r5"}},
			want: []Row{Pair("add r1, r2", "add r1, r3"), Pair("sub r3, r4", "sub r3, r5")},
		},
		{
			name: "unequal mixed run synchronizes",
			run:  Run{Current: []string{"mov x0, x1", "add x2, x3"}, Target: []string{"add x2, x4"}},
			want: []Row{CurrentOnly("mov x0, x1"), Pair("add x2, x3", "add x2, x4")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Resolve(tt.run)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestResolveZipHasNoBlanks(t *testing.T) {
	run := Run{
		Current: []string{"a", "b", "c"},
		Target:  []string{"x", "y", "z"},
	}
	rows, err := Resolve(run)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.NotNil(t, r.Current)
		assert.NotNil(t, r.Target)
	}
}

func TestSynchronize(t *testing.T) {
	tests := []struct {
		name string
		l, r []string
		want []Row
	}{
		{
			name: "target drained up to anchor",
			l:    []string{"add x2, x3"},
			r:    []string{"mov x0, x1", "str x9, [sp]", "add x2, x4"},
			want: []Row{
				TargetOnly("mov x0, x1"),
				TargetOnly("str x9, [sp]"),
				Pair("add x2, x3", "add x2, x4"),
			},
		},
		{
			name: "current drained up to anchor",
			l:    []string{"mov x0, x1", "nop", "add x2, x3"},
			r:    []string{"add x2, x4"},
			want: []Row{
				CurrentOnly("mov x0, x1"),
				CurrentOnly("nop"),
				Pair("add x2, x3", "add x2, x4"),
			},
		},
		{
			name: "agreeing distant anchors walk current first",
			l:    []string{"ldr x1, [x0]", "str x2, [x3]"},
			r:    []string{"str x2, [x4]", "ldr x1, [x5]", "nop"},
			want: []Row{
				CurrentOnly("ldr x1, [x0]"),
				Pair("str x2, [x3]", "str x2, [x4]"),
				TargetOnly("ldr x1, [x5]"),
				TargetOnly("nop"),
			},
		},
		{
			name: "no anchor forces pairs",
			l:    []string{"aaa", "bbb"},
			r:    []string{"ccc"},
			want: []Row{Pair("aaa", "ccc"), CurrentOnly("bbb")},
		},
		{
			name: "two byte prefix is not an anchor",
			l:    []string{"bl 0x10", "ret"},
			r:    []string{"b 0x20"},
			want: []Row{Pair("bl 0x10", "b 0x20"), CurrentOnly("ret")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Synchronize(tt.l, tt.r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
			assert.NoError(t, Check(rows, tt.l, tt.r))
		})
	}
}

func TestSynchronizeOffsetMismatch(t *testing.T) {
	_, err := Synchronize(
		[]string{"abc 1", "def 1", "xyz 1"},
		[]string{"xyz 2", "abc 2"},
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOffsetMismatch)

	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Contains(t, invErr.Error(), "internal error")
}

func TestAlignEndToEnd(t *testing.T) {
	current := []string{"mov r0, 1", "add r0, r1", "ret"}
	target := []string{"mov r0, 1", "ret"}

	rows, err := Align(linediff.Diff(current, target))
	require.NoError(t, err)

	assert.Equal(t, []Row{
		Pair("mov r0, 1", "mov r0, 1"),
		CurrentOnly("add r0, r1"),
		Pair("ret", "ret"),
	}, rows)
	assert.False(t, rows[0].Mismatch())
	assert.True(t, rows[1].Mismatch())
	assert.False(t, rows[2].Mismatch())
}

func TestAlignTrailingBacklog(t *testing.T) {
	ops := []linediff.Op{
		{Tag: linediff.Equal, Text: "nop"},
		{Tag: linediff.Delete, Text: "add x0, x0, #0x1"},
		{Tag: linediff.Insert, Text: "add x0, x0, #0x2"},
		{Tag: linediff.Insert, Text: "ret"},
	}

	rows, err := Align(ops)
	require.NoError(t, err)
	assert.Equal(t, []Row{
		Pair("nop", "nop"),
		Pair("add x0, x0, #0x1", "add x0, x0, #0x2"),
		TargetOnly("ret"),
	}, rows)
}

func TestAlignShiftedListing(t *testing.T) {
	// One inserted instruction shifts every following branch target.
	current := []string{"stp x29, x30, [sp]", "b 0x100", "b 0x104", "b 0x108", "ret"}
	target := []string{"stp x29, x30, [sp]", "nop", "b 0x104", "b 0x108", "b 0x10c", "ret"}

	rows, err := Align(linediff.Diff(current, target))
	require.NoError(t, err)
	require.NoError(t, Check(rows, current, target))

	c, tg := Columns(rows)
	assert.Equal(t, len(c), len(tg))
}

func TestAlignProperties(t *testing.T) {
	vocab := []string{"nop", "ret", "add x0, x1", "add x0, x2", "sub x3, x4", "mov x5, #0x1", "mov x5, #0x2", "bl 0x40"}
	rng := rand.New(rand.NewSource(1))
	sample := func() []string {
		out := make([]string, rng.Intn(12))
		for i := range out {
			out[i] = vocab[rng.Intn(len(vocab))]
		}
		return out
	}

	for n := 0; n < 500; n++ {
		current, target := sample(), sample()
		rows, err := Align(linediff.Diff(current, target))
		if err != nil {
			// Disagreeing anchors are reported, never papered over.
			require.ErrorIs(t, err, ErrOffsetMismatch, "current=%q target=%q", current, target)
			continue
		}

		c, tg := Columns(rows)
		require.Equal(t, len(c), len(tg))
		require.NoError(t, Check(rows, current, target), "current=%q target=%q", current, target)
	}
}

func TestCheckDetectsLoss(t *testing.T) {
	rows := []Row{Pair("nop", "nop")}

	err := Check(rows, []string{"nop", "ret"}, []string{"nop"})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	err = Check([]Row{Pair("nop", "ret")}, []string{"nop"}, []string{"nop"})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestRowText(t *testing.T) {
	r := TargetOnly("ret")
	assert.Equal(t, "", r.CurrentText())
	assert.Equal(t, "ret", r.TargetText())
	assert.True(t, r.Mismatch())
	assert.False(t, Pair("a", "a").Mismatch())
}
