package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/banjo360/dump-diff/internal/compare"
	"github.com/banjo360/dump-diff/internal/config"
	"github.com/banjo360/dump-diff/internal/disasm"
	"github.com/banjo360/dump-diff/internal/dumpdiff/log"
	"github.com/banjo360/dump-diff/internal/report"
	"github.com/banjo360/dump-diff/internal/resync"
	"github.com/banjo360/dump-diff/internal/source"
	"github.com/banjo360/dump-diff/internal/ui/colorize"
	"github.com/banjo360/dump-diff/internal/ui/viewer"
)

// NewRootCmd builds the dump-diff command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dump-diff",
		Short: "Compare two machine-code dumps instruction by instruction",
		Long: `dump-diff disassembles two binary blobs and prints them side by side,
realigning the listings after insertions and deletions so that matching
instructions stay on the same row. Rows that differ are marked.`,
		Example: `
# Compare two raw AArch64 dumps loaded at 0x80000000
dump-diff -t original.bin -c rebuilt.bin -x 0x80000000 -a arm64

# Compare 0x200 bytes starting at file offsets
dump-diff -t rom.bin:0x1000 -c build.bin:0x1000 -l 0x200 -x 0x1000 -a ppc64 -e big

# Compare one function in two ELF files
dump-diff -t ref.elf -c out.elf -s main -a arm64 -f markdown
  `,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCompare,
	}

	rootCmd.Flags().StringP("target", "t", "", "Reference blob as path[:offset]")
	rootCmd.Flags().StringP("current", "c", "", "Blob to compare as path[:offset]")
	rootCmd.Flags().StringP("addr", "x", "", "Base virtual address (hex with 0x or decimal)")
	rootCmd.Flags().StringP("length", "l", "", "Bytes to read from each input (default: to end of file)")
	rootCmd.Flags().StringP("arch", "a", "", fmt.Sprintf("Architecture (%v)", disasm.Architectures()))
	rootCmd.Flags().StringP("mode", "m", "", "Decode mode (default: the architecture's first mode)")
	rootCmd.Flags().StringP("endianness", "e", "little", "Byte order: little or big")
	rootCmd.Flags().StringP("symbol", "s", "", "Compare the named ELF function in both files")
	rootCmd.Flags().StringP("format", "f", "text", fmt.Sprintf("Output format %v", report.Formats()))
	rootCmd.Flags().Bool("no-color", false, "Disable colored output")
	rootCmd.Flags().Bool("tui", false, "Browse the result in an interactive viewer")
	rootCmd.PersistentFlags().String("config", "", "YAML config file (default: $"+config.EnvPath+" or "+config.FileName+")")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	_ = rootCmd.MarkFlagRequired("target")
	_ = rootCmd.MarkFlagRequired("current")

	rootCmd.AddCommand(newSchemaCmd())
	return rootCmd
}

// settings is the flag/config merge for one invocation.
type settings struct {
	current    source.Spec
	target     source.Spec
	addr       *uint32
	length     *uint64
	arch       string
	mode       string
	endianness string
	symbol     string
	format     string
	color      bool
	tui        bool
}

func runCompare(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.Find(configPath))
	if err != nil {
		return err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	log.Setup(debug || cfg.Debug)

	s, err := resolveSettings(cmd, cfg)
	if err != nil {
		return err
	}

	decoder, err := disasm.New(s.arch, s.mode, s.endianness)
	if err != nil {
		return err
	}

	slog.Debug("Comparing", "current", s.current, "target", s.target,
		"arch", decoder.Arch(), "mode", decoder.Mode(), "symbol", s.symbol)

	res, err := compare.Run(compare.Options{
		Current: s.current,
		Target:  s.target,
		Addr:    s.addr,
		Length:  s.length,
		Symbol:  s.symbol,
		Decoder: decoder,
	})
	if err != nil {
		var invariant *resync.InvariantError
		if errors.As(err, &invariant) {
			slog.Error("Alignment aborted", "error", err)
		}
		return err
	}

	if s.tui {
		return viewer.Run(cmd.Context(), res, s.color)
	}

	out := cmd.OutOrStdout()
	renderer, err := report.New(s.format, report.Options{Color: s.color, Width: terminalWidth(out)})
	if err != nil {
		return err
	}
	return renderer.Render(out, res)
}

func resolveSettings(cmd *cobra.Command, cfg *config.Config) (*settings, error) {
	s := &settings{
		arch:       stringSetting(cmd, "arch", cfg.Arch),
		mode:       stringSetting(cmd, "mode", cfg.Mode),
		endianness: stringSetting(cmd, "endianness", cfg.Endianness),
		format:     stringSetting(cmd, "format", cfg.Format),
	}
	s.symbol, _ = cmd.Flags().GetString("symbol")
	s.tui, _ = cmd.Flags().GetBool("tui")

	if s.arch == "" {
		return nil, errors.New("--arch is required")
	}

	for _, side := range []struct {
		flag string
		spec *source.Spec
	}{{"current", &s.current}, {"target", &s.target}} {
		arg, _ := cmd.Flags().GetString(side.flag)
		spec, err := source.ParseSpec(arg)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", side.flag, err)
		}
		if s.symbol != "" && spec.Offset != 0 {
			return nil, fmt.Errorf("--%s: an offset cannot be combined with --symbol", side.flag)
		}
		*side.spec = spec
	}

	if addr := stringSetting(cmd, "addr", cfg.Addr); addr != "" {
		v, err := source.ParseUint(addr, 32)
		if err != nil {
			return nil, fmt.Errorf("--addr: %w", err)
		}
		a := uint32(v)
		s.addr = &a
	} else if s.symbol == "" {
		return nil, errors.New("--addr is required unless --symbol is given")
	}

	if length := stringSetting(cmd, "length", cfg.Length); length != "" {
		v, err := source.ParseUint(length, 64)
		if err != nil {
			return nil, fmt.Errorf("--length: %w", err)
		}
		s.length = &v
	}

	s.color = useColor(cmd, cfg)
	if s.tui && !isTerminal(cmd.OutOrStdout()) {
		return nil, errors.New("--tui requires a terminal")
	}
	return s, nil
}

// stringSetting returns the flag value when given explicitly, else the
// config value, else the flag default.
func stringSetting(cmd *cobra.Command, name, fromConfig string) string {
	v, _ := cmd.Flags().GetString(name)
	if cmd.Flags().Changed(name) || fromConfig == "" {
		return v
	}
	return fromConfig
}

func useColor(cmd *cobra.Command, cfg *config.Config) bool {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		return false
	}
	if cfg.Color != nil && !*cfg.Color {
		return false
	}
	if colorize.Disabled() {
		return false
	}
	return isTerminal(cmd.OutOrStdout())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(f.Fd())
	if err != nil {
		return 0
	}
	return width
}

func Execute() {
	rootCmd := NewRootCmd()

	// Piped output bypasses fang so the report stays plain.
	if !term.IsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
