// kanabridgectl is the debug and maintenance CLI for the kana bridge.
// It drives the same session object the shared library exports, so the
// full composition pipeline can be exercised without a host front end.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"kanabridge/internal/bridge"
	"kanabridge/internal/candidate"
	"kanabridge/internal/config"
	"kanabridge/internal/engine"
	"kanabridge/internal/logging"
)

var (
	installPath = flag.String("install", defaultInstallPath(), "bridge base directory (settings, log, learning memory)")
	configPath  = flag.String("config", "", "settings file override (default: <install>/settings.toml)")
	withEngine  = flag.Bool("engine", false, "connect to the conversion engine instead of the offline stub")
	logLevel    = flag.String("log-level", "warn", "log level: debug, info, warn, error")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	if _, err := logging.Setup(logging.Config{Level: *logLevel, Format: "text"}); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case "repl":
		cmdRepl()
	case "convert":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: kanabridgectl convert <romaji>")
			os.Exit(1)
		}
		cmdConvert(flag.Arg(1))
	case "check-config":
		cmdCheckConfig()
	case "reset-memory":
		cmdResetMemory()
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", flag.Arg(0))
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `kanabridgectl - Debug utility for the kana bridge

Usage: kanabridgectl [options] <command> [args]

Commands:
  repl              Interactive composition session
  convert <romaji>  Compose the input and print the candidate list
  check-config      Load and validate the settings file
  reset-memory      Clear engine and local learning state
  help              Show this help message

Options:
  -install <dir>    Bridge base directory (default: ~/.kanabridge)
  -config <path>    Settings file override
  -engine           Talk to the conversion engine (default: offline stub)
  -log-level <lvl>  debug, info, warn, error (default: warn)`)
}

func defaultInstallPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kanabridge"
	}
	return filepath.Join(home, ".kanabridge")
}

func openSession() *bridge.Session {
	opts := bridge.Options{
		InstallPath:   *installPath,
		ConfigPath:    *configPath,
		EngineEnabled: *withEngine,
	}
	if !*withEngine {
		// The stub echoes the phonetic text back as one candidate, which
		// is enough to see tier ordering and learn-index behavior.
		opts.Converter = &engine.Stub{}
		opts.EngineEnabled = true
	}
	s, err := bridge.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening session: %v\n", err)
		os.Exit(1)
	}
	return s
}

func cmdConvert(input string) {
	s := openSession()
	defer s.Close()

	text, _ := s.AppendText(input)
	fmt.Printf("composed: %s\n", text)
	printCandidates(s.ComposedText())
}

func cmdCheckConfig() {
	path := *configPath
	if path == "" {
		path = filepath.Join(*installPath, "settings.toml")
	}
	store := config.NewStore(path, logging.Component("config"))
	if err := store.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg := store.Config()
	fmt.Printf("settings: %s\n", path)
	fmt.Printf("engine: enabled=%v profile=%q socket=%q\n",
		cfg.Engine.Enabled, cfg.Engine.Profile, cfg.IPC.SocketPath)
	fmt.Printf("dictionary: %d entries\n", store.Dictionary().Len())
}

func cmdResetMemory() {
	s := openSession()
	defer s.Close()
	s.ResetLearningMemory()
	fmt.Println("learning memory cleared")
}

func cmdRepl() {
	s := openSession()
	defer s.Close()

	fmt.Println("kanabridge repl; type :help for commands, :quit to exit")
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			break
		}
		line := sc.Text()
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, ":") {
			text, cur := s.AppendText(line)
			fmt.Printf("composed: %s (cursor %d)\n", text, cur)
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case ":quit", ":q":
			return
		case ":help":
			replHelp()
		case ":list", ":l":
			printCandidates(s.ComposedText())
		case ":del":
			text, cur := s.RemoveText()
			fmt.Printf("composed: %s (cursor %d)\n", text, cur)
		case ":move":
			off := intArg(fields, 1)
			cur, text := s.MoveCursor(off)
			fmt.Printf("composed: %s (cursor %d)\n", text, cur)
		case ":clear":
			s.ClearText()
			fmt.Println("cleared")
		case ":shrink":
			text, cur := s.ShrinkText(intArg(fields, 1))
			fmt.Printf("composed: %s (cursor %d)\n", text, cur)
		case ":learn":
			s.LearnCandidate(intArg(fields, 1))
		case ":context":
			s.SetContext(strings.TrimSpace(strings.TrimPrefix(line, ":context")))
		case ":forms":
			f := s.Forms()
			fmt.Printf("hiragana:      %s\n", f.Hiragana)
			fmt.Printf("katakana:      %s\n", f.Katakana)
			fmt.Printf("half katakana: %s\n", f.HalfKatakana)
			fmt.Printf("full latin:    %s\n", f.FullLatin)
			fmt.Printf("half latin:    %s\n", f.HalfLatin)
		case ":reload":
			if err := s.LoadConfig(); err != nil {
				fmt.Printf("reload failed: %v\n", err)
			} else {
				fmt.Println("settings reloaded")
			}
		default:
			fmt.Printf("unknown command %s; :help lists commands\n", fields[0])
		}
	}
}

func replHelp() {
	fmt.Println(`text         append romaji input at the cursor
:list        synthesize and print candidates
:del         delete one phonetic unit backward
:move <n>    move the cursor by a signed offset
:clear       empty the buffer (session boundary)
:shrink <n>  commit the first n phonetic units
:learn <n>   accept engine candidate n
:context <s> set surrounding-text hint
:forms       print alternate renderings
:reload      re-read the settings file
:quit        exit`)
}

func printCandidates(list []candidate.Candidate) {
	if len(list) == 0 {
		fmt.Println("no candidates")
		return
	}
	engineIdx := 0
	for i, c := range list {
		tag := sourceTag(c.Source)
		if c.Source == candidate.SourceEngine {
			tag = fmt.Sprintf("%s#%d", tag, engineIdx)
			engineIdx++
		}
		line := fmt.Sprintf("%2d [%s] %s", i, tag, c.Text)
		if c.Remainder != "" {
			line += fmt.Sprintf(" +%s", c.Remainder)
		}
		line += fmt.Sprintf("  (reading %s, consumed %d)", c.Reading, c.Consumed)
		fmt.Println(line)
	}
}

func sourceTag(src candidate.Source) string {
	switch src {
	case candidate.SourceExactDict:
		return "dict"
	case candidate.SourcePrefixDict:
		return "dict*"
	case candidate.SourceCalendar:
		return "cal"
	case candidate.SourceEngine:
		return "eng"
	default:
		return "lit"
	}
}

// intArg parses fields[i] as an int, defaulting to 0.
func intArg(fields []string, i int) int {
	if i >= len(fields) {
		return 0
	}
	n, err := strconv.Atoi(fields[i])
	if err != nil {
		fmt.Printf("bad number %q\n", fields[i])
		return 0
	}
	return n
}
