// cmd/sassgo is the command-line frontend: argument parsing grounded on
// the teacher's own plain os.Args scanning loop (cmd/esbuild/main.go),
// now compiling Sass instead of bundling JavaScript.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/sassgo/sassgo/internal/compiler"
	"github.com/sassgo/sassgo/internal/embedded"
	"github.com/sassgo/sassgo/internal/importer"
	"github.com/sassgo/sassgo/internal/logger"
	"github.com/sassgo/sassgo/internal/sasserr"
)

const version = "0.1.0"

var helpText = `
Usage:
  sassgo [options] <input> [output]
  sassgo --stdin [options] [output]

Options:
  --style=expanded|compressed   Output style (default expanded)
  --load-path=DIR                Add DIR to the list of paths searched by
                                  @use/@forward/@import (repeatable)
  --source-map                   Emit a "/*# sourceMappingURL=... */" comment
                                  with an embedded source map
  --charset                      Prefix a UTF-8 BOM when the output contains
                                  non-ASCII characters
  --quiet-deps                   Accepted, but no warning is treated as
                                  coming from a dependency, so it
                                  silences nothing
  --quiet                        Silence all warnings (errors still print)
  --verbose                      Disable warning-repetition limiting and
                                  print humanized compile stats
  --color=auto|always|never      Force or suppress colorized diagnostics
                                  (default auto: color when stdout is a TTY)
  --stdin                        Read the input stylesheet from stdin
  --trace=FILE                   Write a Go execution trace to FILE
  --cpuprofile=FILE              Write a CPU profile to FILE
  --service=VERSION               Run as an embedded-protocol host over stdio
  --help                         Print this message
  --version                     Print the version number and exit

A .sassgorc.yaml file in the working directory, if present, supplies
defaults for style/load-path/source-map/charset/quiet-deps that the
above flags override. A .env file, if present, is loaded before flags
are parsed; SASS_PATH there (colon-separated) seeds the load-path list.
`

// fileConfig is .sassgorc.yaml's shape, grounded on the same
// gopkg.in/yaml.v2 library the rest of the corpus uses for config
// files -- flags always take precedence over a value set here.
type fileConfig struct {
	Style     string   `yaml:"style"`
	LoadPath  []string `yaml:"load_path"`
	SourceMap bool     `yaml:"source_map"`
	Charset   bool     `yaml:"charset"`
	QuietDeps bool     `yaml:"quiet_deps"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(osArgs []string) int {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "sassgo: failed to load .env: %s\n", err)
	}

	cfg, err := loadFileConfig(".sassgorc.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "sassgo: failed to read .sassgorc.yaml: %s\n", err)
		return sasserr.KindUsage.ExitCode()
	}

	var (
		styleFlag      = cfg.Style
		loadPaths      = append([]string{}, cfg.LoadPath...)
		sourceMap      = cfg.SourceMap
		charset        = cfg.Charset
		quietDeps      = cfg.QuietDeps
		quiet          bool
		verbose        bool
		colorMode      = "auto"
		readFromStdin  bool
		traceFile      string
		cpuprofileFile string
		serviceVersion string
		positional     []string
	)

	if sassPath := os.Getenv("SASS_PATH"); sassPath != "" {
		loadPaths = append(loadPaths, strings.Split(sassPath, string(os.PathListSeparator))...)
	}

	for _, arg := range osArgs {
		switch {
		case arg == "-h", arg == "--help":
			fmt.Print(helpText)
			return 0
		case arg == "--version":
			fmt.Println(version)
			return 0
		case strings.HasPrefix(arg, "--style="):
			styleFlag = arg[len("--style="):]
		case strings.HasPrefix(arg, "--load-path="):
			loadPaths = append(loadPaths, arg[len("--load-path="):])
		case arg == "--source-map":
			sourceMap = true
		case arg == "--charset":
			charset = true
		case arg == "--quiet-deps":
			quietDeps = true
		case arg == "--quiet":
			quiet = true
		case arg == "--verbose":
			verbose = true
		case strings.HasPrefix(arg, "--color="):
			colorMode = arg[len("--color="):]
		case arg == "--stdin":
			readFromStdin = true
		case strings.HasPrefix(arg, "--trace="):
			traceFile = arg[len("--trace="):]
		case strings.HasPrefix(arg, "--cpuprofile="):
			cpuprofileFile = arg[len("--cpuprofile="):]
		case strings.HasPrefix(arg, "--service="):
			serviceVersion = arg[len("--service="):]
		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(os.Stderr, "sassgo: unknown flag %q\n", arg)
			return sasserr.KindUsage.ExitCode()
		default:
			positional = append(positional, arg)
		}
	}

	if serviceVersion != "" {
		if serviceVersion != version {
			fmt.Fprintf(os.Stderr, "sassgo: host version %q does not match binary version %q\n", serviceVersion, version)
			return sasserr.KindUsage.ExitCode()
		}
		return runService()
	}

	setColorMode(colorMode)

	if traceFile != "" {
		if done := createTraceFile(traceFile); done != nil {
			defer done()
		}
	}
	if cpuprofileFile != "" {
		if done := createCpuprofileFile(cpuprofileFile); done != nil {
			defer done()
		}
	}

	opts := compiler.Options{
		SourceMap:       sourceMap,
		Charset:         charset,
		QuietDeps:       quietDeps,
		LimitRepetition: !verbose,
	}
	opts.Style.Compressed = styleFlag == "compressed"
	if len(loadPaths) > 0 {
		opts.Importers = []importer.Importer{importer.NewFSImporter(loadPaths)}
	}

	log := logger.NewDeferLog()
	opts.Log = log

	start := time.Now()
	var result compiler.CompileResult
	var compileErr error

	switch {
	case readFromStdin:
		data, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "sassgo: failed to read stdin: %s\n", readErr)
			return sasserr.KindFilesystem.ExitCode()
		}
		result, compileErr = compiler.CompileString(string(data), opts)
	case len(positional) >= 1:
		result, compileErr = compiler.Compile(positional[0], opts)
	default:
		fmt.Fprint(os.Stderr, helpText)
		return sasserr.KindUsage.ExitCode()
	}

	if !quiet {
		printDiagnostics(log)
	}

	if compileErr != nil {
		printError(compileErr)
		if se, ok := compileErr.(*sasserr.Error); ok {
			return se.Kind.ExitCode()
		}
		return 1
	}

	output := ""
	if readFromStdin && len(positional) >= 1 {
		output = positional[0]
	} else if !readFromStdin && len(positional) >= 2 {
		output = positional[1]
	}
	if err := writeOutput(output, result.CSS); err != nil {
		fmt.Fprintf(os.Stderr, "sassgo: %s\n", err)
		return sasserr.KindFilesystem.ExitCode()
	}

	if verbose {
		printVerboseStats(result, time.Since(start))
	}
	return 0
}

func writeOutput(output string, css string) error {
	if output != "" {
		return os.WriteFile(output, []byte(css), 0o644)
	}
	_, err := fmt.Print(css)
	return err
}

func setColorMode(mode string) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		color.NoColor = !logger.GetTerminalInfo(os.Stdout).IsTTY
	}
}

func printDiagnostics(log logger.Log) {
	for _, msg := range log.Done() {
		if msg.Kind == logger.Warning {
			color.New(color.FgYellow).Fprintf(os.Stderr, "warning: %s\n", msg.Data.Text)
		}
	}
}

func printError(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: ")
	fmt.Fprintf(os.Stderr, "%s\n", err)
}

func printVerboseStats(result compiler.CompileResult, elapsed time.Duration) {
	fmt.Fprintf(os.Stderr, "compiled %s (%s) in %s\n",
		plural(len(result.LoadedURLs), "file", "files"),
		humanize.Bytes(uint64(len(result.CSS))),
		elapsed.Round(time.Millisecond))
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}

// runService runs this process as an embedded-protocol host over
// stdio, compiling one request per CompileRequest frame it receives
// (spec section 4.7), until stdin closes.
func runService() int {
	transport := embedded.NewStdioTransport(os.Stdin, os.Stdout, nil)
	dispatcher := embedded.NewDispatcher(transport, embedded.CompileHandler)
	if err := dispatcher.Run(); err != nil && err != io.EOF {
		return sasserr.KindProtocol.ExitCode()
	}
	return 0
}
