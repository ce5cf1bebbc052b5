package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"layerscope/internal/config"
	"layerscope/internal/model"
	"layerscope/internal/reader"
	"layerscope/internal/render"
	"layerscope/internal/tui"
	"layerscope/internal/web"
	"layerscope/internal/worker"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
)

func checkUpdate(currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      "layerscope",
		Repository: "layerscope",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Printf("\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Println("👉 Download it from https://github.com/layerscope/layerscope/releases")
	} else if pflag.Lookup("update").Changed {
		fmt.Printf("✅ You are using the latest version: %s\n", currentVer)
	}
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: layerscope [options] FILE.gcode\n\n")
		fmt.Fprintf(os.Stderr, "layerscope assembles a gcode file into layers and lets you scrub\n")
		fmt.Fprintf(os.Stderr, "through it by file position, showing the command being executed.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  layerscope part.gcode                 # Start TUI mode\n")
		fmt.Fprintf(os.Stderr, "  layerscope --report part.gcode        # Print layer report to stdout\n")
		fmt.Fprintf(os.Stderr, "  layerscope -r -o r.txt part.gcode     # Save report to file\n")
		fmt.Fprintf(os.Stderr, "  layerscope --json part.gcode          # Output model summary as JSON\n")
		fmt.Fprintf(os.Stderr, "  layerscope --at 42.5 part.gcode       # Show the command at 42.5%%\n")
		fmt.Fprintf(os.Stderr, "  layerscope --png l3.png -l 3 part.gcode\n")
	}

	jsonFlag := pflag.BoolP("json", "j", false, "Output the model summary as JSON")
	reportFlag := pflag.BoolP("report", "r", false, "Generate a layer report (CLI mode)")
	outputFlag := pflag.StringP("output", "o", "", "Save report to the specified file (combined with --report)")
	verboseFlag := pflag.BoolP("verbose", "v", false, "Include one line per layer in the report")
	atFlag := pflag.Float64P("at", "p", -1, "Resolve a file percentage (0-100) and print the command there")
	pngFlag := pflag.String("png", "", "Write a PNG of --layer to this file")
	layerFlag := pflag.IntP("layer", "l", 0, "Visible layer for --png")
	webFlag := pflag.BoolP("web", "w", false, "Start Web Mode (JSON API)")
	portFlag := pflag.String("port", web.DefaultPort, "Port for --web")
	configFlag := pflag.StringP("config", "c", "", "Options file (default ~/"+config.FileName+")")
	noPurgeFlag := pflag.Bool("no-purge", false, "Keep layers that do not extrude")
	sortFlag := pflag.BoolP("sort", "s", false, "Order layers by height")
	analyzeFlag := pflag.BoolP("analyze", "a", false, "Compute filament, speed and time statistics")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for latest version")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("layerscope version %s\n", model.Version)
		return
	}

	if *updateFlag {
		checkUpdate(model.Version)
		return
	}

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}
	path := pflag.Arg(0)

	configPath := *configFlag
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	opts, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		os.Exit(1)
	}

	var patch model.OptionsPatch
	if pflag.Lookup("no-purge").Changed {
		purge := !*noPurgeFlag
		patch.PurgeEmptyLayers = &purge
	}
	if pflag.Lookup("sort").Changed {
		patch.SortLayers = sortFlag
	}
	cliMode := *reportFlag || *jsonFlag || *webFlag
	if pflag.Lookup("analyze").Changed {
		patch.AnalyzeModel = analyzeFlag
	} else if cliMode {
		analyze := true
		patch.AnalyzeModel = &analyze
	}
	opts.Apply(patch)

	raw, err := model.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
		os.Exit(1)
	}

	w := worker.New(256)
	defer w.Close()
	canvas := render.NewCanvas()
	r := reader.New(
		reader.WithParser(w),
		reader.WithRenderer(canvas),
		reader.WithOptions(opts),
	)

	if !cliMode && *atFlag < 0 && *pngFlag == "" {
		runTuiMode(r, w, canvas, path, raw)
		return
	}

	if err := load(r, w, raw); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", path, err)
		os.Exit(1)
	}

	switch {
	case *webFlag:
		s := web.NewServer(r, canvas, web.WithSource(w, raw))
		if err := web.StartServer(s, *portFlag); err != nil {
			log.Fatal(err)
		}
	case *reportFlag:
		runReportMode(r, *outputFlag, *verboseFlag)
	case *jsonFlag:
		runJsonMode(r)
	case *pngFlag != "":
		runPngMode(r, canvas, *pngFlag, *layerFlag)
	default:
		runAtMode(r, *atFlag)
	}
}

// load parses raw on the worker and feeds the results to r until done.
func load(r *reader.Reader, w *worker.Worker, raw string) error {
	gen, err := r.LoadFile(raw)
	if err != nil {
		return err
	}
	return worker.Await(context.Background(), w, r, gen, r.Options().AnalyzeModel)
}

func runReportMode(r *reader.Reader, outputFile string, verbose bool) {
	report := reader.GenerateReport(r, verbose)

	if outputFile != "" {
		err := os.WriteFile(outputFile, []byte(report), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report to %s: %v\n", outputFile, err)
			os.Exit(1)
		}
		fmt.Printf("Report saved to %s\n", outputFile)
	} else {
		fmt.Println(report)
	}
}

func runJsonMode(r *reader.Reader) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Snapshot()); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func runAtMode(r *reader.Reader, pct float64) {
	coord, ok := r.Resolve(pct)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: no layers to resolve against")
		os.Exit(1)
	}
	approx := ""
	if coord.Approximate {
		approx = " " + model.IconApprox + " approximate"
	}
	fmt.Printf("%.2f%% -> layer %d, command %d%s\n", pct, coord.Layer, coord.Command, approx)

	lines, err := r.GCodeLines(coord.Layer, coord.Command, coord.Command)
	if err != nil {
		return
	}
	ctx := model.GetLineContext(r.Source(), lines.First, 3)
	n := ctx.FirstLine
	for _, l := range ctx.Before {
		fmt.Printf("  %6d  %s\n", n, l)
		n++
	}
	fmt.Printf("%s %6d  %s\n", model.IconCurrent, n, ctx.Target)
	for _, l := range ctx.After {
		n++
		fmt.Printf("  %6d  %s\n", n, l)
	}
}

func runPngMode(r *reader.Reader, canvas *render.Canvas, out string, layer int) {
	caption := fmt.Sprintf("%s  layer %d", filepath.Base(out), layer)
	if z, ok := r.VisibleHeight(layer); ok {
		caption += fmt.Sprintf("  z=%s", z)
	}
	opts := render.PNGOptions{Size: 1024, Travels: true, Caption: caption}
	if err := canvas.SavePNG(out, layer, -1, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", out, err)
		os.Exit(1)
	}
	fmt.Printf("Layer %d saved to %s\n", layer, out)
}

func runTuiMode(r *reader.Reader, w *worker.Worker, canvas *render.Canvas, path, raw string) {
	if os.Getenv("LAYERSCOPE_DEBUG") != "" {
		f, err := tea.LogToFile("layerscope-debug.log", "debug")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	m := tui.InitialModel(r, w, canvas, path, raw)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
