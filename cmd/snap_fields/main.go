// Command snap_fields runs the field extraction pipeline on a single PDF
// and prints the result.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fieldsnap/fieldsnap/internal/estimate"
	"github.com/fieldsnap/fieldsnap/internal/extract"
	"github.com/fieldsnap/fieldsnap/internal/pipeline"
	"github.com/fieldsnap/fieldsnap/internal/snap"
)

var (
	outputFormat = flag.String("format", "text", "Output format: text, json")
	imageDir     = flag.String("images", "", "Directory with rendered page rasters named page-<n>.png or page-<n>.jpg")
	geminiModel  = flag.String("model", "gemini-2.5-flash", "Gemini model used for field estimation")
	pageRetries  = flag.Int("retries", 1, "Sequential retries for a failed page")
	timeout      = flag.Duration("timeout", 90*time.Second, "Timeout per estimator call")
	verbose      = flag.Bool("verbose", false, "Enable verbose output")
	help         = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: PDF file path required\n\n")
		printUsage()
		os.Exit(1)
	}

	pdfPath := flag.Arg(0)
	pdfData, err := os.ReadFile(pdfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read %s: %v\n", pdfPath, err)
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	apiKey := os.Getenv("FIELDSNAP_GEMINI_API_KEY")
	if apiKey == "" {
		logger.Warn("FIELDSNAP_GEMINI_API_KEY not set, pages will degrade to empty field lists")
	}

	pageCount, err := extract.PageCount(pdfData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open PDF: %v\n", err)
		os.Exit(1)
	}

	inputs := make([]pipeline.PageInput, pageCount)
	for i := range inputs {
		inputs[i] = pipeline.PageInput{PageNumber: i + 1}
		if *imageDir != "" {
			loadPageImage(*imageDir, &inputs[i], logger)
		}
	}

	estimator := estimate.NewGeminiEstimator(apiKey, *geminiModel, *timeout)
	svc := pipeline.NewService(estimator, snap.DefaultOptions(), *pageRetries, logger)

	result, err := svc.ExtractDocument(context.Background(), pdfData, inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: extraction failed: %v\n", err)
		os.Exit(1)
	}

	if err := outputResults(pdfPath, result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to output results: %v\n", err)
		os.Exit(1)
	}
}

func loadPageImage(dir string, in *pipeline.PageInput, logger *log.Logger) {
	for _, ext := range []string{"png", "jpg", "jpeg"} {
		p := filepath.Join(dir, fmt.Sprintf("page-%d.%s", in.PageNumber, ext))
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			logger.Warn("failed to decode page raster", "path", p, "error", err)
			return
		}
		in.Image = img
		in.ImageData = data
		if ext == "png" {
			in.ImageMIME = "image/png"
		} else {
			in.ImageMIME = "image/jpeg"
		}
		return
	}
}

func outputResults(path string, result *pipeline.DocumentResult) error {
	switch *outputFormat {
	case "json":
		return outputJSON(result)
	case "text":
		return outputText(path, result)
	default:
		return fmt.Errorf("unsupported output format: %s", *outputFormat)
	}
}

func outputJSON(result *pipeline.DocumentResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputText(path string, result *pipeline.DocumentResult) error {
	out := io.Writer(os.Stdout)
	fmt.Fprintf(out, "Extracted %d field(s) from %s\n\n", result.TotalFields, path)

	for _, page := range result.Pages {
		fmt.Fprintf(out, "Page %d", page.Page)
		if page.Degraded {
			fmt.Fprintf(out, " (degraded)")
		}
		if page.ScaleCorrected {
			fmt.Fprintf(out, " (scale corrected)")
		}
		fmt.Fprintf(out, ": %d field(s)\n", len(page.Fields))
		fmt.Fprintf(out, "  snapped: widget=%d word=%d vector=%d cv=%d rect=%d unsnapped=%d\n",
			page.Stats.Widget, page.Stats.Word, page.Stats.VectorLine,
			page.Stats.CVLine, page.Stats.Rect, page.Stats.Unsnapped)
		if page.Stats.Prefilled > 0 || page.Stats.Deduped > 0 {
			fmt.Fprintf(out, "  removed: prefilled=%d deduped=%d\n", page.Stats.Prefilled, page.Stats.Deduped)
		}

		for i, f := range page.Fields {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, f.Label)
			fmt.Fprintf(out, "      Type: %s\n", f.Type)
			fmt.Fprintf(out, "      Position: left=%.2f top=%.2f width=%.2f height=%.2f\n",
				f.Coordinates.Left, f.Coordinates.Top, f.Coordinates.Width, f.Coordinates.Height)
			if f.GroupLabel != "" {
				fmt.Fprintf(out, "      Group: %s\n", f.GroupLabel)
			}
			if len(f.Options) > 0 {
				fmt.Fprintf(out, "      Options: %d\n", len(f.Options))
			}
			if f.FromTable {
				fmt.Fprintf(out, "      From table expansion\n")
			}
		}
		fmt.Fprintln(out)
	}

	return nil
}

func printHelp() {
	fmt.Println("snap_fields - Extract and snap form field geometry from a PDF document")
	fmt.Println()
	fmt.Println("Runs vision-model field estimation against the document's real geometry:")
	fmt.Println("AcroForm widgets, vector ruling lines, rasterized lines, and word boxes.")
	fmt.Println("Estimated coordinates are normalized, expanded, snapped, and deduplicated.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -format    Output format: text (default), json")
	fmt.Println("  -images    Directory with page rasters (page-<n>.png), used for CV line")
	fmt.Println("             detection and sent to the vision estimator")
	fmt.Println("  -model     Gemini model name")
	fmt.Println("  -retries   Sequential retries for a failed page")
	fmt.Println("  -timeout   Timeout per estimator call")
	fmt.Println("  -verbose   Enable verbose output")
	fmt.Println("  -help      Show this help message")
	fmt.Println()
	fmt.Println("ENVIRONMENT:")
	fmt.Println("  FIELDSNAP_GEMINI_API_KEY   API key for the vision estimator")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  snap_fields document.pdf")
	fmt.Println("  snap_fields -format json -images ./renders document.pdf")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  snap_fields [OPTIONS] <pdf_file>")
}
