package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/canopyforms/dd1750/internal/bom"
	"github.com/canopyforms/dd1750/internal/generate"
)

var (
	templatePath = flag.String("template", "", "Path to the blank form template PDF (required unless -dry-run)")
	outPath      = flag.String("out", "DD1750_OUTPUT.pdf", "Path for the generated PDF")
	startPage    = flag.Int("start-page", 0, "First page of the listing to read, zero-based")
	profile      = flag.String("profile", "standard", "Form geometry profile: standard, compact")
	label        = flag.String("label", "", "Identifier sub-label prefix, defaults to 'NSN: '")
	qtyCeiling   = flag.Int("qty-ceiling", 99999, "Largest quantity accepted from a listing line")
	requireID    = flag.Bool("require-identifier", false, "Discard items that have no stock number")
	maxFileSize  = flag.Int64("max-file-size", 50*1024*1024, "Maximum input file size in bytes")
	dryRun       = flag.Bool("dry-run", false, "Extract items without rendering a form")
	outputFormat = flag.String("format", "text", "Output format for extracted items: text, json")
	verbose      = flag.Bool("verbose", false, "Enable verbose output")
	help         = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: listing PDF path required\n\n")
		printUsage()
		os.Exit(1)
	}

	bomPath := flag.Arg(0)
	if _, err := os.Stat(bomPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found: %s\n", bomPath)
		os.Exit(1)
	}

	extractCfg := bom.DefaultConfig()
	extractCfg.QtyCeiling = *qtyCeiling
	extractCfg.RequireIdentifier = *requireID

	svc := generate.NewService(*maxFileSize, extractCfg)

	if *dryRun {
		runExtractOnly(svc, bomPath)
		return
	}

	if *templatePath == "" {
		fmt.Fprintf(os.Stderr, "Error: -template is required unless -dry-run is set\n\n")
		printUsage()
		os.Exit(1)
	}

	result, err := svc.Convert(generate.ConvertRequest{
		BOMPath:      bomPath,
		TemplatePath: *templatePath,
		StartPage:    *startPage,
		Profile:      *profile,
		Label:        *label,
	})
	if err != nil {
		var noItems *generate.NoItemsError
		if errors.As(err, &noItems) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", noItems)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*outPath, result.PDF, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s: %d items across %d pages\n", *outPath, result.ItemCount, result.PageCount)
	if *verbose {
		printItems(result.Items)
	}
}

func runExtractOnly(svc *generate.Service, bomPath string) {
	result, err := svc.ExtractOnly(bomPath, *startPage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("Extracted %d items (%s)\n", result.ItemCount, result.ContentType)
		printItems(result.Items)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format: %s\n", *outputFormat)
		os.Exit(1)
	}
}

func printItems(items []bom.ItemRecord) {
	for _, item := range items {
		if item.Identifier != "" {
			fmt.Printf("%4d  %-50s %-12s qty %d\n", item.Seq, item.Description, item.Identifier, item.Quantity)
		} else {
			fmt.Printf("%4d  %-50s %-12s qty %d\n", item.Seq, item.Description, "-", item.Quantity)
		}
	}
}

func printHelp() {
	fmt.Println("dd1750 - Generate a DD Form 1750 packing list from a bill-of-materials PDF")
	fmt.Println()
	fmt.Println("The tool reads a parts listing exported as a text-searchable PDF, extracts")
	fmt.Println("item descriptions, stock numbers, and quantities, and stamps them onto a")
	fmt.Println("blank DD 1750 template.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -template           Blank form template PDF (required unless -dry-run)")
	fmt.Println("  -out                Output path (default DD1750_OUTPUT.pdf)")
	fmt.Println("  -start-page         First listing page to read, zero-based")
	fmt.Println("  -profile            Form geometry profile: standard (default), compact")
	fmt.Println("  -label              Identifier sub-label prefix, defaults to 'NSN: '")
	fmt.Println("  -qty-ceiling        Largest quantity accepted from a listing line")
	fmt.Println("  -require-identifier Discard items that have no stock number")
	fmt.Println("  -dry-run            Extract items without rendering a form")
	fmt.Println("  -format             Output format for -dry-run: text (default), json")
	fmt.Println("  -verbose            Print extracted items after rendering")
	fmt.Println("  -help               Show this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  dd1750 -template dd1750.pdf listing.pdf")
	fmt.Println("  dd1750 -template dd1750.pdf -out packing_list.pdf -start-page 1 listing.pdf")
	fmt.Println("  dd1750 -dry-run -format json listing.pdf")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  dd1750 [OPTIONS] <listing_pdf>")
}
