// Command shopframe is a developer tool for the shopframe library: it
// generates checkout documents, decodes saved result payloads, and probes
// saved checkout pages through the extraction pipeline.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/shopframe/shopframe/pkg/config"
	"github.com/shopframe/shopframe/pkg/extract"
	"github.com/shopframe/shopframe/pkg/license"
	"github.com/shopframe/shopframe/pkg/page"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "page":
		err = runPage(os.Args[2:])
	case "parse":
		err = runParse(os.Args[2:])
	case "probe":
		err = runProbe(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: shopframe <command> [flags]

commands:
  page    generate the checkout document for a product
  parse   decode a saved result payload into license records
  probe   run a saved checkout page through extraction and parsing`)
}

func runPage(args []string) error {
	fs := flag.NewFlagSet("page", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a shopframe config file")
	storeFront := fs.String("storefront", "", "storefront identifier")
	product := fs.String("product", "", "product path")
	quantity := fs.Int("quantity", 1, "quantity to pre-configure")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *product == "" {
		return fmt.Errorf("-product is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	store := *storeFront
	if store == "" {
		store = cfg.Provider.StoreFront
	}

	builder := page.NewBuilder(cfg.Provider.WidgetScriptURL)
	doc := builder.Build(store, *product, *quantity)
	fmt.Print(doc.HTML)
	return nil
}

func runParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	payloadPath := fs.String("payload", "-", "payload file, or - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := readInput(*payloadPath)
	if err != nil {
		return err
	}
	return printOutcome(payload)
}

func runProbe(args []string) error {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a shopframe config file")
	pagePath := fs.String("page", "-", "saved checkout page, or - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	html, err := readInput(*pagePath)
	if err != nil {
		return err
	}
	payload, err := extract.ReadContainer(html, cfg.Provider.ContainerSelector)
	if err != nil {
		return err
	}
	return printOutcome(payload)
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printOutcome(payload string) error {
	outcome, err := license.Parse(payload)
	if err != nil {
		return err
	}
	if !outcome.Completed {
		fmt.Println("no completed order in payload")
		return nil
	}
	out, err := json.MarshalIndent(outcome.Records, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
