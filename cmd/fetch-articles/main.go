// fetch-articles downloads Japanese VGC team articles and stores their
// extracted text as JSON corpus files for offline parser testing.
//
// Usage: go run main.go -output=<dir> [-urls=<file>] [url ...]
//
// This tool creates:
//   - <output>/<slug>.json - One extracted article per URL
//   - <output>/index.json  - Summary of everything fetched
//
// The output format matches services.FetchResult, so corpus files can be
// replayed through the extraction chain without touching the network.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/nkashima/vgc-scout/backend/internal/services"
)

type indexEntry struct {
	URL       string `json:"url"`
	File      string `json:"file"`
	Title     string `json:"title"`
	Source    string `json:"source"`
	BodyChars int    `json:"body_chars"`
	Pokemon   int    `json:"pokemon,omitempty"`
}

// readURLFile loads one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, nil
}

// slugFromURL turns an article URL into a stable filename stem,
// e.g. "https://note.com/player/n/n1a2b3c4" -> "note-com-player-n-n1a2b3c4".
func slugFromURL(articleURL string) string {
	raw := articleURL
	if u, err := url.Parse(articleURL); err == nil && u.Host != "" {
		raw = u.Host + u.Path
	}

	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	if len(slug) > 80 {
		slug = strings.Trim(slug[:80], "-")
	}
	if slug == "" {
		slug = "article"
	}
	return slug
}

func main() {
	outputDir := flag.String("output", "", "Output directory (required)")
	urlsFile := flag.String("urls", "", "File with one article URL per line (optional)")
	rps := flag.Float64("rps", 1.0, "Fetch rate in requests per second")
	parse := flag.Bool("parse", false, "Run the offline parser over each article and report what it finds")
	flag.Parse()

	urls := flag.Args()
	if *urlsFile != "" {
		fromFile, err := readURLFile(*urlsFile)
		if err != nil {
			log.Fatalf("Failed to read URL file: %v", err)
		}
		urls = append(urls, fromFile...)
	}

	if *outputDir == "" || len(urls) == 0 {
		fmt.Println("Usage: fetch-articles -output=<dir> [-urls=<file>] [url ...]")
		fmt.Println("")
		fmt.Println("Downloads Japanese VGC team articles and writes their extracted")
		fmt.Println("text as JSON corpus files for offline parser testing.")
		fmt.Println("")
		fmt.Println("Options:")
		fmt.Println("  -output  Output directory for JSON files")
		fmt.Println("  -urls    File with one article URL per line (# for comments)")
		fmt.Println("  -rps     Fetch rate in requests per second (default 1)")
		fmt.Println("  -parse   Run the offline parser over each fetched article")
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// Daily limit sized to the URL list; the limiter inside the fetcher
	// paces requests, so no sleeps are needed here.
	fetcher := services.NewArticleFetcherService(*rps, len(urls)+1)

	seen := make(map[string]bool)
	var index []indexEntry

	for i, articleURL := range urls {
		if seen[articleURL] {
			log.Printf("[%d/%d] Skipping duplicate %s", i+1, len(urls), articleURL)
			continue
		}
		seen[articleURL] = true

		log.Printf("[%d/%d] Fetching %s...", i+1, len(urls), articleURL)

		result, err := fetcher.Fetch(context.Background(), articleURL)
		if err != nil {
			log.Printf("Warning: failed to fetch %s: %v", articleURL, err)
			continue
		}

		entry := indexEntry{
			URL:       result.URL,
			File:      slugFromURL(articleURL) + ".json",
			Title:     result.Title,
			Source:    string(result.Source),
			BodyChars: result.BodyChars,
		}

		if *parse {
			team := services.ParseArticle(result.BodyText)
			entry.Pokemon = len(team.Pokemon)
			if len(team.Pokemon) > 0 {
				log.Printf("  Parser: %d pokemon (regulation %q, conf=%.2f)",
					len(team.Pokemon), team.Regulation, team.Confidence)
			} else {
				log.Printf("  Parser: no team found")
			}
		}

		resultJSON, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Printf("Warning: failed to marshal %s: %v", articleURL, err)
			continue
		}

		outFile := filepath.Join(*outputDir, entry.File)
		if err := os.WriteFile(outFile, resultJSON, 0644); err != nil {
			log.Printf("Warning: failed to write %s: %v", outFile, err)
			continue
		}

		log.Printf("  Wrote %s (%d chars, %d images)", outFile, result.BodyChars, len(result.Images))
		index = append(index, entry)
	}

	if len(index) == 0 {
		log.Fatal("No articles fetched")
	}

	indexJSON, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal index: %v", err)
	}
	indexFile := filepath.Join(*outputDir, "index.json")
	if err := os.WriteFile(indexFile, indexJSON, 0644); err != nil {
		log.Fatalf("Failed to write index file: %v", err)
	}
	log.Printf("Wrote %s (%d articles)", indexFile, len(index))

	log.Println("Done!")
}
