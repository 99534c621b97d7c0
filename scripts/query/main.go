package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"LteFlowReport/internal/config"
	"LteFlowReport/internal/query"
)

func main() {
	mode := flag.String("mode", "api", "Query mode: 'api' to query via HTTP API, 'direct' to query ClickHouse directly.")
	apiBase := flag.String("api", "http://localhost:8080", "API base URL")
	metric := flag.String("metric", "", "print one listing (throughput, jitter, lost) instead of the full report")
	limit := flag.Int("n", 10, "number of recent runs to list in direct mode")
	host := flag.String("host", "localhost", "ClickHouse host")
	port := flag.Int("port", 9000, "ClickHouse native port")
	user := flag.String("user", "default", "ClickHouse user")
	password := flag.String("password", "", "ClickHouse password")
	flag.Parse()

	log.Printf("Running in '%s' mode.", *mode)

	switch *mode {
	case "api":
		queryViaAPI(*apiBase, *metric)
	case "direct":
		cfg := config.ClickHouseConfig{Host: *host, Port: *port, Database: "default", Username: *user, Password: *password}
		directQueryClickHouse(cfg, *limit)
	default:
		log.Fatalf("Invalid mode: %s. Use 'api' or 'direct'.", *mode)
	}
}

func queryViaAPI(base, metric string) {
	url := base + "/api/v1/reports/latest"
	if metric != "" {
		url += "/" + metric
	}
	log.Printf("Sending request to %s", url)

	resp, err := http.Get(url)
	if err != nil {
		log.Fatalf("Error sending request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("API returned non-200 status code: %d\nResponse: %s", resp.StatusCode, string(respBody))
	}

	if metric != "" {
		log.Printf("Run %s", resp.Header.Get("X-Report-Timestamp"))
		fmt.Println(string(respBody))
		return
	}

	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, respBody, "", "  "); err != nil {
		log.Printf("Could not prettify JSON, printing raw response:")
		fmt.Println(string(respBody))
		return
	}
	log.Println("---")
	fmt.Println(prettyJSON.String())
}

func directQueryClickHouse(cfg config.ClickHouseConfig, limit int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := query.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Error connecting to ClickHouse: %v", err)
	}
	defer conn.Close()
	log.Println("Successfully connected to ClickHouse.")

	rows, err := conn.Query(ctx, `
		SELECT RunID, ExpectedCount, MatchedCount, MeanThroughputKbps, MeanJitterSeconds, MeanLostPackets, Fairness
		FROM report_summaries
		ORDER BY Timestamp DESC, RunID DESC
		LIMIT ?`, limit)
	if err != nil {
		log.Fatalf("Error executing query: %v", err)
	}
	defer rows.Close()

	log.Println("--- Recent Runs (Direct) ---")
	var found bool
	for rows.Next() {
		found = true
		var (
			runID                        string
			expected, matched            uint32
			throughput, jitter, lost, jf float64
		)
		if err := rows.Scan(&runID, &expected, &matched, &throughput, &jitter, &lost, &jf); err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}
		fmt.Printf("Run: %s\n", runID)
		fmt.Printf("  Flows: %d matched / %d expected\n", matched, expected)
		fmt.Printf("  Mean throughput: %g Kbps\n", throughput)
		fmt.Printf("  Mean jitter: %g s\n", jitter)
		fmt.Printf("  Mean lost packets: %g\n", lost)
		fmt.Printf("  Fairness: %g\n", jf)
		fmt.Println("---------------------")
	}
	if !found {
		log.Println("No reports found.")
	}
	if err := rows.Err(); err != nil {
		log.Printf("An error occurred during row iteration: %v", err)
	}
}
