package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Small probe used by deploy scripts: checks /health, then prints aggregator
// stats so an operator can see source coverage at a glance.

func main() {
	base := flag.String("addr", "http://localhost:8080", "service base URL")
	flag.Parse()

	fmt.Println("tokenAggApp Health Check Utility")
	fmt.Println("--------------------------------")

	client := &http.Client{Timeout: 5 * time.Second}

	if err := checkHealth(client, *base+"/health"); err != nil {
		log.Fatalf("Health check failed: %v", err)
	}
	fmt.Println("Service is healthy!")

	stats, err := fetchStats(client, *base+"/stats")
	if err != nil {
		log.Fatalf("Stats check failed: %v", err)
	}
	fmt.Printf("Tokens tracked:  %v\n", stats["total_tokens"])
	fmt.Printf("Active sources:  %v\n", stats["active_sources"])
	fmt.Printf("Last refresh:    %v\n", stats["last_refresh"])
}

func checkHealth(client *http.Client, url string) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

func fetchStats(client *http.Client, url string) (map[string]any, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, err
	}
	return stats, nil
}
