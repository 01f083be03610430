package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	version = "dev"

	apiURL     string
	jsonOutput bool

	intentFlag     string
	urgencyFlag    string
	locationFlag   string
	companyFlag    string
	maxResultsFlag int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "webintelctl",
		Short: "Client for the webintel search API",
		Long: `webintelctl talks to a running webintel API instance: run searches,
classify queries into retrieval strategies, stream answers and inspect
the configured providers.`,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("WEBINTEL_API_URL", "http://localhost:8080"), "Base URL of the webintel API")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output raw JSON")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("webintelctl %s\n", version)
		},
	})

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run an aggregated search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(strings.Join(args, " "))
		},
	}
	searchCmd.Flags().StringVar(&intentFlag, "intent", "general", "Query intent: general, job, company, person, news")
	searchCmd.Flags().StringVar(&urgencyFlag, "urgency", "balanced", "Latency preference: fast, balanced, comprehensive")
	searchCmd.Flags().StringVar(&locationFlag, "location", "", "Location hint")
	searchCmd.Flags().StringVar(&companyFlag, "company", "", "Company hint")
	searchCmd.Flags().IntVar(&maxResultsFlag, "max-results", 10, "Maximum merged results")
	rootCmd.AddCommand(searchCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "classify <query>",
		Short: "Classify a query into a retrieval strategy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(strings.Join(args, " "))
		},
	})

	streamCmd := &cobra.Command{
		Use:   "stream <query>",
		Short: "Stream a conversational answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStream(strings.Join(args, " "))
		},
	}
	streamCmd.Flags().StringVar(&intentFlag, "intent", "general", "Query intent")
	streamCmd.Flags().StringVar(&urgencyFlag, "urgency", "balanced", "Latency preference")
	rootCmd.AddCommand(streamCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "providers",
		Short: "List configured providers and their capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProviders()
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

func searchBody(query string) ([]byte, error) {
	return json.Marshal(map[string]any{
		"text":        query,
		"intent":      intentFlag,
		"urgency":     urgencyFlag,
		"location":    locationFlag,
		"company":     companyFlag,
		"max_results": maxResultsFlag,
	})
}

func postJSON(path string, body []byte) (*http.Response, error) {
	resp, err := httpClient().Post(apiURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	return resp, nil
}

func decodeOrFail(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("api error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func runSearch(query string) error {
	body, err := searchBody(query)
	if err != nil {
		return err
	}
	resp, err := postJSON("/v1/search", body)
	if err != nil {
		return err
	}

	var result struct {
		ProvidersUsed []string `json:"providers_used"`
		Answer        string   `json:"answer,omitempty"`
		TimingMs      int64    `json:"timing_ms"`
		Results       []struct {
			Title          string  `json:"title"`
			URL            string  `json:"url"`
			Snippet        string  `json:"snippet"`
			Domain         string  `json:"domain"`
			SourceProvider string  `json:"source_provider"`
			RelevanceScore float64 `json:"relevance_score"`
		} `json:"results"`
		Errors []struct {
			Provider string `json:"provider"`
			Message  string `json:"message"`
		} `json:"errors"`
	}
	if err := decodeOrFail(resp, &result); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}

	fmt.Printf("providers: %s  (%dms)\n", strings.Join(result.ProvidersUsed, ", "), result.TimingMs)
	if result.Answer != "" {
		fmt.Printf("\n%s\n", result.Answer)
	}
	for i, r := range result.Results {
		fmt.Printf("\n%2d. [%.2f] %s (%s)\n    %s\n", i+1, r.RelevanceScore, r.Title, r.SourceProvider, r.URL)
		if r.Snippet != "" {
			fmt.Printf("    %s\n", r.Snippet)
		}
	}
	for _, provErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "\nwarning: %s failed: %s\n", provErr.Provider, provErr.Message)
	}
	return nil
}

func runClassify(query string) error {
	body, err := json.Marshal(map[string]string{"text": query})
	if err != nil {
		return err
	}
	resp, err := postJSON("/v1/search/classify", body)
	if err != nil {
		return err
	}

	var result struct {
		Strategy string `json:"strategy"`
	}
	if err := decodeOrFail(resp, &result); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(result)
	}
	fmt.Println(result.Strategy)
	return nil
}

func runStream(query string) error {
	body, err := searchBody(query)
	if err != nil {
		return err
	}
	resp, err := postJSON("/v1/search/stream", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			break
		}

		var fragment struct {
			Text  string `json:"text,omitempty"`
			Done  bool   `json:"done,omitempty"`
			Error string `json:"error,omitempty"`
		}
		if err := json.Unmarshal([]byte(payload), &fragment); err != nil {
			return fmt.Errorf("decode fragment: %w", err)
		}
		if fragment.Error != "" {
			fmt.Println()
			return fmt.Errorf("stream failed: %s", fragment.Error)
		}
		if fragment.Done {
			break
		}
		fmt.Print(fragment.Text)
	}
	fmt.Println()
	return scanner.Err()
}

func runProviders() error {
	resp, err := httpClient().Get(apiURL + "/v1/providers")
	if err != nil {
		return fmt.Errorf("request /v1/providers: %w", err)
	}

	var result struct {
		Providers []struct {
			Name         string   `json:"name"`
			Kind         string   `json:"kind"`
			LatencyClass string   `json:"latency_class"`
			Intents      []string `json:"intents"`
		} `json:"providers"`
	}
	if err := decodeOrFail(resp, &result); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(result)
	}
	for _, p := range result.Providers {
		fmt.Printf("%-12s %-18s %-10s %s\n", p.Name, p.Kind, p.LatencyClass, strings.Join(p.Intents, ","))
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
