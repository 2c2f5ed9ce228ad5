// Command reservation_stress fires concurrent reserve requests at one clinic
// and tallies the outcomes. Useful for verifying that capacity holds under
// contention: the success count must equal the clinic's free seats.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

type reservePayload struct {
	ClinicID  string `json:"clinic_id"`
	StudentID string `json:"student_id,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Error *apiError `json:"error"`
}

type result struct {
	status   int
	code     string
	duration time.Duration
	err      error
}

func main() {
	var (
		base     string
		token    string
		clinicID string
		students string
		workers  int
		timeout  time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&token, "token", "", "Bearer token (admin or teacher to reserve on behalf of students)")
	flag.StringVar(&clinicID, "clinic", "", "Clinic ID to hammer")
	flag.StringVar(&students, "students", "", "Comma-separated student IDs; one request each")
	flag.IntVar(&workers, "workers", 20, "Concurrent requests when -students is empty")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if clinicID == "" {
		log.Fatal("-clinic is required")
	}

	ids := splitIDs(students)
	n := workers
	if len(ids) > 0 {
		n = len(ids)
	}

	client := &http.Client{Timeout: timeout}
	results := make([]result, n)
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			payload := reservePayload{ClinicID: clinicID}
			if len(ids) > 0 {
				payload.StudentID = ids[idx]
			}
			<-start
			results[idx] = reserve(client, base, token, payload)
		}(i)
	}

	close(start)
	wg.Wait()

	report(results)
}

func reserve(client *http.Client, base, token string, payload reservePayload) result {
	body, err := json.Marshal(payload)
	if err != nil {
		return result{err: err}
	}

	req, err := http.NewRequest(http.MethodPost, base+"/api/v1/clinics/reserve", bytes.NewReader(body))
	if err != nil {
		return result{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	began := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return result{err: err}
	}
	defer resp.Body.Close()

	res := result{status: resp.StatusCode, duration: time.Since(began)}

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	if err == nil && json.Unmarshal(raw, &env) == nil && env.Error != nil {
		res.code = env.Error.Code
	}
	return res
}

func report(results []result) {
	outcomes := map[string]int{}
	var slowest time.Duration
	for _, r := range results {
		switch {
		case r.err != nil:
			outcomes["transport error"]++
		case r.status == http.StatusOK:
			outcomes["reserved"]++
		case r.code != "":
			outcomes[r.code]++
		default:
			outcomes[fmt.Sprintf("HTTP %d", r.status)]++
		}
		if r.duration > slowest {
			slowest = r.duration
		}
	}

	keys := make([]string, 0, len(outcomes))
	for k := range outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("%d requests, slowest %s\n", len(results), slowest)
	for _, k := range keys {
		fmt.Printf("  %-24s %d\n", k, outcomes[k])
	}
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}
