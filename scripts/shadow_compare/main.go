// Command shadow_compare replays read routes against this API and the
// Express server it replaces, and reports status and body drift.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"
)

type target struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	// Unordered compares top-level arrays as multisets. Unsorted list
	// routes return documents in natural order, which may differ between
	// the two servers after writes.
	Unordered bool `json:"unordered"`
	Critical  bool `json:"critical"`
	Auth      bool `json:"auth"`
}

type targetFile struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target          target
	ExpressStatus   int
	GoStatus        int
	StatusMatch     bool
	BodyMatch       bool
	Error           error
	DurationGo      time.Duration
	DurationExpress time.Duration
}

type options struct {
	goBase      string
	expressBase string
	token       string
}

func main() {
	var (
		opts        options
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&opts.goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&opts.expressBase, "express-base", "http://localhost:5000", "Express API base URL")
	flag.StringVar(&opts.token, "token", os.Getenv("SHADOW_TOKEN"), "Bearer token sent to targets marked auth")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	results := make([]comparison, 0, len(targets))
	var breaking, optional int
	for _, t := range targets {
		comp := compareTarget(client, opts, t)
		if comp.Error != nil || !comp.StatusMatch || !comp.BodyMatch {
			if t.Critical {
				breaking++
			} else {
				optional++
			}
		}
		results = append(results, comp)
	}

	printReport(os.Stdout, results)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

func compareTarget(client *http.Client, opts options, tgt target) comparison {
	comp := comparison{Target: tgt}

	goStatus, goBody, goDur, err := fetch(client, opts.goBase, opts.token, tgt)
	comp.DurationGo = goDur
	if err != nil {
		comp.Error = fmt.Errorf("go request failed: %w", err)
		return comp
	}
	expStatus, expBody, expDur, err := fetch(client, opts.expressBase, opts.token, tgt)
	comp.DurationExpress = expDur
	if err != nil {
		comp.Error = fmt.Errorf("express request failed: %w", err)
		return comp
	}

	comp.GoStatus = goStatus
	comp.ExpressStatus = expStatus
	comp.StatusMatch = goStatus == expStatus
	comp.BodyMatch = bodiesEqual(goBody, expBody, tgt.Unordered)
	return comp
}

func fetch(client *http.Client, base, token string, tgt target) (int, []byte, time.Duration, error) {
	if client == nil {
		return 0, nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	if tgt.Auth && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return resp.StatusCode, nil, elapsed, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, elapsed, nil
}

// bodiesEqual compares two response bodies as JSON when both parse, and
// byte-wise otherwise. Error bodies are compared by shape only since the two
// servers word their messages differently.
func bodiesEqual(a, b []byte, unordered bool) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	aj = normalize(aj)
	bj = normalize(bj)

	if isErrorBody(aj) && isErrorBody(bj) {
		return true
	}
	if unordered {
		aList, aok := aj.([]interface{})
		bList, bok := bj.([]interface{})
		if aok && bok {
			return sameElements(aList, bList)
		}
	}
	return reflect.DeepEqual(aj, bj)
}

func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, inner := range val {
			val[k] = normalize(inner)
		}
		return val
	case []interface{}:
		for i, inner := range val {
			val[i] = normalize(inner)
		}
		return val
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
	}
	return v
}

func isErrorBody(v interface{}) bool {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return false
	}
	_, hasError := obj["error"]
	_, hasMessage := obj["message"]
	return hasError || hasMessage
}

func sameElements(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	encode := func(list []interface{}) []string {
		out := make([]string, 0, len(list))
		for _, item := range list {
			raw, _ := json.Marshal(item)
			out = append(out, string(raw))
		}
		sort.Strings(out)
		return out
	}
	return reflect.DeepEqual(encode(a), encode(b))
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Shadow Compare Report")
	fmt.Fprintln(w, "=====================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Fprintf(w, "[%s] %s %s\n", status, strings.ToUpper(res.Target.Method), res.Target.Path)
		fmt.Fprintf(w, "  Go:      %d (%s)\n", res.GoStatus, res.DurationGo)
		fmt.Fprintf(w, "  Express: %d (%s)\n", res.ExpressStatus, res.DurationExpress)
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
			continue
		}
		fmt.Fprintf(w, "  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
	}
}
