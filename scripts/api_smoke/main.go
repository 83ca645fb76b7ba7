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
	"os"
	"strings"
	"time"
)

func main() {
	if err := run(); err != nil {
		log.Printf("api_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "http://localhost:8080", "API base URL")
	text := flag.String("text", "祝你一战成硕", "blessing to post")
	name := flag.String("name", "测试", "name for generateBlessing")
	school := flag.String("school", "理想院校", "school for generateBlessing")
	timeout := flag.Duration("timeout", 30*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	base := strings.TrimRight(*addr, "/")
	call := func(method, path string, in any, wantStatus int) ([]byte, error) {
		var body io.Reader
		if in != nil {
			payload, err := json.Marshal(in)
			if err != nil {
				return nil, fmt.Errorf("marshal %s: %w", path, err)
			}
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, base+path, body)
		if err != nil {
			return nil, err
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != wantStatus {
			return nil, fmt.Errorf("%s %s: expected %d, got %d: %s", method, path, wantStatus, resp.StatusCode, data)
		}
		fmt.Printf("%s %s -> %d %s\n", method, path, resp.StatusCode, bytes.TrimSpace(data))
		return data, nil
	}

	if _, err := call(http.MethodGet, "/api/health", nil, http.StatusOK); err != nil {
		return err
	}
	if _, err := call(http.MethodPost, "/api/blessings", map[string]string{"content": ""}, http.StatusBadRequest); err != nil {
		return err
	}
	if _, err := call(http.MethodPost, "/api/blessings", map[string]string{"content": *text}, http.StatusCreated); err != nil {
		return err
	}

	data, err := call(http.MethodGet, "/api/blessings", nil, http.StatusOK)
	if err != nil {
		return err
	}
	var listed []string
	if err := json.Unmarshal(data, &listed); err != nil {
		return fmt.Errorf("decode blessings: %w", err)
	}
	fmt.Printf("listed %d blessings\n", len(listed))

	userInfo := map[string]any{"userInfo": map[string]string{"name": *name, "school": *school}}
	if _, err := call(http.MethodPost, "/api/generateBlessing", userInfo, http.StatusOK); err != nil {
		return err
	}
	if _, err := call(http.MethodDelete, "/api/blessings", nil, http.StatusMethodNotAllowed); err != nil {
		return err
	}

	fmt.Println("smoke test passed")
	return nil
}
