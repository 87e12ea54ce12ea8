package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/myrjola/dietplan/internal/e2etest"
	"github.com/myrjola/dietplan/internal/logging"
	"github.com/myrjola/dietplan/internal/testhelpers"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// TestAPI exercises the endpoints that never call the model, so the smoke test costs no tokens.
func TestAPI(client *e2etest.Client) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()
	patientID := "smoketest-" + rand.Text()

	var status map[string]string
	code, err := client.GetJSON(ctx, "/api/patients/"+patientID+"/generation-status", &status)
	if err != nil {
		return fmt.Errorf("get generation status: %w", err)
	}
	if code != http.StatusOK || status["exercise"] != "idle" || status["diet"] != "idle" {
		return fmt.Errorf("unexpected generation status %d: %v", code, status)
	}

	var invalid errorBody
	code, err = client.PostJSON(ctx, "/api/patients/"+patientID+"/diet-programs/generate",
		map[string]any{"patient": map[string]any{}, "goal": map[string]any{}}, &invalid)
	if err != nil {
		return fmt.Errorf("post invalid diet request: %w", err)
	}
	if code != http.StatusBadRequest || invalid.Kind != "invalid_input" {
		return fmt.Errorf("unexpected invalid input response %d: %+v", code, invalid)
	}

	var missing errorBody
	if code, err = client.GetJSON(ctx, "/api/programs/"+patientID, &missing); err != nil {
		return fmt.Errorf("get missing program: %w", err)
	}
	if code != http.StatusNotFound {
		return fmt.Errorf("unexpected status for missing program: %d", code)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client := e2etest.NewClient(url)
	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err := TestAPI(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing api", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful", slog.Duration("duration", time.Since(start)))
}
