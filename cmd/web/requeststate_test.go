package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/dietplan/internal/program"
	"github.com/myrjola/dietplan/internal/sqlite"
)

func Test_requestTracker(t *testing.T) {
	tracker := newRequestTracker()

	if got := tracker.state("p-1", program.KindDietProgram); got != stateIdle {
		t.Fatalf("initial state = %s, want idle", got)
	}
	if !tracker.begin("p-1", program.KindDietProgram) {
		t.Fatal("begin from idle was rejected")
	}
	if tracker.begin("p-1", program.KindDietProgram) {
		t.Error("second begin while requesting was accepted")
	}
	if !tracker.begin("p-1", program.KindExerciseProgram) {
		t.Error("begin for another kind was rejected")
	}
	if !tracker.begin("p-2", program.KindDietProgram) {
		t.Error("begin for another patient was rejected")
	}

	tracker.finish("p-1", program.KindDietProgram, errors.New("upstream"))
	if got := tracker.state("p-1", program.KindDietProgram); got != stateFailed {
		t.Errorf("state after error = %s, want failed", got)
	}
	if !tracker.begin("p-1", program.KindDietProgram) {
		t.Fatal("begin after failure was rejected")
	}
	if got := tracker.state("p-1", program.KindDietProgram); got != stateRequesting {
		t.Errorf("state after restart = %s, want requesting", got)
	}
	tracker.finish("p-1", program.KindDietProgram, nil)
	if got := tracker.state("p-1", program.KindDietProgram); got != stateSucceeded {
		t.Errorf("state after success = %s, want succeeded", got)
	}
}

func Test_requestTracker_bounded(t *testing.T) {
	tracker := newRequestTracker()

	for i := range maxFinishedStates + 100 {
		patientID := fmt.Sprintf("p-%d", i)
		tracker.begin(patientID, program.KindExerciseProgram)
		tracker.finish(patientID, program.KindExerciseProgram, nil)
	}

	if n := len(tracker.inFlight); n != 0 {
		t.Errorf("in-flight keys after every request finished = %d, want 0", n)
	}
	if n := tracker.finished.Len(); n != maxFinishedStates {
		t.Errorf("remembered outcomes = %d, want %d", n, maxFinishedStates)
	}
	if got := tracker.state("p-0", program.KindExerciseProgram); got != stateIdle {
		t.Errorf("evicted outcome reads as %s, want idle", got)
	}
	last := fmt.Sprintf("p-%d", maxFinishedStates+99)
	if got := tracker.state(last, program.KindExerciseProgram); got != stateSucceeded {
		t.Errorf("latest outcome reads as %s, want succeeded", got)
	}
}

func Test_requestState_text(t *testing.T) {
	states := map[string]requestState{"a": stateIdle, "b": stateRequesting, "c": stateSucceeded, "d": stateFailed}
	data, err := json.Marshal(states)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"a":"idle","b":"requesting","c":"succeeded","d":"failed"}`
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	var decoded map[string]requestState
	if err = json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(states, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	var s requestState
	if err = s.UnmarshalText([]byte("paused")); err == nil {
		t.Error("expected error for unknown state")
	}
}

// stubGenerator runs exercise for exercise programs and succeeds immediately for diet programs.
type stubGenerator struct {
	exercise func(ctx context.Context) (program.ExerciseProgram, error)
}

func (g stubGenerator) GenerateExerciseProgram(
	ctx context.Context, _ program.PatientExerciseInfo, _ program.ExerciseGoal,
) (program.ExerciseProgram, error) {
	return g.exercise(ctx)
}

func (g stubGenerator) GenerateDietProgram(
	context.Context, program.PatientDietInfo, program.DietGoal,
) (program.DietProgram, error) {
	return program.DietProgram{Title: "Diyet", AIGenerated: true}, nil //nolint:exhaustruct // only title matters.
}

func exerciseProgram() (program.ExerciseProgram, error) {
	return program.ExerciseProgram{Title: "Program", AIGenerated: true}, nil //nolint:exhaustruct // only title matters.
}

func postGenerate(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequestWithContext(t.Context(), http.MethodPost, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func getGenerationStatus(t *testing.T, handler http.Handler, patientID string) generationStatusResponse {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequestWithContext(t.Context(), http.MethodGet,
		"/api/patients/"+patientID+"/generation-status", nil))
	var got generationStatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode status: %v: %s", err, rr.Body.String())
	}
	return got
}

func Test_application_generate_conflict(t *testing.T) {
	app := newTestApplication(t)
	started := make(chan struct{})
	release := make(chan struct{})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }
	t.Cleanup(unblock)
	app.generator = stubGenerator{exercise: func(ctx context.Context) (program.ExerciseProgram, error) {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			return program.ExerciseProgram{}, ctx.Err()
		}
		return exerciseProgram()
	}}
	handler := app.routes()

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequestWithContext(t.Context(), http.MethodPost,
			"/api/patients/p-1/exercise-programs/generate", strings.NewReader(`{}`))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		first <- rr
	}()
	<-started

	if got := getGenerationStatus(t, handler, "p-1"); got.Exercise != stateRequesting || got.Diet != stateIdle {
		t.Errorf("status while generating = %+v", got)
	}
	rr := postGenerate(t, handler, "/api/patients/p-1/exercise-programs/generate", `{}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate request status = %d, want 409", rr.Code)
	} else if !strings.Contains(rr.Body.String(), `"kind":"in_progress"`) {
		t.Errorf("duplicate request body = %s", rr.Body.String())
	}
	if rr = postGenerate(t, handler, "/api/patients/p-1/diet-programs/generate", `{}`); rr.Code != http.StatusOK {
		t.Errorf("diet request for the same patient status = %d, want 200", rr.Code)
	}

	unblock()
	if rr = <-first; rr.Code != http.StatusOK {
		t.Errorf("first request status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if got := getGenerationStatus(t, handler, "p-1"); got.Exercise != stateSucceeded || got.Diet != stateSucceeded {
		t.Errorf("status after generation = %+v", got)
	}
}

func Test_application_generate_panicReleasesPatient(t *testing.T) {
	app := newTestApplication(t)
	calls := 0
	app.generator = stubGenerator{exercise: func(context.Context) (program.ExerciseProgram, error) {
		calls++
		if calls == 1 {
			panic("generator crashed")
		}
		return exerciseProgram()
	}}
	handler := app.routes()
	const path = "/api/patients/p-1/exercise-programs/generate"

	if rr := postGenerate(t, handler, path, `{}`); rr.Code != http.StatusInternalServerError {
		t.Fatalf("panicking request status = %d, want 500", rr.Code)
	}
	if got := getGenerationStatus(t, handler, "p-1"); got.Exercise != stateFailed {
		t.Errorf("status after panic = %s, want failed", got.Exercise)
	}
	if rr := postGenerate(t, handler, path, `{}`); rr.Code != http.StatusOK {
		t.Errorf("request after panic status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if got := getGenerationStatus(t, handler, "p-1"); got.Exercise != stateSucceeded {
		t.Errorf("status after retry = %s, want succeeded", got.Exercise)
	}
}

func Test_application_generate_saveFailure(t *testing.T) {
	app := newTestApplication(t)
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", app.logger)
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	if app.store, err = program.NewStore(db, app.logger, 0); err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err = db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	app.generator = stubGenerator{exercise: func(context.Context) (program.ExerciseProgram, error) {
		return exerciseProgram()
	}}
	handler := app.routes()

	rr := postGenerate(t, handler, "/api/patients/p-1/exercise-programs/generate", `{"save":true}`)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500: %s", rr.Code, rr.Body.String())
	}
	if got := getGenerationStatus(t, handler, "p-1"); got.Exercise != stateFailed {
		t.Errorf("status after failed save = %s, want failed", got.Exercise)
	}
}

