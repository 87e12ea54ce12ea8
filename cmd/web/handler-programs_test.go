package main

import (
	"net/http"
	"strings"
	"testing"

	"github.com/myrjola/dietplan/internal/e2etest"
	"github.com/myrjola/dietplan/internal/i18n"
	"github.com/myrjola/dietplan/internal/program"
	"github.com/myrjola/dietplan/internal/testhelpers"
)

func testLookupEnv(geminiURL string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		switch key {
		case "DIETPLAN_SQLITE_URL":
			return ":memory:", true
		case "DIETPLAN_ADDR":
			return "localhost:0", true
		case "DIETPLAN_GEMINI_BASE_URL":
			return geminiURL, true
		case "DIETPLAN_GEMINI_API_KEY":
			return "test-key", true
		case "DIETPLAN_RETRY_ATTEMPTS":
			return "2", true
		case "DIETPLAN_RETRY_BASE_DELAY":
			return "1ms", true
		default:
			return "", false
		}
	}
}

func startServer(t *testing.T, replies ...testhelpers.GeminiReply) (*e2etest.Server, *testhelpers.FakeGemini) {
	t.Helper()
	fake := testhelpers.NewFakeGemini(t, replies...)
	server, err := e2etest.StartServer(t, testhelpers.NewWriter(t), testLookupEnv(fake.URL), run)
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	return server, fake
}

func exerciseRequest(save bool) map[string]any {
	return map[string]any{
		"patient": map[string]any{
			"age": 35, "gender": "Kadın", "height": 165, "currentWeight": 80, "targetWeight": 65,
			"activityLevel": "moderate", "fitnessLevel": "beginner", "injuries": "Sol diz",
		},
		"goal": map[string]any{
			"type": "weight_loss", "difficulty": "beginner", "frequency": 3, "duration": "4 hafta",
		},
		"save": save,
	}
}

func dietRequest(save bool) map[string]any {
	return map[string]any{
		"patient": map[string]any{
			"age": 42, "gender": "Erkek", "height": 178, "currentWeight": 96, "targetWeight": 85,
			"activityLevel": "light", "allergies": "Fıstık",
		},
		"goal": map[string]any{
			"type": "weight_loss", "dailyCalories": 1800, "mealsPerDay": 4, "duration": "8 hafta",
		},
		"save": save,
	}
}

func Test_application_exerciseProgramGenerate(t *testing.T) {
	server, fake := startServer(t, testhelpers.GeminiReply{
		Status: http.StatusOK, Text: testhelpers.ExerciseProgramJSON(3), Raw: "",
	})
	ctx := t.Context()
	client := server.Client()

	var got program.ExerciseProgram
	status, err := client.PostJSON(ctx, "/api/patients/p-1/exercise-programs/generate", exerciseRequest(false), &got)
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if got.Frequency != 3 || len(got.Workouts) != 3 || !got.AIGenerated {
		t.Errorf("frequency = %d, workouts = %d, aiGenerated = %t", got.Frequency, len(got.Workouts), got.AIGenerated)
	}

	requests := fake.Requests()
	if len(requests) != 1 {
		t.Fatalf("want 1 upstream request, got %d", len(requests))
	}
	if requests[0].APIKey != "test-key" || requests[0].Path != "/models/gemini-2.0-flash:generateContent" {
		t.Errorf("upstream request = %s key=%s", requests[0].Path, requests[0].APIKey)
	}

	var summaries []program.ProgramSummary
	if _, err = client.GetJSON(ctx, "/api/patients/p-1/programs", &summaries); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("unsaved program was stored: %+v", summaries)
	}

	var generationStatus map[string]string
	if _, err = client.GetJSON(ctx, "/api/patients/p-1/generation-status", &generationStatus); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if generationStatus["exercise"] != "succeeded" || generationStatus["diet"] != "idle" {
		t.Errorf("generation status = %v", generationStatus)
	}
}

func Test_application_dietProgramGenerate_save(t *testing.T) {
	server, _ := startServer(t, testhelpers.GeminiReply{
		Status: http.StatusOK, Text: "```json\n" + testhelpers.DietProgramJSON() + "\n```", Raw: "",
	})
	ctx := t.Context()
	client := server.Client()

	var stored program.StoredProgram
	status, err := client.PostJSON(ctx, "/api/patients/p-2/diet-programs/generate", dietRequest(true), &stored)
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}
	if stored.ID == "" || stored.Kind != program.KindDietProgram || stored.Diet == nil || len(stored.Diet.Meals) != 2 {
		t.Fatalf("stored = %+v", stored)
	}

	var count int
	if err = server.DB().QueryRowContext(ctx,
		"SELECT count(*) FROM programs WHERE patient_id = 'p-2'").Scan(&count); err != nil {
		t.Fatalf("count programs: %v", err)
	}
	if count != 1 {
		t.Errorf("programs in db = %d, want 1", count)
	}

	var summaries []program.ProgramSummary
	if _, err = client.GetJSON(ctx, "/api/patients/p-2/programs", &summaries); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != stored.ID || summaries[0].Title != "Akdeniz Diyeti" {
		t.Errorf("summaries = %+v", summaries)
	}

	var detail struct {
		program.StoredProgram
		NotesHTML string `json:"notesHtml"`
	}
	status, err = client.GetJSON(ctx, "/api/programs/"+stored.ID, &detail)
	if err != nil || status != http.StatusOK {
		t.Fatalf("GetJSON = %d, %v", status, err)
	}
	doc, err := e2etest.ParseFragment(detail.NotesHTML)
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	if got := doc.Find("p em").Text(); got != "2 litre" {
		t.Errorf("notes emphasis = %q, html = %s", got, detail.NotesHTML)
	}
}

func Test_application_generate_errors(t *testing.T) {
	missingDifficulty := strings.Replace(testhelpers.ExerciseProgramJSON(3), `"difficulty":"beginner",`, "", 1)
	tests := []struct {
		name       string
		reply      testhelpers.GeminiReply
		body       any
		language   string
		wantStatus int
		wantKind   string
		wantError  string
	}{
		{
			name:       "upstream failure",
			reply:      testhelpers.GeminiReply{Status: http.StatusInternalServerError, Text: "", Raw: `{"error":"node-7 down"}`},
			body:       exerciseRequest(false),
			wantStatus: http.StatusBadGateway,
			wantKind:   "upstream",
			wantError:  i18n.Translate(i18n.Turkish, "generation.error.upstream"),
		},
		{
			name:       "upstream failure in english",
			reply:      testhelpers.GeminiReply{Status: http.StatusInternalServerError, Text: "", Raw: `{"error":"node-7 down"}`},
			body:       exerciseRequest(false),
			language:   "en-US,en;q=0.9",
			wantStatus: http.StatusBadGateway,
			wantKind:   "upstream",
			wantError:  i18n.Translate(i18n.English, "generation.error.upstream"),
		},
		{
			name:       "not json",
			reply:      testhelpers.GeminiReply{Status: http.StatusOK, Text: "not json", Raw: ""},
			body:       exerciseRequest(false),
			wantStatus: http.StatusBadGateway,
			wantKind:   "malformed",
			wantError:  i18n.Translate(i18n.Turkish, "generation.error.malformed"),
		},
		{
			name:       "missing difficulty",
			reply:      testhelpers.GeminiReply{Status: http.StatusOK, Text: missingDifficulty, Raw: ""},
			body:       exerciseRequest(false),
			wantStatus: http.StatusBadGateway,
			wantKind:   "schema",
			wantError:  i18n.Translate(i18n.Turkish, "generation.error.schema"),
		},
		{
			name:       "invalid patient",
			reply:      testhelpers.GeminiReply{Status: http.StatusOK, Text: testhelpers.ExerciseProgramJSON(3), Raw: ""},
			body:       map[string]any{"patient": map[string]any{"age": 35}, "goal": map[string]any{}},
			wantStatus: http.StatusBadRequest,
			wantKind:   "invalid_input",
			wantError:  i18n.Translate(i18n.Turkish, "generation.error.invalid_input"),
		},
		{
			name:       "unknown field",
			reply:      testhelpers.GeminiReply{Status: http.StatusOK, Text: testhelpers.ExerciseProgramJSON(3), Raw: ""},
			body:       map[string]any{"patient": map[string]any{"shoeSize": 42}},
			wantStatus: http.StatusBadRequest,
			wantKind:   "bad_request",
			wantError:  i18n.Translate(i18n.Turkish, "request.error.bad_request"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := startServer(t, tt.reply)
			client := server.Client().WithLanguage(tt.language)

			var got errorResponse
			status, err := client.PostJSON(t.Context(), "/api/patients/p-1/exercise-programs/generate", tt.body, &got)
			if err != nil {
				t.Fatalf("PostJSON: %v", err)
			}
			if status != tt.wantStatus || got.Kind != tt.wantKind || got.Error != tt.wantError {
				t.Errorf("got %d %+v, want %d kind=%s error=%q", status, got, tt.wantStatus, tt.wantKind, tt.wantError)
			}
			if strings.Contains(got.Error, "node-7") {
				t.Errorf("error leaks the upstream body: %q", got.Error)
			}
		})
	}
}

func Test_application_programGET_notFound(t *testing.T) {
	server, _ := startServer(t)

	var got errorResponse
	status, err := server.Client().GetJSON(t.Context(), "/api/programs/missing", &got)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if status != http.StatusNotFound || got.Kind != "not_found" {
		t.Errorf("got %d %+v", status, got)
	}
	if got.TraceID == "" {
		t.Error("error response carries no trace id")
	}
}
