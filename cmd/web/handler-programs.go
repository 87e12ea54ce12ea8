package main

import (
	"context"
	"net/http"

	"github.com/myrjola/dietplan/internal/errors"
	"github.com/myrjola/dietplan/internal/program"
)

// errGenerationAborted marks a generation that ended without returning, for example by a panic.
var errGenerationAborted = errors.NewSentinel("generation aborted")

// generateRequest is the body of both generate endpoints. With Save the program is stored and returned with its
// stored ID, otherwise it is only returned.
type generateRequest[P, G any] struct {
	Patient P    `json:"patient"`
	Goal    G    `json:"goal"`
	Save    bool `json:"save"`
}

type generationPipeline[P, G, R any] struct {
	kind     program.ProgramKind
	generate func(ctx context.Context, patient P, goal G) (R, error)
	save     func(ctx context.Context, patientID string, p R) (program.StoredProgram, error)
}

func handleGenerate[P, G, R any](
	app *application, w http.ResponseWriter, r *http.Request, pipeline generationPipeline[P, G, R],
) {
	var req generateRequest[P, G]
	if err := decodeJSON(w, r, &req); err != nil {
		app.badRequest(w, r, err)
		return
	}

	patientID := r.PathValue("patientID")
	if !app.requests.begin(patientID, pipeline.kind) {
		app.writeError(w, r, http.StatusConflict, "generation.error.in_progress", "in_progress")
		return
	}
	// outcome stays failed unless generation and the optional save complete.
	outcome := errGenerationAborted
	defer func() {
		app.requests.finish(patientID, pipeline.kind, outcome)
	}()

	ctx := r.Context()
	generated, err := pipeline.generate(ctx, req.Patient, req.Goal)
	if err != nil {
		outcome = err
		app.generationError(w, r, err)
		return
	}

	if !req.Save {
		outcome = nil
		app.writeJSON(w, r, http.StatusOK, generated)
		return
	}
	stored, err := pipeline.save(ctx, patientID, generated)
	if err != nil {
		outcome = err
		app.serverError(w, r, errors.Wrap(err, "save generated program"))
		return
	}
	outcome = nil
	app.writeJSON(w, r, http.StatusCreated, stored)
}

func (app *application) exerciseProgramGeneratePOST(w http.ResponseWriter, r *http.Request) {
	handleGenerate(app, w, r, generationPipeline[program.PatientExerciseInfo, program.ExerciseGoal, program.ExerciseProgram]{
		kind:     program.KindExerciseProgram,
		generate: app.generator.GenerateExerciseProgram,
		save:     app.store.SaveExerciseProgram,
	})
}

func (app *application) dietProgramGeneratePOST(w http.ResponseWriter, r *http.Request) {
	handleGenerate(app, w, r, generationPipeline[program.PatientDietInfo, program.DietGoal, program.DietProgram]{
		kind:     program.KindDietProgram,
		generate: app.generator.GenerateDietProgram,
		save:     app.store.SaveDietProgram,
	})
}

type generationStatusResponse struct {
	Exercise requestState `json:"exercise"`
	Diet     requestState `json:"diet"`
}

func (app *application) generationStatusGET(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("patientID")
	app.writeJSON(w, r, http.StatusOK, generationStatusResponse{
		Exercise: app.requests.state(patientID, program.KindExerciseProgram),
		Diet:     app.requests.state(patientID, program.KindDietProgram),
	})
}

func (app *application) programsGET(w http.ResponseWriter, r *http.Request) {
	summaries, err := app.store.ListPrograms(r.Context(), r.PathValue("patientID"))
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "list programs"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, summaries)
}

type programDetailResponse struct {
	program.StoredProgram
	program.RenderedProgram
}

func (app *application) programGET(w http.ResponseWriter, r *http.Request) {
	stored, err := app.store.GetProgram(r.Context(), r.PathValue("id"))
	if errors.Is(err, program.ErrNotFound) {
		app.notFound(w, r)
		return
	}
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "get program"))
		return
	}

	rendered, err := stored.Render()
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "render program"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, programDetailResponse{
		StoredProgram:   stored,
		RenderedProgram: rendered,
	})
}
