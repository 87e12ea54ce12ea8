package main

import (
	"net/http"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	var (
		shared = func(next http.Handler) http.Handler {
			return app.logAndTraceRequest(app.recoverPanic(secureHeaders(noCache(negotiateLanguage(next)))))
		}
		// generate requests wait for the model, retries included, up to app.requestTimeout.
		generate = func(next http.Handler) http.Handler {
			return shared(app.crossOriginProtection(app.timeout(next, app.requestTimeout)))
		}
		api = func(next http.Handler) http.Handler {
			return shared(app.timeout(next, defaultTimeout))
		}
	)

	mux.Handle("GET /api/healthy", api(http.HandlerFunc(app.healthy)))

	mux.Handle("POST /api/patients/{patientID}/exercise-programs/generate",
		generate(http.HandlerFunc(app.exerciseProgramGeneratePOST)))
	mux.Handle("POST /api/patients/{patientID}/diet-programs/generate",
		generate(http.HandlerFunc(app.dietProgramGeneratePOST)))
	mux.Handle("GET /api/patients/{patientID}/generation-status", api(http.HandlerFunc(app.generationStatusGET)))
	mux.Handle("GET /api/patients/{patientID}/programs", api(http.HandlerFunc(app.programsGET)))
	mux.Handle("GET /api/programs/{id}", api(http.HandlerFunc(app.programGET)))

	mux.Handle("/", shared(http.HandlerFunc(app.notFound)))

	return mux
}
