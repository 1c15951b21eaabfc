package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	ex "github.com/GabrielFrota/NewsPrice/data/extensions"
	"github.com/GabrielFrota/NewsPrice/service/api"
	sm "github.com/GabrielFrota/NewsPrice/service/models"
)

const (
	DefaultAddr = ":8080"

	// fetched reports wait on feed rate limits, a few minutes is normal
	reportWriteTimeout = 10 * time.Minute
	maxRequestBytes    = 1 << 20
)

func GetHttpServer(sc *ServiceContext, addr string) *http.Server {
	if addr == "" {
		addr = DefaultAddr
	}

	return &http.Server{
		Addr:           addr,
		Handler:        NewRouter(sc),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   reportWriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func NewRouter(sc *ServiceContext) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))

	router.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) { ping(w, r, sc) })
	router.Post("/api/report", func(w http.ResponseWriter, r *http.Request) { postReport(w, r, sc) })
	router.Get("/api/report/{symbol}", func(w http.ResponseWriter, r *http.Request) { getReport(w, r, sc) })
	router.Method(http.MethodGet, "/metrics", sc.Metrics.Handler())

	return router
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Str("requestId", middleware.GetReqID(r.Context())).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	})
}

type pingResponse struct {
	Message  string `json:"message"`
	Database string `json:"database"`
	Feeds    bool   `json:"feeds"`
}

func ping(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	res := pingResponse{
		Message:  "pong",
		Database: "disabled",
		Feeds:    sc.AlphaVantage != nil && sc.NYTimes != nil && sc.Classifier != nil,
	}

	if sc.Postgres != nil {
		res.Database = "ok"
		if err := sc.Postgres.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("database ping failed")
			res.Database = "unavailable"
		}
	}

	writeJSON(w, http.StatusOK, sm.GetServiceResponseOk(&res))
}

func postReport(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	var req sm.ReportRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, &RequestError{Reason: err.Error()})
		return
	}

	scr := sc.withContext(r)
	report, err := scr.RunReportFromRequest(req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sm.GetServiceResponseOk(ToReportResponse(report, "", "", time.Time{}, time.Time{})))
}

func getReport(w http.ResponseWriter, r *http.Request, sc *ServiceContext) {
	symbol := chi.URLParam(r, "symbol")
	params := r.URL.Query()

	from, err := ex.ParseShort(params.Get("from"))
	if err != nil {
		writeError(w, &RequestError{Reason: "from: " + err.Error()})
		return
	}
	to, err := ex.ParseShort(params.Get("to"))
	if err != nil {
		writeError(w, &RequestError{Reason: "to: " + err.Error()})
		return
	}

	query := params.Get("query")
	if query == "" {
		query = symbol
	}

	scr := sc.withContext(r)
	report, err := scr.RunReport(symbol, query, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sm.GetServiceResponseOk(ToReportResponse(report, symbol, query, from, to)))
}

// withContext scopes a copy of the service context to the request
func (sc *ServiceContext) withContext(r *http.Request) *ServiceContext {
	scr := *sc
	scr.Context = r.Context()
	return &scr
}

// StatusFor maps an error onto the http status it is reported with
func StatusFor(err error) int {
	var requestErr *RequestError
	var dataErr *DataError

	switch {
	case errors.As(err, &requestErr):
		return http.StatusBadRequest
	case errors.As(err, &dataErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable
	case api.IsUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, sm.GetServiceResponseError(err.Error()))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("error writing response")
	}
}
