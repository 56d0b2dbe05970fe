package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"imaged/internal/engine"
	"imaged/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Generate(ctx context.Context, cfg engine.PipelineConfig, params engine.CallParams) (engine.GenerateResult, error)
	Warmup(ctx context.Context, cfg engine.PipelineConfig) error
	Status() types.StatusResponse
	DefaultVariant() engine.Variant
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/generate", func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeJSONBody[types.GenerateRequest](w, r)
		if !ok {
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		if req.IDImage == "" {
			writeJSONError(w, http.StatusBadRequest, "id_image is required")
			return
		}
		params, err := callParams(req)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		lvl := requestLogLevel(r)
		start := time.Now()
		if lvl >= LevelInfo && zlog != nil {
			z := zlog.Info().Str("path", r.URL.Path).Str("variant", req.Variant).Int64("seed", req.Seed)
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("generate start")
		}

		// The submitted item survives a client disconnect, but waiting for it
		// stops when either the request or the server shuts down.
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		res, err := svc.Generate(joinedCtx, pipelineConfig(req.PipelineRequest), params)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := writeEngineError(w, err)
			if lvl >= LevelInfo && zlog != nil {
				z := zlog.Info().Int("status", status).Dur("dur", time.Since(start))
				if rid := middleware.GetReqID(r.Context()); rid != "" {
					z = z.Str("request_id", rid)
				}
				z.Err(err).Msg("generate end")
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.GenerateResponse{
			Path:       res.Path,
			SeedUsed:   res.Seed,
			Width:      res.Width,
			Height:     res.Height,
			DurationMS: res.Duration.Milliseconds(),
		})
		if lvl >= LevelInfo && zlog != nil {
			z := zlog.Info().Int("status", 200).Int64("seed", res.Seed).Dur("dur", time.Since(start))
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("generate end")
		}
	})

	r.Post("/pipeline", func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeJSONBody[types.PipelineRequest](w, r)
		if !ok {
			return
		}
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := svc.Warmup(joinedCtx, pipelineConfig(req)); err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeEngineError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Status()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Status()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	r.Get("/variants", func(w http.ResponseWriter, r *http.Request) {
		resp := types.VariantsResponse{Default: string(svc.DefaultVariant())}
		for _, v := range engine.Variants() {
			resp.Variants = append(resp.Variants, string(v))
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("shutting down"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// decodeJSONBody enforces the JSON content type and body size limit, then
// decodes into T. On failure it has already written the error response.
func decodeJSONBody[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return req, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// An exceeded size limit also lands here; 400 avoids leaking details.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	return req, true
}
