package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bwise1/huddle_karma/config"
	deps "github.com/bwise1/huddle_karma/internal/debs"
	"github.com/bwise1/huddle_karma/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultIdleTimeout    = time.Minute
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 10 * time.Second
	defaultShutdownPeriod = 30 * time.Second
)

type Handler func(w http.ResponseWriter, r *http.Request) *ServerResponse

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h(w, r)
	respByte, err := json.Marshal(resp)
	if err != nil {
		writeErrorResponse(w, err, values.Error, "unable to marshal server response")
		return
	}
	writeJSONResponse(w, respByte, resp.StatusCode)
}

type API struct {
	Server *http.Server
	Config *config.Config
	Deps   *deps.Dependencies
}

func (api *API) Serve() error {
	api.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", api.Config.Port),
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		Handler:      api.Routes(),
	}
	return api.Server.ListenAndServe()
}

func (api *API) Routes() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", api.Health)

	mux.Group(func(r chi.Router) {
		r.Use(RequestTracing)
		r.Mount("/api/huddles", api.HuddleRoutes())
		r.Mount("/api/karma", api.KarmaRoutes())
	})

	return mux
}

func (api *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := api.Deps.Ping(ctx); err != nil {
		writeErrorResponse(w, err, values.Error, "database unavailable")
		return
	}

	body, _ := json.Marshal(ServerResponse{Message: "ok", Status: values.Success})
	writeJSONResponse(w, body, http.StatusOK)
}

func (api *API) Shutdown() error {
	if api.Server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownPeriod)
	defer cancel()

	return api.Server.Shutdown(ctx)
}
