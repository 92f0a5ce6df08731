// Package handler exposes the registry collections over HTTP. Every entity
// gets the same four routes; the generic mount functions keep the per-entity
// code down to a codec and a query decoder.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"cosi/internal/platform/metrics"
	"cosi/internal/platform/middleware"
	"cosi/internal/registry/forms"
	"cosi/internal/registry/mapper"
	"cosi/internal/registry/models"
	"cosi/internal/storage"
	"cosi/pkg/domainerrors"
)

type Server struct {
	db       storage.Database
	log      zerolog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

func NewServer(db storage.Database, log zerolog.Logger) *Server {
	reg := prometheus.NewRegistry()
	return &Server{
		db:       db,
		log:      log,
		metrics:  metrics.New(reg),
		gatherer: reg,
	}
}

// Router builds the full route tree. Entity routes follow one shape:
//
//	GET    /{entity}            paginated listing, form fields as query params
//	POST   /{entity}            insert from a JSON form body
//	PATCH  /{entity}/{id}       partial update from a JSON form body
//	POST   /{entity}/reset      drop and recreate the collection
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	mount[models.Person, models.Person](s, r, models.PersonCodec(), models.DecodePersonForm)
	mount[models.Address, models.Address](s, r, models.AddressCodec(), models.DecodeAddressForm)
	mount[models.Group, models.Group](s, r, models.GroupCodec(), models.DecodeGroupForm)
	mount[models.GroupRelation, models.GroupRelationRecord](s, r, models.GroupRelationCodec{}, models.DecodeGroupRelationForm)
	mount[models.Household, models.HouseholdRecord](s, r, models.HouseholdCodec{}, models.DecodeHouseholdForm)
	mount[models.Event, models.EventRecord](s, r, models.EventCodec{}, models.DecodeEventForm)
	mount[models.EventRegistration, models.EventRegistrationRecord](s, r, models.EventRegistrationCodec{}, models.DecodeEventRegistrationForm)
	mount[models.User, models.User](s, r, models.UserCodec(), models.DecodeUserForm)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// mount registers the four entity routes for one collection. Methods cannot
// be generic, so the route handlers are free functions over the server.
func mount[T, I any, F forms.Form](s *Server, r chi.Router, codec mapper.Codec[T, I], decodeQuery func(url.Values) (F, error)) {
	col := mapper.New[T, I, F](s.db, codec)
	r.Route("/"+col.Name(), func(r chi.Router) {
		r.Get("/", handleList(s, col, decodeQuery))
		r.Post("/", handleCreate(s, col))
		r.Patch("/{id}", handleUpdate(s, col))
		r.Post("/reset", handleReset(s, col))
	})
}

func handleList[T, I any, F forms.Form](s *Server, col *mapper.Collection[T, I, F], decodeQuery func(url.Values) (F, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		page, err := pageParam(r.URL.Query())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		q := r.URL.Query()
		q.Del("page")
		f, err := decodeQuery(q)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		result, err := col.Query(r.Context(), f, page)
		s.metrics.Observe(col.Name(), "list", time.Since(start).Seconds(), err)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleCreate[T, I any, F forms.Form](s *Server, col *mapper.Collection[T, I, F]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var f F
		if err := decodeBody(r, &f); err != nil {
			s.writeError(w, r, err)
			return
		}
		id, err := col.InsertForm(r.Context(), f)
		s.metrics.Observe(col.Name(), "insert", time.Since(start).Seconds(), err)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id.Hex()})
	}
}

func handleUpdate[T, I any, F forms.Form](s *Server, col *mapper.Collection[T, I, F]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id, err := storage.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		var f F
		if err := decodeBody(r, &f); err != nil {
			s.writeError(w, r, err)
			return
		}
		patch, err := forms.SanitizeInsert(f)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		modified, err := col.Update(r.Context(), bson.D{{Key: "_id", Value: id}}, patch)
		s.metrics.Observe(col.Name(), "update", time.Since(start).Seconds(), err)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"modified": modified})
	}
}

func handleReset[T, I any, F forms.Form](s *Server, col *mapper.Collection[T, I, F]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		err := col.DropAndRecreate(r.Context())
		s.metrics.Observe(col.Name(), "reset", time.Since(start).Seconds(), err)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func pageParam(vs url.Values) (int64, error) {
	raw := vs.Get("page")
	if raw == "" {
		return 0, nil
	}
	page, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domainerrors.New(domainerrors.CodeBadRequest, "page must be an integer")
	}
	return page, nil
}

func decodeBody(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeBadRequest, "decode request body")
	}
	return nil
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := domainerrors.ToHTTPStatus(domainerrors.CodeOf(err))
	body := errorBody{Code: string(domainerrors.CodeOf(err)), Message: err.Error()}
	var derr *domainerrors.Error
	if errors.As(err, &derr) {
		body.Message = derr.Message
	}
	if status >= http.StatusInternalServerError {
		s.log.Error().
			Str("request_id", middleware.RequestIDFrom(r.Context())).
			Str("path", r.URL.Path).
			Err(err).
			Msg("request failed")
	}
	writeJSON(w, status, map[string]errorBody{"error": body})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
