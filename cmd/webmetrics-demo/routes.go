package main

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/heroku/webmetrics"
	"github.com/heroku/webmetrics/hmiddleware"
	"github.com/heroku/webmetrics/hmiddleware/httpmetrics"
)

var errOrderNotFound = webmetrics.NewStatusError(http.StatusNotFound, errors.New("order not found"))

type order struct {
	ID    string `json:"id"`
	Items int    `json:"items"`
}

type orderStore struct {
	mu     sync.Mutex
	orders map[string]order
}

func newOrderStore() *orderStore {
	return &orderStore{orders: make(map[string]order)}
}

func (s *orderStore) get(id string) (order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return order{}, errors.Wrapf(errOrderNotFound, "id %s", id)
	}
	return o, nil
}

func (s *orderStore) put(o order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

// newRouter returns the routes of the service behind the metrics and
// request logging middleware.
func newRouter(l logrus.FieldLogger, metrics func(http.Handler) http.Handler, store *orderStore) http.Handler {
	r := chi.NewRouter()
	r.Use(metrics, hmiddleware.RequestLogger(l))

	r.NotFound(httpmetrics.ErrorRoute(http.HandlerFunc(notFound)).ServeHTTP)

	r.Route("/orders", func(r chi.Router) {
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			var o order
			if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
				fail(w, r, webmetrics.NewStatusError(http.StatusBadRequest, err))
				return
			}
			o.ID = chi.URLParam(r, "id")
			store.put(o)
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			o, err := store.get(chi.URLParam(r, "id"))
			if err != nil {
				fail(w, r, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(o)
		})
	})

	return r
}

// fail attaches err to the exchange and renders it with its status.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	httpmetrics.SetError(r, err)

	status := http.StatusInternalServerError
	var se *webmetrics.StatusError
	if errors.As(err, &se) {
		status = se.StatusCode()
	}
	http.Error(w, err.Error(), status)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "no such route", http.StatusNotFound)
}
