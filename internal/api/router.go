// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/anniversary-planner/backend/internal/api/handlers"
	"github.com/anniversary-planner/backend/internal/api/middleware"
	"github.com/anniversary-planner/backend/internal/media"
	"github.com/anniversary-planner/backend/internal/state"
	"github.com/anniversary-planner/backend/internal/statesync"
	"github.com/anniversary-planner/backend/internal/storage"
	"github.com/anniversary-planner/backend/internal/suggest"
	"github.com/anniversary-planner/backend/internal/websocket"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Log       zerolog.Logger
	DB        *storage.DB
	Hub       *websocket.Hub
	Container *state.Container
	Sync      *statesync.Manager
	Sessions  *middleware.Sessions
	Objects   media.ObjectStore
	Uploads   *storage.UploadRepository
	Suggest   *suggest.Client

	// UploadDir is served at /uploads/ when uploads are stored locally.
	UploadDir      string
	StaticDir      string
	AllowedOrigins []string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.Logging(d.Log))
	r.Use(middleware.Recovery(d.Log))
	r.Use(d.Sessions.Middleware)

	planner := middleware.RequirePlanner
	c := d.Container

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", handlers.HealthCheck(d.DB, d.Sync, d.Hub, d.Sessions.Registry)).Methods("GET")
	api.HandleFunc("/ws", middleware.RequireSession(handlers.WebSocketUpgrade(d.Hub, d.Log))).Methods("GET")

	// Session
	api.HandleFunc("/session", handlers.GetSession(c)).Methods("GET")
	api.HandleFunc("/session/login", handlers.Login(d.Sessions, c)).Methods("POST")
	api.HandleFunc("/session/logout", handlers.Logout(d.Sessions)).Methods("POST")
	r.HandleFunc("/magic", handlers.MagicLink(d.Sessions, c)).Methods("GET")

	api.HandleFunc("/state", planner(handlers.GetState(c, d.Sync))).Methods("GET")

	// Guests
	api.HandleFunc("/guests", planner(handlers.ListGuests(c))).Methods("GET")
	api.HandleFunc("/guests", planner(handlers.CreateGuest(c))).Methods("POST")
	api.HandleFunc("/guests/{id}", middleware.RequireSession(handlers.GetGuest(c))).Methods("GET")
	api.HandleFunc("/guests/{id}", planner(handlers.UpdateGuest(c))).Methods("PATCH")
	api.HandleFunc("/guests/{id}/rsvp", middleware.RequireSession(handlers.SubmitRSVP(c))).Methods("PUT")

	// Rooms
	api.HandleFunc("/rooms", planner(handlers.ListRooms(c))).Methods("GET")
	api.HandleFunc("/rooms", planner(handlers.UpsertRoom(c))).Methods("PUT")
	api.HandleFunc("/rooms/{property}/{roomNo}", planner(handlers.DeleteRoom(c))).Methods("DELETE")

	// Catering, budget and inventory
	api.HandleFunc("/catering", planner(handlers.GetCatering(c))).Methods("GET")
	api.HandleFunc("/budget", planner(handlers.GetBudget(c))).Methods("GET")
	api.HandleFunc("/budget", planner(handlers.UpdateBudget(c))).Methods("PUT")
	api.HandleFunc("/inventory", planner(handlers.GetInventory(c))).Methods("GET")
	api.HandleFunc("/inventory", planner(handlers.CreateInventoryItem(c))).Methods("POST")
	api.HandleFunc("/inventory/{id}", planner(handlers.UpdateInventoryItem(c))).Methods("PUT")
	api.HandleFunc("/inventory/{id}", planner(handlers.DeleteInventoryItem(c))).Methods("DELETE")

	// Tasks and itinerary
	api.HandleFunc("/tasks", planner(handlers.ListTasks(c))).Methods("GET")
	api.HandleFunc("/tasks", planner(handlers.CreateTask(c))).Methods("POST")
	api.HandleFunc("/tasks/{id}", planner(handlers.UpdateTask(c))).Methods("PATCH")
	api.HandleFunc("/itinerary", middleware.RequireSession(handlers.GetItinerary(c))).Methods("GET")
	api.HandleFunc("/itinerary", planner(handlers.PutItinerary(c))).Methods("PUT")

	// Sync
	api.HandleFunc("/sync", planner(handlers.SyncNow(d.Sync))).Methods("POST")
	api.HandleFunc("/sync", planner(handlers.SyncStatus(d.Sync))).Methods("GET")

	// Uploads: POST is planner-only; every other method gets the JSON 405.
	upload := handlers.Upload(d.Objects, d.Uploads, d.Log)
	api.HandleFunc("/upload", planner(upload)).Methods("POST")
	api.HandleFunc("/upload", upload)
	if d.Uploads != nil {
		api.HandleFunc("/uploads", planner(handlers.ListUploads(d.Uploads))).Methods("GET")
	}
	if d.UploadDir != "" {
		r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir))))
	}

	// Suggestions
	api.HandleFunc("/suggestions/logistics", planner(handlers.SuggestLogistics(c, d.Suggest))).Methods("POST")
	api.HandleFunc("/suggestions/menu", planner(handlers.SuggestMenu(c, d.Suggest))).Methods("POST")

	// Serve static frontend files
	if d.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(d.StaticDir)))
	}

	if len(d.AllowedOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}
