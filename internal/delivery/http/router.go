package http

import (
	"net/http"

	"go-clinic-agenda/internal/delivery/http/handler"
	"go-clinic-agenda/internal/delivery/http/middleware"
	"go-clinic-agenda/internal/service"
	"go-clinic-agenda/pkg/response"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Router struct {
	router              *mux.Router
	log                 *logrus.Logger
	metrics             *service.MetricsService
	scheduleHandler     *handler.ScheduleHandler
	blockHandler        *handler.BlockHandler
	availabilityHandler *handler.AvailabilityHandler
	appointmentHandler  *handler.AppointmentHandler
	waitingListHandler  *handler.WaitingListHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
}

func NewRouter(
	log *logrus.Logger,
	metrics *service.MetricsService,
	scheduleHandler *handler.ScheduleHandler,
	blockHandler *handler.BlockHandler,
	availabilityHandler *handler.AvailabilityHandler,
	appointmentHandler *handler.AppointmentHandler,
	waitingListHandler *handler.WaitingListHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		log:                 log,
		metrics:             metrics,
		scheduleHandler:     scheduleHandler,
		blockHandler:        blockHandler,
		availabilityHandler: availabilityHandler,
		appointmentHandler:  appointmentHandler,
		waitingListHandler:  waitingListHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
	}
}

// Setup registers every route. CORS wraps the whole router so preflight
// requests are answered even for paths that only declare other methods.
func (r *Router) Setup() http.Handler {
	r.router.Use(middleware.RequestLogger(r.log, r.metrics))

	r.router.Handle("/metrics", r.metrics.Handler()).Methods(http.MethodGet)

	api := r.router.PathPrefix("/api/agenda").Subrouter()

	// Health check (public)
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	manage := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireScheduleManager(h)
	}

	// Weekly schedules
	protected.Handle("/schedules", manage(r.scheduleHandler.CreateSchedule)).Methods(http.MethodPost)
	protected.HandleFunc("/schedules", r.scheduleHandler.GetSchedules).Methods(http.MethodGet)
	protected.HandleFunc("/schedules/{id}", r.scheduleHandler.GetSchedule).Methods(http.MethodGet)
	protected.Handle("/schedules/{id}", manage(r.scheduleHandler.UpdateSchedule)).Methods(http.MethodPut)
	protected.Handle("/schedules/{id}", manage(r.scheduleHandler.DeleteSchedule)).Methods(http.MethodDelete)
	protected.HandleFunc("/provider-schedule", r.scheduleHandler.GetProviderSchedule).Methods(http.MethodGet)

	// Blocks
	protected.Handle("/blocks", manage(r.blockHandler.CreateBlock)).Methods(http.MethodPost)
	protected.HandleFunc("/blocks", r.blockHandler.GetBlocks).Methods(http.MethodGet)
	protected.HandleFunc("/blocks/{id}", r.blockHandler.GetBlock).Methods(http.MethodGet)
	protected.Handle("/blocks/{id}", manage(r.blockHandler.UpdateBlock)).Methods(http.MethodPut)
	protected.Handle("/blocks/{id}", manage(r.blockHandler.DeleteBlock)).Methods(http.MethodDelete)

	// Availability
	protected.HandleFunc("/availability", r.availabilityHandler.GetAvailability).Methods(http.MethodGet)
	protected.HandleFunc("/availability/range", r.availabilityHandler.GetAvailabilityRange).Methods(http.MethodGet)

	// Appointments: fixed paths before /{id}
	protected.HandleFunc("/appointments/check-conflicts", r.appointmentHandler.CheckConflicts).Methods(http.MethodPost)
	protected.HandleFunc("/appointments/upcoming", r.appointmentHandler.GetUpcoming).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/stats", r.appointmentHandler.GetStats).Methods(http.MethodGet)
	protected.HandleFunc("/appointments", r.appointmentHandler.CreateAppointment).Methods(http.MethodPost)
	protected.HandleFunc("/appointments", r.appointmentHandler.GetAppointments).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}", r.appointmentHandler.UpdateAppointment).Methods(http.MethodPut)
	protected.HandleFunc("/appointments/{id}", r.appointmentHandler.DeleteAppointment).Methods(http.MethodDelete)
	protected.HandleFunc("/appointments/{id}/confirm", r.appointmentHandler.ConfirmAppointment).Methods(http.MethodPost)
	protected.HandleFunc("/appointments/{id}/cancel", r.appointmentHandler.CancelAppointment).Methods(http.MethodPost)
	protected.HandleFunc("/appointments/{id}/status", r.appointmentHandler.UpdateStatus).Methods(http.MethodPatch)
	protected.HandleFunc("/appointments/{id}/reschedule", r.appointmentHandler.RescheduleAppointment).Methods(http.MethodPost)

	// Waiting list
	protected.HandleFunc("/waiting-list", r.waitingListHandler.CreateEntry).Methods(http.MethodPost)
	protected.HandleFunc("/waiting-list", r.waitingListHandler.GetEntries).Methods(http.MethodGet)
	protected.HandleFunc("/waiting-list/{id}", r.waitingListHandler.GetEntry).Methods(http.MethodGet)
	protected.HandleFunc("/waiting-list/{id}", r.waitingListHandler.UpdateEntry).Methods(http.MethodPut)
	protected.HandleFunc("/waiting-list/{id}", r.waitingListHandler.DeleteEntry).Methods(http.MethodDelete)
	protected.HandleFunc("/waiting-list/{id}/schedule", r.waitingListHandler.ScheduleEntry).Methods(http.MethodPost)

	// Audit logs (admin only)
	protected.Handle("/audit-logs", middleware.RequireAdmin(http.HandlerFunc(r.auditLogHandler.GetAuditLogs))).Methods(http.MethodGet)
	protected.Handle("/audit-logs/{id}", middleware.RequireAdmin(http.HandlerFunc(r.auditLogHandler.GetAuditLog))).Methods(http.MethodGet)

	return r.corsMiddleware.Handle(r.router)
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
