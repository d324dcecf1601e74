package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/appointment"
	"github.com/jwalitptl/clinic-api/internal/service/medical"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
	medical *medical.Service
}

func NewHandler(service *appointment.Service, medical *medical.Service) *Handler {
	return &Handler{service: service, medical: medical}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	front := middleware.RequireRole(model.RoleKindAdmin, model.RoleKindReceptionist)

	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.GET("/conflicts", h.CheckConflict)
		appointments.GET("/quote", h.Quote)
		appointments.GET("/availability", h.Availability)
		appointments.POST("", front, h.CreateAppointment)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id/schedule", front, h.Reschedule)
		appointments.PUT("/:id/pricing", front, h.UpdatePricing)
		appointments.POST("/:id/cancel", front, h.Cancel)
		appointments.POST("/:id/no-show", front, h.MarkNoShow)
		appointments.POST("/:id/complete", middleware.RequireRole(model.RoleKindAdmin, model.RoleKindDoctor), h.Complete)
		appointments.GET("/:id/medical-record", h.GetMedicalRecord)
		appointments.GET("/:id/invoice", h.GetInvoice)
		appointments.DELETE("/:id", middleware.RequireRole(model.RoleKindAdmin), h.DeleteAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	apt, err := h.service.CreateAppointment(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	apt, err := h.service.GetAppointment(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var (
		filters model.AppointmentFilters
		err     error
	)
	if filters.ClinicID, err = handler.QueryUUID(c, "clinic_id"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if filters.DoctorID, err = handler.QueryUUID(c, "doctor_id"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if filters.PatientID, err = handler.QueryUUID(c, "patient_id"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if filters.From, err = handler.QueryDate(c, "from"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if filters.To, err = handler.QueryDate(c, "to"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if filters.Pagination, err = handler.Pagination(c); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
		if !filters.Status.Valid() {
			httputil.RespondWithError(c, apperrors.Field("status", "must be one of scheduled completed cancelled no_show"))
			return
		}
	}

	// doctors only see their own schedule
	if principal, ok := middleware.PrincipalFrom(c); ok {
		if role, isDoctor := principal.Role.(model.DoctorRole); isDoctor {
			filters.DoctorID = &role.DoctorID
		}
	}

	appointments, err := h.service.ListAppointments(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) CheckConflict(c *gin.Context) {
	var q model.ConflictQuery
	if err := handler.BindQuery(c, &q); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	conflict, err := h.service.CheckConflict(c.Request.Context(), &q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"has_conflict": conflict})
}

func (h *Handler) Quote(c *gin.Context) {
	var q model.Quote
	if err := handler.BindQuery(c, &q); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	quote, err := h.service.Quote(&q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, quote)
}

func (h *Handler) Availability(c *gin.Context) {
	var q model.AvailabilityQuery
	if err := handler.BindQuery(c, &q); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	slots, err := h.service.AvailableSlots(c.Request.Context(), &q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var req model.RescheduleAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	apt, err := h.service.RescheduleAppointment(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) UpdatePricing(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var req model.UpdatePricingRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	apt, err := h.service.UpdatePricing(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	// the reason is optional, so an empty body is fine
	var req model.CancelAppointmentRequest
	if c.Request.ContentLength != 0 {
		if err := handler.BindJSON(c, &req); err != nil {
			httputil.RespondWithError(c, err)
			return
		}
	}

	apt, err := h.service.CancelAppointment(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	apt, err := h.service.MarkNoShow(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var req model.CompleteAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.authorizeDoctor(c, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	completion, err := h.service.CompleteAppointment(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, completion)
}

func (h *Handler) GetMedicalRecord(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if err := h.authorizeDoctor(c, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	record, err := h.medical.GetRecord(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, record)
}

func (h *Handler) GetInvoice(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	invoice, err := h.medical.GetInvoice(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, invoice)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.DeleteAppointment(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// authorizeDoctor restricts doctors to their own appointments. Other roles
// pass through.
func (h *Handler) authorizeDoctor(c *gin.Context, appointmentID uuid.UUID) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return nil
	}
	role, isDoctor := principal.Role.(model.DoctorRole)
	if !isDoctor {
		return nil
	}

	apt, err := h.service.GetAppointment(c.Request.Context(), appointmentID)
	if err != nil {
		return err
	}
	if apt.DoctorID != role.DoctorID {
		return apperrors.Forbidden("appointment belongs to another doctor")
	}
	return nil
}
