package commission

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/commission"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *commission.Service
}

func NewHandler(service *commission.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := middleware.RequireRole(model.RoleKindAdmin)

	r.GET("/commissions", admin, h.Report)
	r.POST("/commissions/close", admin, h.CloseMonth)
	r.POST("/doctors/:id/bonuses", admin, h.AddBonus)
	r.GET("/doctors/:id/bonuses", admin, h.ListBonuses)
}

// Report renders the salary table for ?month=YYYY-MM, optionally narrowed to
// one or more doctor_id values.
func (h *Handler) Report(c *gin.Context) {
	month, err := commission.ParseMonth(c.Query("month"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var doctorIDs []uuid.UUID
	for _, raw := range c.QueryArray("doctor_id") {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Field("doctor_id", "must be a valid UUID"))
			return
		}
		doctorIDs = append(doctorIDs, id)
	}

	report, err := h.service.Report(c.Request.Context(), month, doctorIDs)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, report)
}

func (h *Handler) CloseMonth(c *gin.Context) {
	month, err := commission.ParseMonth(c.Query("month"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	report, err := h.service.CloseMonth(c.Request.Context(), month)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, report)
}

func (h *Handler) AddBonus(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	var req model.AddBonusRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	bonus, err := h.service.AddDoctorBonus(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, bonus)
}

func (h *Handler) ListBonuses(c *gin.Context) {
	id, err := handler.ParamUUID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	month, err := commission.ParseMonth(c.Query("month"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	bonuses, err := h.service.ListBonuses(c.Request.Context(), id, month)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, bonuses)
}
