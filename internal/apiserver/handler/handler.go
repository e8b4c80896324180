package handler

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bellalabs/bellaprep/internal/apiserver/database"
	"github.com/bellalabs/bellaprep/internal/apiserver/middleware"
	"github.com/bellalabs/bellaprep/internal/audit"
	"github.com/bellalabs/bellaprep/internal/auth/jwt"
	"github.com/bellalabs/bellaprep/internal/auth/rbac"
	"github.com/bellalabs/bellaprep/internal/bella"
	"github.com/bellalabs/bellaprep/internal/common/dto"
	"github.com/bellalabs/bellaprep/internal/common/errorx"
	"github.com/bellalabs/bellaprep/internal/loan"
	"github.com/bellalabs/bellaprep/pkg/crypto"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	db     database.Database
	loans  *loan.Service
	sink   *audit.Sink
	jwt    *jwt.Service
	bella  *bella.Client
	sealer *crypto.Sealer
	errs   *errorx.ErrorHandler
	logger *zap.Logger
}

// New creates the handler.
func New(
	db database.Database,
	loans *loan.Service,
	sink *audit.Sink,
	jwtService *jwt.Service,
	bellaClient *bella.Client,
	sealer *crypto.Sealer,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		db:     db,
		loans:  loans,
		sink:   sink,
		jwt:    jwtService,
		bella:  bellaClient,
		sealer: sealer,
		errs:   errorx.NewErrorHandler(logger),
		logger: logger.Named("handler"),
	}
}

// actor builds the lifecycle actor from the authenticated claims. The
// tenant resolver has already pinned claims to the resolved tenant.
func actor(c *gin.Context) (loan.Actor, bool) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return loan.Actor{}, false
	}
	tenantID := claims.TenantID
	if claims.Role == string(rbac.RoleSuperAdmin) {
		if tenant, ok := middleware.TenantFromContext(c); ok {
			tenantID = tenant.ID
		}
	}
	return loan.Actor{
		UserID:   claims.UserID,
		TenantID: tenantID,
		Role:     claims.Role,
	}, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.errs.HandleError(c, err)
}

func listEnvelope(items any, total int64, page, pageSize int) dto.ListResponse {
	return dto.ListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}
}

func pageParams(c *gin.Context) (int, int) {
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "pageSize", 50)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return page, pageSize
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}
