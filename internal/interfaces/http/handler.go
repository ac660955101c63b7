package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"project_canvass/internal/entities"
	"project_canvass/internal/infrastructure"
	"project_canvass/internal/usecases"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type Handler struct {
	voterUsecase  *usecases.VoterUsecase
	surveyUsecase *usecases.SurveyUsecase
	pg            *infrastructure.PostgresClient
	inactivityMin int
}

func NewHandler(voters *usecases.VoterUsecase, surveys *usecases.SurveyUsecase, pg *infrastructure.PostgresClient, inactivityMin int) *Handler {
	return &Handler{
		voterUsecase:  voters,
		surveyUsecase: surveys,
		pg:            pg,
		inactivityMin: inactivityMin,
	}
}

func SetupRoutes(r *gin.Engine, auth *usecases.AuthUsecase, voters *usecases.VoterUsecase, surveys *usecases.SurveyUsecase, admin *usecases.AdminUsecase, pg *infrastructure.PostgresClient, loginLimiter *infrastructure.LoginRateLimiter, middleware *Middleware, inactivityMin int) {
	h := NewHandler(voters, surveys, pg, inactivityMin)
	authHandler := NewAuthHandler(auth, loginLimiter, inactivityMin)
	adminHandler := NewAdminHandler(admin)

	// Apply Security Middleware
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(10 << 20)) // 10MB max request size
	r.Use(middleware.CORSMiddleware())

	// Public Routes
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.POST("/login", authHandler.Login)

	// Protected Routes
	api := r.Group("/")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerUser(rate.Limit(10), 30))
	{
		api.GET("/me", authHandler.Me)
		api.POST("/activity/update", authHandler.UpdateActivity)
		api.POST("/logout", authHandler.Logout)
		api.POST("/refresh-session", authHandler.RefreshSession)
		api.GET("/session/status", authHandler.SessionStatus)
		api.GET("/user/profile", adminHandler.Profile)
		api.GET("/user/status", adminHandler.UserStatus)

		api.GET("/users", adminHandler.ListUsers)
		api.POST("/add-subuser", adminHandler.AddSubUser)
		api.POST("/admin/set-allocation", adminHandler.SetAllocation)

		api.GET("/voters", h.Voters)
		api.GET("/voters/list", h.VoterList)
		api.GET("/voters/filters", h.VoterFilters)
		api.GET("/voters/summary", h.VoterSummary)
		api.GET("/voters/export", h.ExportVoters)
		api.GET("/voters_surname", h.VotersBySurname)
		api.GET("/voters-data", h.VotersData)

		api.POST("/submit-survey", h.SubmitSurvey)
		api.GET("/surveys", h.Surveys)
	}
}

// abortWith maps domain errors onto HTTP status codes.
func abortWith(c *gin.Context, err error) {
	var quotaErr *entities.QuotaError

	switch {
	case errors.Is(err, entities.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials"})
	case errors.Is(err, entities.ErrAlreadyLoggedIn):
		c.JSON(http.StatusForbidden, gin.H{"detail": "This account is already logged in from another device"})
	case errors.Is(err, entities.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": "Admin access required"})
	case errors.Is(err, entities.ErrSectionMismatch):
		c.JSON(http.StatusForbidden, gin.H{"detail": "Family head does not belong to your Section"})
	case errors.Is(err, entities.ErrNoSectionAssigned):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No section assigned to user"})
	case errors.Is(err, entities.ErrHeadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Family head not found"})
	case errors.Is(err, entities.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
	case errors.Is(err, entities.ErrUsernameTaken):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Username already exists"})
	case errors.As(err, &quotaErr):
		c.JSON(http.StatusForbidden, gin.H{"detail": quotaErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
	}
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Canvassing API is running"})
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.pg.Pool.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"status":    "DOWN",
			"database":  "DISCONNECTED",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                     "UP",
		"database":                   "CONNECTED",
		"inactivity_timeout_minutes": h.inactivityMin,
		"timestamp":                  time.Now().UTC().Format(time.RFC3339),
	})
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Voters is the lightweight roll listing used by the search screen.
func (h *Handler) Voters(c *gin.Context) {
	identity := CurrentIdentity(c)

	limit, offset := ClampPage(queryInt(c, "limit", 1000), queryInt(c, "offset", 0))
	f := entities.VoterFilter{
		Search: SanitizeString(c.Query("search")),
		Limit:  limit,
		Offset: offset,
	}

	rows, total, err := h.voterUsecase.List(c.Request.Context(), identity, f)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "rows": rows})
}

// VoterList is the filtered listing behind the table view.
func (h *Handler) VoterList(c *gin.Context) {
	identity := CurrentIdentity(c)

	limit, offset := ClampPage(queryInt(c, "limit", DefaultPageSize), queryInt(c, "offset", 0))
	f := entities.VoterFilter{
		Search:  SanitizeString(c.Query("search")),
		Address: SanitizeString(c.Query("address")),
		PartNo:  c.Query("partno"),
		Sex:     c.Query("sex"),
		Limit:   limit,
		Offset:  offset,
	}
	if v := c.Query("visited"); v != "" {
		visited := v == "true" || v == "1"
		f.Visited = &visited
	}
	if v := c.Query("min_age"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MinAge = &n
		}
	}
	if v := c.Query("max_age"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MaxAge = &n
		}
	}

	rows, total, err := h.voterUsecase.List(c.Request.Context(), identity, f)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "rows": rows})
}

func (h *Handler) VoterFilters(c *gin.Context) {
	identity := CurrentIdentity(c)

	filters, err := h.voterUsecase.Filters(c.Request.Context(), identity)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, filters)
}

func (h *Handler) VoterSummary(c *gin.Context) {
	identity := CurrentIdentity(c)

	summary, err := h.voterUsecase.Summary(c.Request.Context(), identity)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) VotersBySurname(c *gin.Context) {
	identity := CurrentIdentity(c)

	limit, offset := ClampPage(queryInt(c, "limit", MaxPageSize), queryInt(c, "offset", 0))
	groups, total, err := h.voterUsecase.SurnameGroups(c.Request.Context(), identity,
		SanitizeString(c.Query("surname")), limit, offset)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "surnames": groups})
}

// VotersData serves the grouped views (surname, part, address, ward, gender).
func (h *Handler) VotersData(c *gin.Context) {
	identity := CurrentIdentity(c)
	if identity.SectionNo == nil {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Section not assigned to user"})
		return
	}

	view := c.Query("view_type")
	limit, offset := ClampPage(queryInt(c, "limit", DefaultPageSize), queryInt(c, "offset", 0))
	f := entities.GroupFilter{
		Surname: SanitizeString(c.Query("surname")),
		PartNo:  c.Query("part_no"),
		Address: SanitizeString(c.Query("address")),
		Search:  SanitizeString(c.Query("search")),
		Gender:  c.Query("gender"),
	}

	groups, total, err := h.voterUsecase.GroupedView(c.Request.Context(), identity, view, f, limit, offset)
	if err != nil {
		if errors.Is(err, entities.ErrInvalidGroupView) {
			c.JSON(http.StatusOK, gin.H{
				"type":    view,
				"status":  false,
				"message": "Invalid or unsupported view type",
			})
			return
		}
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":         view,
		"status":       true,
		"section":      *identity.SectionNo,
		"total_groups": total,
		"data":         groups,
	})
}

type surveyRequest struct {
	FamilyHeadID      int    `json:"family_head_id" binding:"required"`
	SelectedFamilyIDs []int  `json:"selected_family_ids"`
	HouseNumber       string `json:"house_number"`
	Landmark          string `json:"landmark"`
	Mobile            string `json:"mobile"`
	Caste             string `json:"caste"`
	Visited           *bool  `json:"visited"`
}

func (h *Handler) SubmitSurvey(c *gin.Context) {
	identity := CurrentIdentity(c)

	var req surveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}

	visited := true
	if req.Visited != nil {
		visited = *req.Visited
	}

	sub := entities.SurveySubmission{
		FamilyHeadID:      req.FamilyHeadID,
		SelectedFamilyIDs: req.SelectedFamilyIDs,
		HouseNumber:       SanitizeString(TruncateString(req.HouseNumber, MaxFieldLength)),
		Landmark:          SanitizeString(TruncateString(req.Landmark, MaxFieldLength)),
		Mobile:            SanitizeString(TruncateString(req.Mobile, 20)),
		Caste:             SanitizeString(TruncateString(req.Caste, 100)),
		Visited:           visited,
	}

	surveyNo, err := h.surveyUsecase.Submit(c.Request.Context(), identity, sub)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"survey_no":     surveyNo,
		"marked_voters": len(sub.SelectedFamilyIDs),
	})
}

func (h *Handler) Surveys(c *gin.Context) {
	identity := CurrentIdentity(c)

	limit, offset := ClampPage(queryInt(c, "limit", DefaultPageSize), queryInt(c, "offset", 0))
	surveys, total, err := h.surveyUsecase.List(c.Request.Context(), identity, limit, offset)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "rows": surveys})
}
