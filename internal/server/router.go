package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hallyulab/musebook/backend/internal/auth"
	"github.com/hallyulab/musebook/backend/internal/muses"
	"go.uber.org/zap"
)

var (
	errMissingMuseService   = errors.New("muse service dependency required")
	errMissingDetailService = errors.New("detail service dependency required")
	errMissingSyncer        = errors.New("syncer dependency required")
	errMissingTokenManager  = errors.New("token manager dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// SessionTokenManager issues and validates curator session tokens.
type SessionTokenManager interface {
	IssueSessionToken(accessKey string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

type Dependencies struct {
	MuseService   *muses.Service
	DetailService *muses.DetailService
	Syncer        *muses.Syncer
	TokenManager  SessionTokenManager
	Dispatcher    *RealtimeDispatcher
	Logger        *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.MuseService == nil {
		return nil, errMissingMuseService
	}
	if deps.DetailService == nil {
		return nil, errMissingDetailService
	}
	if deps.Syncer == nil {
		return nil, errMissingSyncer
	}
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = NewRealtimeDispatcher()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		museService:   deps.MuseService,
		detailService: deps.DetailService,
		syncer:        deps.Syncer,
		tokens:        deps.TokenManager,
		dispatcher:    dispatcher,
		logger:        logger,
	}

	router.POST("/session", handler.handleSession)
	router.GET("/muses", handler.handleListMuses)
	router.GET("/muses/:id", handler.handleGetMuse)
	router.GET("/sync/status", handler.handleSyncStatus)
	router.GET("/events", handler.handleEvents)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/muses", handler.handleCreateMuse)
	protected.PATCH("/muses/:id", handler.handleUpdateMuse)
	protected.DELETE("/muses/:id", handler.handleDeleteMuse)
	protected.POST("/muses/:id/photos", handler.handleAddPhoto)
	protected.DELETE("/muses/:id/photos/:index", handler.handleRemovePhoto)
	protected.POST("/muses/:id/tab", handler.handleSetTab)
	protected.POST("/muses/:id/analysis", handler.handleAnalysis)
	protected.POST("/muses/:id/feed-sync", handler.handleFeedSync)
	protected.POST("/sync/start", handler.handleSyncStart)
	protected.POST("/sync/stop", handler.handleSyncStop)
	protected.POST("/archive/reset", handler.handleArchiveReset)

	return router, nil
}

type httpHandler struct {
	museService   *muses.Service
	detailService *muses.DetailService
	syncer        *muses.Syncer
	tokens        SessionTokenManager
	dispatcher    *RealtimeDispatcher
	logger        *zap.Logger
}

type sessionRequestPayload struct {
	AccessKey string `json:"access_key"`
}

type sessionResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleSession(c *gin.Context) {
	var request sessionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.AccessKey) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	token, expiresIn, err := h.tokens.IssueSessionToken(request.AccessKey)
	if err != nil {
		if errors.Is(err, auth.ErrBadAccessKey) {
			h.logger.Warn("access key rejected")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, sessionResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

type feedResponsePayload struct {
	Filter string       `json:"filter"`
	Count  int          `json:"count"`
	Muses  []muses.Muse `json:"muses"`
}

func (h *httpHandler) handleListMuses(c *gin.Context) {
	filter, err := muses.ParseCategoryFilter(c.Query("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_category"})
		return
	}

	feed := h.museService.Feed(filter)
	c.JSON(http.StatusOK, feedResponsePayload{
		Filter: string(filter),
		Count:  len(feed),
		Muses:  feed,
	})
}

func (h *httpHandler) handleGetMuse(c *gin.Context) {
	view, err := h.detailService.View(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "muse_not_found"})
		return
	}
	c.JSON(http.StatusOK, view)
}

type createMusePayload struct {
	Name         string `json:"name"`
	Image        string `json:"image"`
	MainCategory string `json:"main_category"`
	SubCategory  string `json:"sub_category"`
}

func (h *httpHandler) handleCreateMuse(c *gin.Context) {
	var request createMusePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	mainCategory, err := muses.ParseMainCategory(request.MainCategory)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_main_category"})
		return
	}
	subCategory, err := muses.ParseSubCategory(request.SubCategory)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_sub_category"})
		return
	}

	created, err := h.museService.Create(muses.CreateRequest{
		Name:         request.Name,
		Image:        request.Image,
		MainCategory: mainCategory,
		SubCategory:  subCategory,
	})
	switch {
	case errors.Is(err, muses.ErrNameRequired), errors.Is(err, muses.ErrImageRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "missing_required_field"})
		return
	case err != nil:
		h.logger.Error("failed to create muse", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}

	h.publishChange(created.ID)
	c.JSON(http.StatusCreated, created)
}

type updateMusePayload struct {
	Name         *string           `json:"name"`
	MainCategory *string           `json:"main_category"`
	SubCategory  *string           `json:"sub_category"`
	GroupName    *string           `json:"group_name"`
	PlatformName *string           `json:"platform_name"`
	MainImage    *string           `json:"main_image"`
	Tags         *[]string         `json:"tags"`
	Info         *muses.PersonInfo `json:"info"`
	InstagramURL *string           `json:"instagram_url"`
}

func (h *httpHandler) handleUpdateMuse(c *gin.Context) {
	var request updateMusePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	patch := muses.MusePatch{
		Name:         request.Name,
		GroupName:    request.GroupName,
		PlatformName: request.PlatformName,
		MainImage:    request.MainImage,
		Tags:         request.Tags,
		Info:         request.Info,
		InstagramURL: request.InstagramURL,
	}
	if request.MainCategory != nil {
		mainCategory, err := muses.ParseMainCategory(*request.MainCategory)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_main_category"})
			return
		}
		patch.MainCategory = &mainCategory
	}
	if request.SubCategory != nil {
		subCategory, err := muses.ParseSubCategory(*request.SubCategory)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_sub_category"})
			return
		}
		patch.SubCategory = &subCategory
	}

	updated, err := h.museService.Update(c.Param("id"), patch)
	switch {
	case errors.Is(err, muses.ErrInvalidMuseID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_muse_id"})
		return
	case err != nil:
		c.JSON(http.StatusNotFound, gin.H{"error": "muse_not_found"})
		return
	}

	h.publishChange(updated.ID)
	c.JSON(http.StatusOK, updated)
}

type confirmPayload struct {
	Confirm bool `json:"confirm"`
}

// bindConfirmation turns the request's confirm flag into the confirmation
// capability the core mutation call sites take.
func bindConfirmation(c *gin.Context) muses.ConfirmFunc {
	var request confirmPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		return func() bool { return false }
	}
	return func() bool { return request.Confirm }
}

func (h *httpHandler) handleDeleteMuse(c *gin.Context) {
	id := c.Param("id")
	err := h.museService.Delete(id, bindConfirmation(c))
	switch {
	case errors.Is(err, muses.ErrInvalidMuseID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_muse_id"})
	case errors.Is(err, muses.ErrNotConfirmed):
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "confirmation_required"})
	case errors.Is(err, muses.ErrMuseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "muse_not_found"})
	case err != nil:
		h.logger.Error("failed to delete muse", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
	default:
		h.publishChange(id)
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

type addPhotoPayload struct {
	URL string `json:"url"`
}

func (h *httpHandler) handleAddPhoto(c *gin.Context) {
	var request addPhotoPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	updated, err := h.museService.AddPhoto(c.Param("id"), request.URL)
	switch {
	case errors.Is(err, muses.ErrInvalidMuseID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_muse_id"})
		return
	case err != nil:
		c.JSON(http.StatusNotFound, gin.H{"error": "muse_not_found"})
		return
	}

	h.publishChange(updated.ID)
	c.JSON(http.StatusOK, updated)
}

func (h *httpHandler) handleRemovePhoto(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_index"})
		return
	}

	updated, err := h.museService.RemovePhoto(c.Param("id"), index, bindConfirmation(c))
	switch {
	case errors.Is(err, muses.ErrInvalidMuseID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_muse_id"})
	case errors.Is(err, muses.ErrNotConfirmed):
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "confirmation_required"})
	case errors.Is(err, muses.ErrMuseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "muse_not_found"})
	case err != nil:
		h.logger.Error("failed to remove photo", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove_failed"})
	default:
		h.publishChange(updated.ID)
		c.JSON(http.StatusOK, updated)
	}
}

type setTabPayload struct {
	Tab string `json:"tab"`
}

func (h *httpHandler) handleSetTab(c *gin.Context) {
	var request setTabPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	tab, err := muses.ParseTab(request.Tab)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_tab"})
		return
	}
	if err := h.detailService.SetTab(c.Param("id"), tab); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "muse_not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tab": string(tab)})
}

type analysisResponsePayload struct {
	MuseID   string `json:"muse_id"`
	Analysis string `json:"analysis"`
}

func (h *httpHandler) handleAnalysis(c *gin.Context) {
	id := c.Param("id")
	result, err := h.detailService.RequestAnalysis(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "muse_not_found"})
		return
	}
	c.JSON(http.StatusOK, analysisResponsePayload{MuseID: id, Analysis: result})
}

func (h *httpHandler) handleFeedSync(c *gin.Context) {
	id := c.Param("id")
	_, err := h.detailService.FeedSync(id, bindConfirmation(c))
	switch {
	case errors.Is(err, muses.ErrNotConfirmed):
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "confirmation_required"})
	case errors.Is(err, muses.ErrNoExternalProfile):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no_external_profile"})
	case errors.Is(err, muses.ErrMuseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "muse_not_found"})
	case err != nil:
		h.logger.Error("failed to start feed sync", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "feed_sync_failed"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"muse_id": id, "syncing": true})
	}
}

type syncStatusPayload struct {
	Syncing     bool   `json:"syncing"`
	LastUpdated string `json:"last_updated,omitempty"`
}

func (h *httpHandler) syncStatus() syncStatusPayload {
	status := syncStatusPayload{Syncing: h.syncer.Syncing()}
	if at, ok := h.syncer.LastUpdated(); ok {
		status.LastUpdated = at.Format("15:04")
	}
	return status
}

func (h *httpHandler) handleSyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.syncStatus())
}

func (h *httpHandler) handleSyncStart(c *gin.Context) {
	h.syncer.Start()
	c.JSON(http.StatusOK, h.syncStatus())
}

func (h *httpHandler) handleSyncStop(c *gin.Context) {
	h.syncer.Stop()
	c.JSON(http.StatusOK, h.syncStatus())
}

func (h *httpHandler) handleArchiveReset(c *gin.Context) {
	err := h.museService.ResetArchive(bindConfirmation(c))
	if errors.Is(err, muses.ErrNotConfirmed) {
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "confirmation_required"})
		return
	}
	if err != nil {
		h.logger.Error("failed to reset archive", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset_failed"})
		return
	}

	h.dispatcher.Publish(RealtimeMessage{
		EventType: RealtimeEventArchiveReset,
		Timestamp: time.Now().UTC(),
	})
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (h *httpHandler) publishChange(museID string) {
	h.dispatcher.Publish(RealtimeMessage{
		EventType: RealtimeEventMuseChanged,
		MuseIDs:   []string{museID},
		Timestamp: time.Now().UTC(),
	})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	if _, err := h.tokens.ValidateToken(token); err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}
