package web

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"ninlil/pkg/config"
	errs "ninlil/pkg/errors"
	"ninlil/pkg/jobs"
	"ninlil/pkg/logger"
	"ninlil/pkg/oauth"
	"ninlil/pkg/storage"
	"ninlil/pkg/tumblr"
)

// archiveRequest is what a browser asked for, held while the user authorizes
type archiveRequest struct {
	SessionID string
	Blog      string
	Range     tumblr.DateRange
}

func (r archiveRequest) key() string {
	return r.SessionID + "|" + r.Blog + "|" + r.Range.String()
}

// Handler serves the archive session flow: request, authorize, build, download
type Handler struct {
	flow        *oauth.Flow
	pending     *oauth.PendingStore[archiveRequest]
	registry    *jobs.Registry
	newArchiver ArchiverFactory
	storage     *storage.Manager
	publicURL   string
	logger      logger.Logger
}

// NewHandler creates the archive handlers. Finished archives are moved into
// the output directory managed by store.
func NewHandler(cfg *config.Config, flow *oauth.Flow, newArchiver ArchiverFactory, store *storage.Manager, log logger.Logger) *Handler {
	if log == nil {
		log = logger.GetLogger()
	}
	publicURL := strings.TrimSuffix(cfg.Server.PublicURL, "/")

	return &Handler{
		flow:        flow.WithCallback(publicURL + "/archive/callback"),
		pending:     oauth.NewPendingStore[archiveRequest](cfg.Server.PendingTTL),
		registry:    jobs.NewRegistry(cfg.Server.PendingTTL * 4),
		newArchiver: newArchiver,
		storage:     store,
		publicURL:   publicURL,
		logger:      log,
	}
}

// Register mounts the handlers on router
func (h *Handler) Register(router gin.IRouter) {
	router.GET("/healthz", h.Health)

	group := router.Group("/archive")
	group.POST("", h.StartArchive)
	group.GET("/callback", h.Callback)
	group.GET("/jobs/:id", h.JobStatus)
	group.GET("/jobs/:id/download", h.Download)
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StartArchive validates the request, starts the OAuth handshake and
// redirects the browser to the provider's authorization page
func (h *Handler) StartArchive(c *gin.Context) {
	blog := tumblr.NormalizeBlog(c.PostForm("blog"))
	if blog == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "blog is required"})
		return
	}

	r, err := tumblr.ParseDateRange(c.PostForm("start_date"), c.PostForm("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := archiveRequest{SessionID: sessionID(c), Blog: blog, Range: r}
	if job, ok := h.registry.Active(req.key()); ok {
		c.JSON(http.StatusConflict, gin.H{"error": jobs.ErrInProgress.Error(), "job_id": job.ID})
		return
	}

	p, err := h.flow.Start(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not start authorization with Tumblr"})
		return
	}
	h.pending.Put(*p, req)

	h.logger.InfoWithFields("archive requested", map[string]interface{}{
		"blog":       blog,
		"date_range": r.String(),
	})
	c.Redirect(http.StatusFound, p.AuthorizationURL)
}

// Callback completes the handshake and builds the archive for the request it belongs to
func (h *Handler) Callback(c *gin.Context) {
	requestToken, verifier, err := oauth.ParseCallback(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	p, req, err := h.pending.Take(requestToken)
	if err != nil || req.SessionID != sessionID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": oauth.ErrUnknownRequestToken.Error()})
		return
	}

	ctx := c.Request.Context()
	creds, err := h.flow.Complete(ctx, p.RequestToken, p.RequestSecret, verifier)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization with Tumblr failed"})
		return
	}

	job, err := h.registry.Begin(req.key())
	if errors.Is(err, jobs.ErrInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "job_id": job.ID})
		return
	}

	log := h.logger.WithFields(map[string]interface{}{
		"job_id": job.ID,
		"blog":   req.Blog,
	})

	result, err := h.newArchiver(h.flow.HTTPClient(ctx, creds)).SavePhotos(ctx, req.Blog, req.Range)
	if err == nil {
		result.Path, err = h.storage.Relocate(result.Path)
	}
	if err != nil {
		_ = c.Error(err)
		failed, _ := h.registry.Fail(job.ID, err)
		log.WithError(err).Error("archive job failed")
		c.JSON(statusFor(err), h.jobBody(failed))
		return
	}

	ready, err := h.registry.Complete(job.ID, result)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.InfoWithFields("archive job ready", map[string]interface{}{
		"entries": ready.Entries,
		"skipped": len(ready.Skipped),
	})
	c.JSON(http.StatusOK, h.jobBody(ready))
}

// JobStatus reports a job owned by the caller's session
func (h *Handler) JobStatus(c *gin.Context) {
	job, ok := h.ownedJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.jobBody(job))
}

// Download serves a ready archive as an attachment
func (h *Handler) Download(c *gin.Context) {
	job, ok := h.ownedJob(c)
	if !ok {
		return
	}
	if job.Status != jobs.StatusReady {
		c.JSON(http.StatusConflict, h.jobBody(job))
		return
	}
	c.FileAttachment(job.Path, filepath.Base(job.Path))
}

func (h *Handler) ownedJob(c *gin.Context) (jobs.Job, bool) {
	job, err := h.registry.Get(c.Param("id"))
	if err != nil || !strings.HasPrefix(job.Key, sessionID(c)+"|") {
		c.JSON(http.StatusNotFound, gin.H{"error": jobs.ErrNotFound.Error()})
		return jobs.Job{}, false
	}
	return job, true
}

func (h *Handler) jobBody(job jobs.Job) gin.H {
	body := gin.H{
		"job_id":  job.ID,
		"status":  job.Status,
		"entries": job.Entries,
	}
	if len(job.Skipped) > 0 {
		body["skipped"] = job.Skipped
	}
	if job.Error != "" {
		body["error"] = job.Error
	}
	if job.Status == jobs.StatusReady {
		body["download_url"] = h.publicURL + "/archive/jobs/" + job.ID + "/download"
	}
	return body
}

// statusFor maps a failed job onto the response status shown to the browser
func statusFor(err error) int {
	switch {
	case errs.Is(err, errs.ErrorTypeAuth):
		return http.StatusUnauthorized
	case errs.Is(err, errs.ErrorTypeNotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.ErrorTypeNetwork),
		errs.Is(err, errs.ErrorTypeRemoteAPI),
		errs.Is(err, errs.ErrorTypeServerError),
		errs.Is(err, errs.ErrorTypeRateLimit):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
