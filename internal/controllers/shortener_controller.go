package controllers

import (
	"errors"
	"net/http"

	"snaplink/internal/middleware"
	"snaplink/internal/models"
	"snaplink/internal/repository"
	"snaplink/internal/service"

	"github.com/gin-gonic/gin"
)

type ShortenerController struct {
	linkService service.LinkService
	baseURL     string
}

func NewShortenerController(linkService service.LinkService, baseURL string) *ShortenerController {
	return &ShortenerController{
		linkService: linkService,
		baseURL:     baseURL,
	}
}

// CreateShortLink handles POST /shorturls
func (sc *ShortenerController) CreateShortLink(c *gin.Context) {
	var req models.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Provide a valid http/https URL.",
		})
		return
	}

	response, err := sc.linkService.Create(c.Request.Context(), &req, sc.baseURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// RedirectToURL handles GET /:shortcode - records the click and redirects
func (sc *ShortenerController) RedirectToURL(c *gin.Context) {
	shortCode := c.Param("shortcode")

	visit := models.Visit{
		IPAddress: middleware.GetIP(c),
	}
	if referrer := c.GetHeader("Referer"); referrer != "" {
		visit.Referrer = &referrer
	}

	originalURL, err := sc.linkService.Resolve(c.Request.Context(), shortCode, visit)
	if err != nil {
		respondError(c, err)
		return
	}

	// 302 so clients do not cache a redirect past its expiry
	c.Redirect(http.StatusFound, originalURL)
}

// GetLinkStats handles GET /shorturls/:shortcode - returns the public stats view
func (sc *ShortenerController) GetLinkStats(c *gin.Context) {
	shortCode := c.Param("shortcode")

	stats, err := sc.linkService.Stats(c.Request.Context(), shortCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// respondError translates service failures into status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL. Provide a valid http/https URL."})
	case errors.Is(err, service.ErrInvalidShortcode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shortcode. Must be alphanumeric (dash/underscore allowed), length 4-32."})
	case errors.Is(err, service.ErrShortcodeTaken), errors.Is(err, repository.ErrDuplicateKey):
		c.JSON(http.StatusConflict, gin.H{"error": "Shortcode already in use."})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Shortcode not found"})
	case errors.Is(err, service.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Shortcode has expired"})
	case errors.Is(err, service.ErrAllocationExhausted):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not allocate a unique shortcode. Try again."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
