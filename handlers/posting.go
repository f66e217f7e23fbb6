package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talenthubhq/talenthub/db"
	"github.com/talenthubhq/talenthub/services"
)

// PostingHandler serves the posting endpoints.
type PostingHandler struct {
	Postings *services.PostingService
}

func NewPostingHandler(postings *services.PostingService) *PostingHandler {
	return &PostingHandler{Postings: postings}
}

type createPostingRequest struct {
	Title       string `json:"title" binding:"required"`
	Company     string `json:"company" binding:"required"`
	Location    string `json:"location"`
	Type        string `json:"type"`
	Salary      string `json:"salary"`
	Description string `json:"description"`
	RecruiterID string `json:"recruiter_id"` // admins only; defaults to the caller
}

func (h *PostingHandler) Create(c *gin.Context) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req createPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	posting, err := h.Postings.Create(c.Request.Context(), p, &db.Posting{
		RecruiterID: req.RecruiterID,
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		Type:        req.Type,
		Salary:      req.Salary,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, posting)
}

func (h *PostingHandler) Get(c *gin.Context) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	posting, err := h.Postings.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posting)
}

func (h *PostingHandler) List(c *gin.Context) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	postings, err := h.Postings.List(c.Request.Context(), p, parseListRequest(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"postings": postings, "count": len(postings)})
}

// ListMine serves the caller's own postings without the client having to
// filter by its own recruiter id.
func (h *PostingHandler) ListMine(c *gin.Context) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	postings, err := h.Postings.ListMine(c.Request.Context(), p, parseListRequest(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"postings": postings, "count": len(postings)})
}

func (h *PostingHandler) Update(c *gin.Context) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var changes map[string]any
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	posting, err := h.Postings.Update(c.Request.Context(), p, c.Param("id"), changes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posting)
}

func (h *PostingHandler) Delete(c *gin.Context) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if err := h.Postings.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "posting deleted"})
}
