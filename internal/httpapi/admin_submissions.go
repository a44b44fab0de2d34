package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"form-shield/internal/audit"
	"form-shield/internal/submission"
)

const maxPageSize = 100

// ListSubmissions returns one page of records. The unpaged total is sent in
// X-Total-Count.
func (h Handlers) ListSubmissions(c *gin.Context) {
	if h.Submissions == nil {
		notConfigured(c, "submissions")
		return
	}
	f, ok := submissionFilter(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	total, err := h.Submissions.Count(ctx, f)
	if err != nil {
		fail(c, err)
		return
	}
	recs, err := h.Submissions.List(ctx, f)
	if err != nil {
		fail(c, err)
		return
	}
	if recs == nil {
		recs = []submission.Record{}
	}
	c.Header("X-Total-Count", strconv.Itoa(total))
	c.JSON(http.StatusOK, recs)
}

func submissionFilter(c *gin.Context) (submission.Filter, bool) {
	f := submission.Filter{
		Status:   submission.Status(c.Query("status")),
		FormType: c.Query("form_type"),
		FormID:   c.Query("form_id"),
		Search:   c.Query("search"),
		OrderBy:  c.Query("orderby"),
		Order:    c.Query("order"),
	}
	if f.Status != "" && !submission.ValidStatus(f.Status) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return f, false
	}

	page, perPage := 1, 20
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return f, false
		}
		page = n
	}
	if v := c.Query("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid per_page"})
			return f, false
		}
		perPage = min(n, maxPageSize)
	}
	f.Limit = perPage
	f.Offset = (page - 1) * perPage

	for _, d := range []struct {
		param string
		dst   *time.Time
	}{{"date_from", &f.DateFrom}, {"date_to", &f.DateTo}} {
		v := c.Query(d.param)
		if v == "" {
			continue
		}
		t, err := parseDate(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + d.param})
			return f, false
		}
		*d.dst = t
	}
	if !f.DateTo.IsZero() && len(c.Query("date_to")) == len(time.DateOnly) {
		// A bare date includes the whole day.
		f.DateTo = f.DateTo.Add(24*time.Hour - time.Nanosecond)
	}
	return f, true
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, v)
}

func (h Handlers) GetSubmission(c *gin.Context) {
	if h.Submissions == nil {
		notConfigured(c, "submissions")
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	rec, err := h.Submissions.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type statusRequest struct {
	Status submission.Status `json:"status"`
}

// UpdateSubmissionStatus overrides the stored status. The pipeline is not
// re-run and the score is left as it was.
func (h Handlers) UpdateSubmissionStatus(c *gin.Context) {
	if h.Submissions == nil {
		notConfigured(c, "submissions")
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !submission.ValidStatus(req.Status) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	if err := h.Submissions.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		fail(c, err)
		return
	}
	h.record(c, audit.EventStatusChange, strconv.FormatInt(id, 10), "status set to "+string(req.Status), nil)
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

type bulkRequest struct {
	Action submission.BulkAction `json:"action"`
	IDs    []int64               `json:"ids"`
}

func (h Handlers) BulkSubmissions(c *gin.Context) {
	if h.Submissions == nil {
		notConfigured(c, "submissions")
		return
	}
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := h.Submissions.Bulk(c.Request.Context(), req.Action, req.IDs)
	if err != nil {
		fail(c, err)
		return
	}
	h.record(c, audit.EventBulkAction, "", string(req.Action), gin.H{"ids": req.IDs, "updated": res.Updated})
	c.JSON(http.StatusOK, res)
}
