package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/medfleet/services/lorry/internal/search"
)

const defaultSearchSize = 50

// SearchHandler serves operator dashboard queries against the indexed
// transaction, verification and hold documents.
type SearchHandler struct {
	es  search.Client
	log *logrus.Logger
}

// NewSearchHandler creates a new SearchHandler instance. es may be nil when
// Elasticsearch is not configured.
func NewSearchHandler(es search.Client, log *logrus.Logger) *SearchHandler {
	return &SearchHandler{es: es, log: log}
}

// Transactions searches the indexed ledger documents
func (h *SearchHandler) Transactions(c *gin.Context) {
	h.search(c, search.IndexTransactions)
}

// Verifications searches the indexed verification documents
func (h *SearchHandler) Verifications(c *gin.Context) {
	h.search(c, search.IndexVerifications)
}

// Holds searches the indexed hold documents
func (h *SearchHandler) Holds(c *gin.Context) {
	h.search(c, search.IndexHolds)
}

func (h *SearchHandler) search(c *gin.Context, index string) {
	if h.es == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is not configured"})
		return
	}

	docs, err := h.es.SearchDocuments(c.Request.Context(), index, buildSearchQuery(c))
	if err != nil {
		h.log.WithError(err).WithField("index", index).Error("Search failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Search backend unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(docs),
		"results": docs,
	})
}

// buildSearchQuery turns the supported query params into a bool filter.
// Without filters it falls back to match_all.
func buildSearchQuery(c *gin.Context) map[string]interface{} {
	var filters []map[string]interface{}
	for _, field := range []string{"lorry_id", "driver_id", "uid", "status", "reason"} {
		if value := c.Query(field); value != "" {
			filters = append(filters, map[string]interface{}{
				"term": map[string]interface{}{field: value},
			})
		}
	}

	size := defaultSearchSize
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			size = parsed
		}
	}

	query := map[string]interface{}{"size": size}
	if len(filters) == 0 {
		query["query"] = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		query["query"] = map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		}
	}
	return query
}
