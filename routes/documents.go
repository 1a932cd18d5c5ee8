package routes

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chatbot-retrieval-core/internal/config"
	"chatbot-retrieval-core/internal/ingest"
	"chatbot-retrieval-core/internal/logger"
	"chatbot-retrieval-core/internal/queue"
	"chatbot-retrieval-core/internal/store"
	"chatbot-retrieval-core/middleware"
	"chatbot-retrieval-core/models"
	"chatbot-retrieval-core/services"
	"chatbot-retrieval-core/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"golang.org/x/time/rate"
)

const (
	// inlineChunkLimit is the largest JSON text upload chunked on the
	// request path. Anything bigger goes through the background queue.
	inlineChunkLimit = 64 * 1024

	maxUploadBytes = 20 << 20
)

func SetupDocumentRoutes(
	router *gin.Engine,
	cfg *config.Config,
	documents *store.DocumentStore,
	export *services.ExportService,
	chunker *ingest.Chunker,
	queueClient *asynq.Client,
	authMw *middleware.AuthMiddleware,
) {
	group := router.Group("/documents")
	group.Use(authMw.RequireSession())

	// Ingestion is expensive, so writes share a token bucket across the
	// process on top of the per-IP middleware limit.
	ingestLimiter := rate.NewLimiter(rate.Limit(cfg.IngestRatePerSec), int(cfg.IngestRatePerSec)+1)

	group.POST("", func(c *gin.Context) {
		if !ingestLimiter.Allow() {
			utils.RespondWithTooManyRequests(c, "Ingestion rate limit reached, retry shortly")
			return
		}

		var req models.CreateDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}
		if req.Text == "" && req.URL == "" {
			utils.RespondWithBadRequest(c, "Either text or url must be provided", nil)
			return
		}

		doc := &models.Document{
			Name:   req.Name,
			Source: models.SourceUpload,
			Status: models.StatusPending,
		}
		if req.URL != "" {
			doc.Source = models.SourceURL
			doc.SourceRef = req.URL
		}

		// Small text uploads are chunked inline so the caller can
		// retrieve against them immediately.
		if req.Text != "" && len(req.Text) <= inlineChunkLimit {
			documents.Save(c.Request.Context(), doc)
			chunks := chunker.Chunk(req.Text)
			if len(chunks) == 0 {
				documents.MarkFailed(c.Request.Context(), doc)
				utils.RespondWithBadRequest(c, "Document contains no usable text", nil)
				return
			}
			documents.SetChunks(c.Request.Context(), doc, chunks)
			c.JSON(http.StatusCreated, doc.Summary())
			return
		}

		documents.Save(c.Request.Context(), doc)

		task, err := queue.NewIngestTask(doc, req.Text, req.URL)
		if err != nil {
			documents.MarkFailed(c.Request.Context(), doc)
			utils.RespondWithInternalError(c, "Failed to create ingestion task", nil)
			return
		}

		if queueClient == nil {
			documents.MarkFailed(c.Request.Context(), doc)
			utils.RespondWithError(c, http.StatusServiceUnavailable, "queue_unavailable",
				"Background ingestion is unavailable", nil)
			return
		}

		if _, err := queueClient.Enqueue(task); err != nil {
			logger.Error("failed to enqueue ingestion", "document_id", doc.ID.Hex(), "error", err)
			documents.MarkFailed(c.Request.Context(), doc)
			utils.RespondWithInternalError(c, "Failed to enqueue ingestion task", nil)
			return
		}

		c.JSON(http.StatusAccepted, doc.Summary())
	})

	// Direct file upload. PDFs are extracted with the PDF reader, anything
	// else is treated as plain text.
	group.POST("/upload", func(c *gin.Context) {
		if !ingestLimiter.Allow() {
			utils.RespondWithTooManyRequests(c, "Ingestion rate limit reached, retry shortly")
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "Missing file field", nil)
			return
		}
		if fileHeader.Size > maxUploadBytes {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large",
				"File exceeds the upload size limit", gin.H{"limit_bytes": maxUploadBytes})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read upload", nil)
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read upload", nil)
			return
		}

		doc := &models.Document{
			Name:      fileHeader.Filename,
			Source:    models.SourceUpload,
			SourceRef: fileHeader.Filename,
			Status:    models.StatusPending,
		}

		text := string(content)
		if strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
			doc.Source = models.SourcePDF
			extracted, err := ingest.ExtractPDFText(content)
			if err != nil {
				utils.RespondWithBadRequest(c, "Could not extract text from PDF", gin.H{"error": err.Error()})
				return
			}
			text = extracted
		}

		documents.Save(c.Request.Context(), doc)
		chunks := chunker.Chunk(text)
		if len(chunks) == 0 {
			documents.MarkFailed(c.Request.Context(), doc)
			utils.RespondWithBadRequest(c, "Document contains no usable text", nil)
			return
		}
		documents.SetChunks(c.Request.Context(), doc, chunks)

		c.JSON(http.StatusCreated, doc.Summary())
	})

	group.GET("", func(c *gin.Context) {
		summaries := export.Summaries(c.Request.Context(), cfg.MaxDocuments)
		c.JSON(http.StatusOK, gin.H{
			"documents": summaries,
			"count":     len(summaries),
		})
	})

	group.GET("/export", func(c *gin.Context) {
		data, count, err := export.ExportDocumentsExcel(c.Request.Context(), cfg.MaxDocuments)
		if err != nil {
			logger.Error("document export failed", "error", err)
			utils.RespondWithInternalError(c, "Failed to build export", nil)
			return
		}

		filename := services.ExportFilename(time.Now())
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Header("X-Export-Count", strconv.Itoa(count))
		c.Data(http.StatusOK,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	})
}
