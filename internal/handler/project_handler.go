package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/dharnesh67/neurohub/internal/domain"
	"github.com/dharnesh67/neurohub/internal/port"
	"github.com/dharnesh67/neurohub/internal/service"
)

// ProjectHandler handles project lifecycle and the pipeline triggers.
type ProjectHandler struct {
	projects   port.ProjectStore
	commits    port.CommitStore
	embeddings port.EmbeddingStore
	ingestor   *service.CommitService
	indexer    *service.IndexService
	tracker    *JobTracker
}

// NewProjectHandler creates a project handler.
func NewProjectHandler(
	projects port.ProjectStore,
	commits port.CommitStore,
	embeddings port.EmbeddingStore,
	ingestor *service.CommitService,
	indexer *service.IndexService,
	tracker *JobTracker,
) *ProjectHandler {
	return &ProjectHandler{
		projects:   projects,
		commits:    commits,
		embeddings: embeddings,
		ingestor:   ingestor,
		indexer:    indexer,
		tracker:    tracker,
	}
}

// Register sets up project routes.
func (h *ProjectHandler) Register(router fiber.Router) {
	projects := router.Group("/projects")
	projects.Post("/", h.Create)
	projects.Get("/", h.List)
	projects.Get("/:id", h.Get)
	projects.Delete("/:id", h.Delete)
	projects.Post("/:id/refresh", h.Refresh)
	projects.Get("/:id/commits", h.ListCommits)
	projects.Get("/:id/stats", h.Stats)
}

// Create registers a project and kicks off the ingest-and-index pipeline in
// the background.
func (h *ProjectHandler) Create(c fiber.Ctx) error {
	var body struct {
		Name        string `json:"name"`
		RepoURL     string `json:"repo_url"`
		AccessToken string `json:"access_token"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Name == "" || body.RepoURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and repo_url are required"})
	}

	project, err := h.projects.CreateProject(c.Context(), &domain.Project{
		Name:        body.Name,
		RepoURL:     body.RepoURL,
		AccessToken: body.AccessToken,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	jobID := h.startPipeline(project.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"project": project,
		"job_id":  jobID,
	})
}

// List returns all projects.
func (h *ProjectHandler) List(c fiber.Ctx) error {
	projects, err := h.projects.ListProjects(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"projects": projects})
}

// Get returns a single project.
func (h *ProjectHandler) Get(c fiber.Ctx) error {
	project, err := h.projects.GetProjectByID(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(project)
}

// Delete soft-deletes a project.
func (h *ProjectHandler) Delete(c fiber.Ctx) error {
	err := h.projects.DeleteProject(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// Refresh re-runs the commit and file pipelines for a project.
func (h *ProjectHandler) Refresh(c fiber.Ctx) error {
	projectID := c.Params("id")
	if _, err := h.projects.GetProjectByID(c.Context(), projectID); err != nil {
		if errors.Is(err, port.ErrProjectNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	jobID := h.startPipeline(projectID)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": jobID})
}

// ListCommits returns a project's commits, newest first.
func (h *ProjectHandler) ListCommits(c fiber.Ctx) error {
	commits, err := h.commits.ListCommits(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"commits": commits})
}

// Stats returns a project's commit and file counters.
func (h *ProjectHandler) Stats(c fiber.Ctx) error {
	projectID := c.Params("id")

	commitCount, err := h.commits.CountCommits(c.Context(), projectID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	fileCount, err := h.embeddings.CountSourceEmbeddings(c.Context(), projectID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(domain.ProjectStats{CommitCount: commitCount, FileCount: fileCount})
}

// startPipeline runs commit ingestion followed by repository indexing in the
// background, detached from the request context, reporting progress through
// the job tracker.
func (h *ProjectHandler) startPipeline(projectID string) string {
	jobID := uuid.NewString()
	h.tracker.CreateJob(jobID, projectID)

	go func() {
		ctx := context.Background()

		pull, err := h.ingestor.PullCommits(ctx, projectID)
		if err != nil {
			slog.Error("commit ingestion failed", "project_id", projectID, "error", err)
			h.tracker.UpdateJob(jobID, func(j *JobStatus) {
				j.Status = "error"
				j.Error = err.Error()
			})
			return
		}
		h.tracker.UpdateJob(jobID, func(j *JobStatus) {
			j.Stage = StageFiles
			j.CommitsProcessed = pull.Processed
		})

		index, err := h.indexer.IndexRepository(ctx, projectID)
		if err != nil {
			slog.Error("repository indexing failed", "project_id", projectID, "error", err)
			h.tracker.UpdateJob(jobID, func(j *JobStatus) {
				j.Status = "error"
				j.Error = err.Error()
			})
			return
		}
		h.tracker.UpdateJob(jobID, func(j *JobStatus) {
			j.Status = "complete"
			j.FilesIndexed = index.Indexed
			j.FilesSkipped = index.Skipped
			j.FilesFailed = index.Failed
		})
	}()

	return jobID
}
