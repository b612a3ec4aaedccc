package handlers

import (
	"net/http"
	"strconv"

	"taskmanager/internal/auth"
	dom "taskmanager/internal/domain"
	"taskmanager/internal/dto"
	"taskmanager/internal/repo"
	"taskmanager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type TaskHandler struct {
	tasks   *service.TaskService
	queries *service.TaskQueryEngine
	stats   *service.TaskStatsEngine
	log     logrus.FieldLogger
}

func NewTaskHandler(tasks *service.TaskService, queries *service.TaskQueryEngine, stats *service.TaskStatsEngine, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{tasks: tasks, queries: queries, stats: stats, log: log}
}

// List godoc
// @Summary      List tasks
// @Description  Filtered, sorted and paginated list of the caller's tasks.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Security     CookieAuth
// @Param        status    query     string  false  "Todo, In Progress or Completed"
// @Param        priority  query     string  false  "Low, Medium or High"
// @Param        search    query     string  false  "Substring of title or description"
// @Param        sortBy    query     string  false  "createdAt, dueDate, title, priority or status"
// @Param        order     query     string  false  "ASC or DESC"
// @Param        page      query     int     false  "Page number, from 1"
// @Param        limit     query     int     false  "Page size, at most 100"
// @Success      200  {object}  dto.Envelope{data=dto.ListTasksData}
// @Failure      400  {object}  dto.Envelope
// @Failure      401  {object}  dto.Envelope
// @Failure      500  {object}  dto.Envelope
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.Task.List")

	params, err := listParams(c)
	if err != nil {
		writeError(c, log, err, "Error fetching tasks")
		return
	}
	page, err := h.queries.List(c.Request.Context(), auth.UserIDFromContext(c), params)
	if err != nil {
		writeError(c, log, err, "Error fetching tasks")
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.NewListTasksData(page)))
}

// Stats godoc
// @Summary      Dashboard statistics
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Security     CookieAuth
// @Success      200  {object}  dto.Envelope{data=dto.StatsResponse}
// @Failure      401  {object}  dto.Envelope
// @Failure      500  {object}  dto.Envelope
// @Router       /tasks/stats [get]
func (h *TaskHandler) Stats(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.Task.Stats")

	st, err := h.stats.Snapshot(c.Request.Context(), auth.UserIDFromContext(c))
	if err != nil {
		writeError(c, log, err, "Error fetching statistics")
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.NewStatsResponse(st)))
}

// Get godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Security     CookieAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.Envelope{data=dto.TaskData}
// @Failure      404  {object}  dto.Envelope
// @Failure      500  {object}  dto.Envelope
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.Task.Get")

	t, err := h.tasks.Get(c.Request.Context(), auth.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, log, err, "Error fetching task")
		return
	}
	c.JSON(http.StatusOK, dto.OK(dto.TaskData{Task: dto.NewTaskResponse(t)}))
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     CookieAuth
// @Param        body  body      dto.CreateTaskRequest  true  "Task body"
// @Success      201   {object}  dto.Envelope{data=dto.TaskData}
// @Failure      400   {object}  dto.Envelope
// @Failure      500   {object}  dto.Envelope
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.Task.Create")

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, log, bindingErrors(err), "Error creating task")
		return
	}
	t, err := h.tasks.Create(c.Request.Context(), auth.UserIDFromContext(c), req.Input())
	if err != nil {
		writeError(c, log, err, "Error creating task")
		return
	}
	log.WithField("task_id", t.ID).Debug("task created")
	c.JSON(http.StatusCreated, dto.OKMessage("Task created successfully", dto.TaskData{Task: dto.NewTaskResponse(t)}))
}

// Update godoc
// @Summary      Update a task
// @Description  Partial update. Absent fields are left unchanged; "dueDate": null clears the due date.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     CookieAuth
// @Param        id    path      string                 true  "Task ID"
// @Param        body  body      dto.UpdateTaskRequest  true  "Partial update"
// @Success      200   {object}  dto.Envelope{data=dto.TaskData}
// @Failure      400   {object}  dto.Envelope
// @Failure      404   {object}  dto.Envelope
// @Failure      500   {object}  dto.Envelope
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.Task.Update")

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, log, bindingErrors(err), "Error updating task")
		return
	}
	t, err := h.tasks.Update(c.Request.Context(), auth.UserIDFromContext(c), c.Param("id"), req.Patch())
	if err != nil {
		writeError(c, log, err, "Error updating task")
		return
	}
	c.JSON(http.StatusOK, dto.OKMessage("Task updated successfully", dto.TaskData{Task: dto.NewTaskResponse(t)}))
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Security     CookieAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Failure      500  {object}  dto.Envelope
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.Task.Delete")

	if err := h.tasks.Delete(c.Request.Context(), auth.UserIDFromContext(c), c.Param("id")); err != nil {
		writeError(c, log, err, "Error deleting task")
		return
	}
	c.JSON(http.StatusOK, dto.OKMessage("Task deleted successfully", nil))
}

// listParams reads the list query string. Empty values count as absent;
// unparsable page and limit fall back to the defaults.
func listParams(c *gin.Context) (service.ListParams, error) {
	var p service.ListParams
	var ve dom.ValidationError

	if s := c.Query("status"); s != "" {
		st, err := dom.ParseStatus(s)
		if err != nil {
			ve.Add("status", err.Error())
		}
		p.Status = &st
	}
	if s := c.Query("priority"); s != "" {
		pr, err := dom.ParsePriority(s)
		if err != nil {
			ve.Add("priority", err.Error())
		}
		p.Priority = &pr
	}
	if s := c.Query("search"); s != "" {
		p.Search = &s
	}
	if s := c.Query("sortBy"); s != "" {
		f, ok := repo.ParseSortField(s)
		if !ok {
			ve.Add("sortBy", "sortBy must be createdAt, dueDate, title, priority, or status")
		}
		p.SortBy = f
	}
	if s := c.Query("order"); s != "" {
		o, ok := repo.ParseSortOrder(s)
		if !ok {
			ve.Add("order", "order must be ASC or DESC")
		}
		p.Order = o
	}
	p.Page, _ = strconv.Atoi(c.Query("page"))
	p.PageSize, _ = strconv.Atoi(c.Query("limit"))

	return p, ve.OrNil()
}
