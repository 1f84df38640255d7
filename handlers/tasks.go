package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"tasklist/models"
	"tasklist/store"
	"tasklist/utils"

	"github.com/gin-gonic/gin"
)

// bindOwner reads the owner id from the query string. It writes the 400
// response itself and reports whether the caller may continue.
func bindOwner(c *gin.Context) (int64, bool) {
	var q OwnerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid owner id: "+err.Error())
		return 0, false
	}
	if q.owner() == 0 {
		writeError(c, http.StatusBadRequest, "Query parameter ownerId is required.")
		return 0, false
	}
	return q.owner(), true
}

func (h *Handler) loadOwnerTasks(ownerID int64) func(context.Context) ([]models.Task, error) {
	return func(ctx context.Context) ([]models.Task, error) {
		var tasks []models.Task
		err := h.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			var err error
			tasks, err = tx.TasksByOwner(ctx, ownerID)
			return err
		})
		return tasks, err
	}
}

func (h *Handler) invalidate(c *gin.Context, ownerID int64) {
	if err := h.cache.Invalidate(c.Request.Context(), ownerID); err != nil {
		h.log(c).Warn("task cache invalidation failed", "owner_id", ownerID, "err", err)
	}
}

// TasksHandler godoc
// @Summary      List tasks
// @Description  Returns every task owned by the given user.
// @Tags         Task
// @Produce      json
// @Param        ownerId  query     int  true  "Owner user id"
// @Success      200      {object}  TaskListResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /tasks [get]
func (h *Handler) TasksHandler(c *gin.Context) {
	ownerID, ok := bindOwner(c)
	if !ok {
		return
	}

	tasks, err := h.cache.Tasks(c.Request.Context(), ownerID, h.loadOwnerTasks(ownerID))
	if err != nil {
		h.log(c).Error("error retrieving tasks", "owner_id", ownerID, "err", err)
		writeError(c, http.StatusInternalServerError, "Internal error processing the request.")
		return
	}

	h.log(c).Debug("tasks found", "owner_id", ownerID, "count", len(tasks))
	c.JSON(http.StatusOK, presentTasks(tasks))
}

// AddTaskHandler godoc
// @Summary      Add a task
// @Description  Creates a task owned by the user with the given email.
// @Tags         Task
// @Accept       json
// @Produce      json
// @Param        body  body      AddTaskRequest  true  "Task"
// @Success      200   {object}  TaskView
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /task [post]
func (h *Handler) AddTaskHandler(c *gin.Context) {
	var req AddTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid task: "+err.Error())
		return
	}
	if err := utils.ValidateTaskInput(req.Name, req.Description); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid task: "+err.Error())
		return
	}
	email := req.ownerEmail()
	if err := utils.ValidateEmail(email); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid owner email.")
		return
	}

	var created models.Task
	err := h.store.WithTx(c.Request.Context(), func(ctx context.Context, tx store.Tx) error {
		// Fast path only; the unique constraint decides races.
		if _, err := tx.TaskByName(ctx, req.Name); err == nil {
			return fmt.Errorf("task %q: %w", req.Name, store.ErrConflict)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		owner, err := tx.UserByEmail(ctx, email)
		if err != nil {
			return err
		}

		created, err = tx.CreateTask(ctx, models.Task{
			Name:        req.Name,
			Description: req.Description,
			Status:      req.Status,
			OwnerID:     owner.ID,
		})
		return err
	})

	switch {
	case errors.Is(err, store.ErrConflict):
		msg := fmt.Sprintf("Task with the name '%s' already exists.", req.Name)
		h.log(c).Warn(msg)
		writeError(c, http.StatusConflict, msg)
		return
	case errors.Is(err, store.ErrNotFound):
		h.log(c).Warn("task owner not found", "email", email)
		writeError(c, http.StatusNotFound, "User not found.")
		return
	case err != nil:
		h.log(c).Warn("error adding task", "name", req.Name, "err", err)
		writeError(c, http.StatusBadRequest, "Could not save the new task.")
		return
	}

	h.invalidate(c, created.OwnerID)
	h.log(c).Debug("task added", "id", created.ID, "name", created.Name)
	c.JSON(http.StatusOK, presentTask(created))
}

// DeleteTaskHandler godoc
// @Summary      Delete a task
// @Tags         Task
// @Produce      json
// @Param        id   query     int  true  "Task id"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /task [delete]
func (h *Handler) DeleteTaskHandler(c *gin.Context) {
	var q TaskIDQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid task id: "+err.Error())
		return
	}

	var deleted models.Task
	err := h.store.WithTx(c.Request.Context(), func(ctx context.Context, tx store.Tx) error {
		var err error
		deleted, err = tx.TaskByID(ctx, q.ID)
		if err != nil {
			return err
		}
		return tx.DeleteTask(ctx, q.ID)
	})

	switch {
	case errors.Is(err, store.ErrNotFound):
		h.log(c).Warn("error deleting task, not found", "id", q.ID)
		writeError(c, http.StatusNotFound, "Task not found.")
		return
	case err != nil:
		h.log(c).Error("error deleting task", "id", q.ID, "err", err)
		writeError(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	h.invalidate(c, deleted.OwnerID)
	h.log(c).Debug("task deleted", "id", q.ID)
	c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Task '%s' deleted successfully", deleted.Name)})
}

// MoveTaskHandler godoc
// @Summary      Update a task's status
// @Description  Any status may move to any other status.
// @Tags         Task
// @Accept       json
// @Produce      json
// @Param        body  body      UpdateTaskRequest  true  "Task id and new status"
// @Success      200   {object}  TaskView
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /task [put]
func (h *Handler) MoveTaskHandler(c *gin.Context) {
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid status update: "+err.Error())
		return
	}

	var updated models.Task
	err := h.store.WithTx(c.Request.Context(), func(ctx context.Context, tx store.Tx) error {
		var err error
		updated, err = tx.UpdateTaskStatus(ctx, req.ID, req.Status)
		return err
	})

	switch {
	case errors.Is(err, store.ErrNotFound):
		h.log(c).Warn("error updating task status, not found", "id", req.ID)
		writeError(c, http.StatusNotFound, "Task not found.")
		return
	case err != nil:
		h.log(c).Error("error updating task", "id", req.ID, "err", err)
		writeError(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	h.invalidate(c, updated.OwnerID)
	h.log(c).Debug("task status updated", "id", req.ID, "status", req.Status)
	c.JSON(http.StatusOK, presentTask(updated))
}

// TaskStatusHandler godoc
// @Summary      Count tasks by status
// @Description  Always returns all three statuses; unseen statuses count zero.
// @Tags         Task
// @Produce      json
// @Param        ownerId  query     int  true  "Owner user id"
// @Success      200      {object}  StatusCountsResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /tasks/status [get]
func (h *Handler) TaskStatusHandler(c *gin.Context) {
	ownerID, ok := bindOwner(c)
	if !ok {
		return
	}

	load := h.loadOwnerTasks(ownerID)
	counts, err := h.cache.StatusCounts(c.Request.Context(), ownerID, func(ctx context.Context) (models.StatusCounts, error) {
		tasks, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return models.CountByStatus(tasks), nil
	})
	if err != nil {
		h.log(c).Error("error fetching tasks by status", "owner_id", ownerID, "err", err)
		writeError(c, http.StatusInternalServerError, "Internal error processing the request.")
		return
	}

	h.log(c).Debug("task count by status", "owner_id", ownerID, "counts", counts)
	c.JSON(http.StatusOK, presentCounts(counts))
}
