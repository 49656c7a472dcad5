package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"stockly/internal/middleware"
	"stockly/internal/model"
	"stockly/internal/service"
	"stockly/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BackupHandler struct {
	backupService service.BackupService
}

func NewBackupHandler(backupService service.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

func (h *BackupHandler) RegisterRoutes(router *gin.RouterGroup) {
	backups := router.Group("/api/backups")
	{
		backups.GET("", middleware.RequireAuth(), h.ListBackups)
		backups.POST("/export", middleware.RequireRole(model.RoleAdmin), h.Export)
		backups.POST("/import", middleware.RequireRole(model.RoleAdmin), h.Import)
		backups.POST("/:name/restore", middleware.RequireRole(model.RoleAdmin), h.Restore)
		backups.GET("/:name/download", middleware.RequireRole(model.RoleAdmin), h.Download)
		backups.DELETE("/:name", middleware.RequireRole(model.RoleAdmin), h.Delete)
	}
}

type exportRequest struct {
	Password string `json:"password"`
}

type restoreRequest struct {
	Password string `json:"password"`
	Policy   string `json:"policy" binding:"omitempty,oneof=replace merge"`
}

// ListBackups returns the backup files on disk, newest first
// @Summary      List backups
// @Tags         backups
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/backups [get]
func (h *BackupHandler) ListBackups(c *gin.Context) {
	backups, err := h.backupService.ListBackups()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, backups))
}

// Export writes a full backup of the store to disk, optionally encrypted
// @Summary      Export backup
// @Tags         backups
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  exportRequest  false  "Optional encryption password"
// @Success      201  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/backups/export [post]
func (h *BackupHandler) Export(c *gin.Context) {
	var req exportRequest
	_ = c.ShouldBindJSON(&req)

	path, err := h.backupService.ExportAllData(c.Request.Context(), c.GetString("userID"), req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{
		"name":      filepath.Base(path),
		"encrypted": req.Password != "",
	}))
}

// Import restores the store from an uploaded backup file
// @Summary      Import backup
// @Tags         backups
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file      formData  file    true   "Backup file"
// @Param        password  formData  string  false  "Decryption password"
// @Param        policy    formData  string  false  "Restore policy: replace (default) or merge"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/backups/import [post]
func (h *BackupHandler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Backup file is missing: "+err.Error()))
		return
	}

	tmp := filepath.Join(os.TempDir(), "stockly-import-"+uuid.NewString())
	if err := c.SaveUploadedFile(file, tmp); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to store upload: "+err.Error()))
		return
	}
	defer os.Remove(tmp)

	report, err := h.backupService.ImportAllData(
		c.Request.Context(),
		c.GetString("userID"),
		tmp,
		c.PostForm("password"),
		service.RestorePolicy(c.PostForm("policy")),
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Restore re-imports a backup already stored on the server
// @Summary      Restore stored backup
// @Tags         backups
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        name     path  string          true   "Backup file name"
// @Param        payload  body  restoreRequest  false  "Password and policy"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/backups/{name}/restore [post]
func (h *BackupHandler) Restore(c *gin.Context) {
	var req restoreRequest
	_ = c.ShouldBindJSON(&req)

	path, err := h.backupService.BackupPath(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	report, err := h.backupService.ImportAllData(
		c.Request.Context(),
		c.GetString("userID"),
		path,
		req.Password,
		service.RestorePolicy(req.Policy),
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Download streams a backup file to the caller
// @Summary      Download backup
// @Tags         backups
// @Security     BearerAuth
// @Produce      application/octet-stream
// @Param        name  path  string  true  "Backup file name"
// @Success      200
// @Failure      404  {object}  response.Response
// @Router       /api/backups/{name}/download [get]
func (h *BackupHandler) Download(c *gin.Context) {
	path, err := h.backupService.BackupPath(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// Delete removes a backup file from disk
// @Summary      Delete backup
// @Tags         backups
// @Security     BearerAuth
// @Produce      json
// @Param        name  path  string  true  "Backup file name"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/backups/{name} [delete]
func (h *BackupHandler) Delete(c *gin.Context) {
	if err := h.backupService.DeleteBackup(c.Request.Context(), c.GetString("userID"), c.Param("name")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Backup deleted successfully"}))
}
