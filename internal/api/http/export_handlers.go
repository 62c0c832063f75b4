package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameShelf/internal/providers/filesystem"
)

var exportTypes = map[filesystem.Kind]string{
	filesystem.KindZip:     "application/zip",
	filesystem.KindTar:     "application/x-tar",
	filesystem.KindTarGzip: "application/gzip",
	filesystem.KindTarZstd: "application/zstd",
}

// ExportPackage streams an installed package as an archive. The format query
// parameter selects zip (default), tar, tgz or tzst.
func (h *Handlers) ExportPackage(c *gin.Context) {
	format := c.DefaultQuery("format", "zip")
	kind, ok := filesystem.ParseKind(format)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid format. Must be zip, tar, tgz or tzst",
		})
		return
	}

	view, ok := h.lookup(c)
	if !ok {
		return
	}
	if view.Downloading {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   "package is downloading",
		})
		return
	}

	filename := fmt.Sprintf("%s.%s", view.Name, kind)
	c.Header("Content-Type", exportTypes[kind])
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	// Headers are already sent; a failure can only be logged.
	if err := filesystem.Pack(c.Request.Context(), view.Dir, c.Writer, kind); err != nil {
		h.log.Error("Failed to export package", zap.String("id", view.ID), zap.Error(err))
	}
}
