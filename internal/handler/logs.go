package handler

import (
	"net/http"

	"github.com/Astemirdum/fabtrack/internal/auditlog"
	"github.com/Astemirdum/fabtrack/internal/events"
	"github.com/labstack/echo/v4"
)

const logsPath = "/logs"

type logsView struct {
	Logs  auditlog.Rendered
	Error string
	// CanExport is false when there is nothing to download.
	CanExport bool
}

func (h *Handler) Logs(c echo.Context) error {
	h.enter(c, pageLogs)
	var view logsView
	raw, err := h.borrowSvc.Logs(c.Request().Context())
	if view.Error, err = loadErr(err, "Failed to load logs."); err != nil {
		return err
	}
	if view.Error == "" {
		rendered, err := auditlog.Render(raw)
		if err != nil {
			view.Error = "The log payload could not be displayed."
		} else {
			view.Logs = rendered
			view.CanExport = rendered.Kind != auditlog.KindEmpty
		}
	}
	return h.render(c, http.StatusOK, pageLogs, "System logs", view)
}

func (h *Handler) DownloadLogs(c echo.Context) error {
	raw, err := h.borrowSvc.Logs(c.Request().Context())
	if err != nil {
		return h.fail(c, err, "Failed to load logs.", logsPath)
	}
	body, err := auditlog.Export(raw)
	if err != nil {
		return h.fail(c, err, "There are no logs to export.", logsPath)
	}
	h.publish(c, events.ActionLogsExported, "")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+auditlog.FileName(h.now())+`"`)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
}
