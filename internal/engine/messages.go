package engine

import (
	"errors"
	"fmt"

	"github.com/lmtray/lmtray/internal/controller"
	"github.com/lmtray/lmtray/internal/metrics"
	"github.com/lmtray/lmtray/internal/models"
	"github.com/lmtray/lmtray/internal/status"
)

// transitionMessage returns the notification for a status change, or "".
func transitionMessage(prev, next *Snapshot, model string) string {
	if prev.Level() == next.Level() {
		if next.Level() == status.Ready && prev.State.ActiveModelID != next.State.ActiveModelID {
			return fmt.Sprintf("Model changed to %s", next.State.ActiveModelID)
		}
		return ""
	}
	switch next.Level() {
	case status.Ready:
		active := next.State.ActiveModelID
		if model != "" && next.State.HasModel(model) {
			active = model
		}
		return fmt.Sprintf("Model %s is now active", active)
	case status.RunningNoModel:
		if model != "" {
			return fmt.Sprintf("No model loaded (expected: %s)", model)
		}
		return "No model loaded"
	case status.BothStopped:
		return "LM Studio has stopped"
	default:
		return "LM Studio is not installed"
	}
}

func successMessage(a models.Action, model string) string {
	switch a {
	case models.ActionStartDaemon:
		return "LM Studio daemon is running"
	case models.ActionStopDaemon:
		return "LM Studio daemon stopped"
	case models.ActionStartDesktop:
		return "LM Studio desktop app started"
	case models.ActionStopDesktop:
		return "LM Studio desktop app stopped"
	case models.ActionLoadModel:
		return fmt.Sprintf("Model %s is being loaded", model)
	}
	return ""
}

func failureMessage(a models.Action, err error) string {
	var conflict *controller.ConflictError
	switch {
	case errors.As(err, &conflict):
		return err.Error()
	case errors.Is(err, controller.ErrNotInstalled):
		return "LM Studio is not installed"
	case errors.Is(err, controller.ErrNoModel):
		return "No model specified for loading"
	}
	return fmt.Sprintf("%s failed: %v", a, err)
}

func recordMetrics(s *Snapshot) {
	metrics.StatusLevel.Set(float64(s.Level()))
	metrics.RuntimeUp.WithLabelValues("daemon").Set(metrics.BoolValue(s.State.DaemonRunning))
	metrics.RuntimeUp.WithLabelValues("desktop").Set(metrics.BoolValue(s.State.DesktopRunning))
	metrics.UpdateAvailable.Set(metrics.BoolValue(s.Update.Available))
}

func metricAction(a models.Action, result string) {
	metrics.ActionsTotal.WithLabelValues(string(a), result).Inc()
}
