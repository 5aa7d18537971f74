package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/vk/gridci/internal/coordinator"
	"gopkg.in/yaml.v3"
)

// startStatusServer exposes the live per-job states of an in-progress
// run over HTTP, plus a plain health endpoint.
func (a *App) startStatusServer(port int, coord *coordinator.Coordinator) {
	a.logger.Debug("Configuring run status server.")
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(coord.Snapshot()); err != nil {
			a.logger.Error("Failed to encode status snapshot.", "error", err)
		}
	})

	addr := fmt.Sprintf(":%d", port)
	go func() {
		a.logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://localhost%s/status", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			a.logger.Error("Status server failed", "error", err)
		}
	}()
}

// writeReport marshals the aggregate run report to YAML at the
// configured path.
func (a *App) writeReport(report *coordinator.Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := os.WriteFile(a.config.ReportPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	a.logger.Info("📄 Run report written.", "path", a.config.ReportPath)
	return nil
}
