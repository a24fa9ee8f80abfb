// Package serve provides the "gridlock serve" command: an HTTP server
// exposing a single shared Grid's diagnostics, mirroring the dKV
// serve command's flag/env wiring but fronting gridlock's spatial
// grid lock instead of a distributed store.
package serve

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ValentinKolb/gridlock/cmd/internal/config"
	"github.com/ValentinKolb/gridlock/internal/gridlog"
	"github.com/ValentinKolb/gridlock/lib/grid"
)

var (
	ServeCmd = &cobra.Command{
		Use:     "serve",
		Short:   "Start an HTTP server exposing a shared grid's metrics and diagnostics",
		Long:    `Start the gridlock diagnostics server. The configuration can be set via command line flags or environment variables. The format of the environment variables is GRIDLOCK_<flag> (e.g. GRIDLOCK_ENDPOINT=0.0.0.0:9090).`,
		PreRunE: processConfig,
		RunE:    run,
	}

	serveEndpoint string
)

func init() {
	key := "endpoint"
	ServeCmd.Flags().String(key, "0.0.0.0:8080", config.Wrap("the address on which the diagnostics server will listen"))
}

func processConfig(cmd *cobra.Command, _ []string) error {
	if err := config.BindFlags(cmd); err != nil {
		return err
	}
	serveEndpoint = viper.GetString("endpoint")
	return nil
}

func run(_ *cobra.Command, _ []string) error {
	logger, err := config.Logger("serve")
	if err != nil {
		return err
	}

	backendName := viper.GetString("backend")
	backend, err := grid.ParseBackend(backendName)
	if err != nil {
		return err
	}
	n := viper.GetInt("n")

	g, err := grid.NewGrid(grid.BBox{XMax: float64(n), YMax: float64(n), ZMax: float64(n)}, n, backend, "serve")
	if err != nil {
		return fmt.Errorf("failed to build grid: %w", err)
	}
	defer g.Close()
	g.SetLogger(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", metricsHandler(g, logger))
	mux.HandleFunc("/workers", workersHandler(g))

	logger.Infof("listening on %s (backend=%s, n=%d)", serveEndpoint, backend, n)
	if err := http.ListenAndServe(serveEndpoint, mux); err != nil {
		logger.Errorf("server stopped: %v", err)
		return err
	}
	return nil
}

// metricsHandler writes this grid's counters/gauges in Prometheus text
// exposition format. It also traces a debug-level snapshot via Stats,
// giving the same aggregate numbers a second, human-legible home
// alongside the Prometheus payload.
func metricsHandler(g *grid.Grid, logger *gridlog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		logger.Debugf("/metrics: %+v", g.Stats())
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Write(g.WritePrometheus(nil))
	}
}

// workersResponse is the /workers endpoint's JSON body: aggregate
// activity counters plus a per-worker breakdown of held-cell counts.
type workersResponse struct {
	Count   int               `json:"count"`
	Stats   grid.Stats        `json:"stats"`
	Workers []grid.WorkerInfo `json:"workers"`
}

// workersHandler reports worker count, per-worker held-cell count, and
// aggregate contention stats, for operator visibility into live
// contention. Advisory only: the worker registry and the counters are
// each read independently, not as one atomic snapshot.
func workersHandler(g *grid.Grid) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		workers := g.WorkerSnapshot()
		resp := workersResponse{
			Count:   len(workers),
			Stats:   g.Stats(),
			Workers: workers,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
