package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/backend/internal/api"
	"github.com/wonny/screener/backend/internal/api/handlers"
	"github.com/wonny/screener/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                - Health check
  GET  /api/universe          - Universe 문서 (?date=YYYY-MM-DD)
  GET  /api/enriched          - Enriched 문서
  GET  /api/scored            - Scored 문서
  GET  /api/autowatchlist     - 워치리스트
  GET  /api/cache-timestamps  - 종류별 최신 스냅샷 파일/수정 시각
  POST /api/pipeline/run      - 파이프라인 실행 ({"strict": true})
  GET  /metrics               - Prometheus metrics

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Screener API Server ===")

	a, err := initApp(cmd)
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		a.config.Port = apiPort
	}

	// Response cache (disabled client = pass-through to disk)
	client, err := redis.New(a.config)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer client.Close()

	// Create handlers
	snapshotHandler := handlers.NewSnapshotHandler(a.store, redis.NewCache(client, "screener"), a.metrics, a.logger)
	pipelineHandler := handlers.NewPipelineHandler(a.orchestrator(), a.config.Pipeline.StrictValidation, a.logger)

	// Create router + server
	router := api.NewRouter(snapshotHandler, pipelineHandler, a.metrics, a.logger)
	server := api.New(a.config, a.logger, router)

	a.logger.WithFields(map[string]interface{}{
		"port":  a.config.Port,
		"redis": client.Addr(),
	}).Info("API server starting")

	if err := server.Run(cmd.Context(), 10*time.Second); err != nil {
		return err
	}

	fmt.Println("Server exited")
	return nil
}
