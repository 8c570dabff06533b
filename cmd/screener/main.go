package main

import (
	"os"

	// 거래소 시간대 DB 내장 (컨테이너에 zoneinfo 없을 수 있음)
	_ "time/tzdata"

	"github.com/wonny/screener/backend/cmd/screener/commands"
)

// main is the entry point for the screener CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/screener [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
