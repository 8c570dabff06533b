package config_test

import (
	"fmt"
	"os"

	"github.com/wonny/screener/backend/pkg/config"
)

// ExampleLoad shows the snapshot cache and scheduling settings a screener process runs with
func ExampleLoad() {
	os.Setenv("ENV", "development")
	os.Setenv("CACHE_DIR", "/var/cache/screener")
	os.Setenv("TIMEZONE", "America/New_York")
	os.Setenv("SNAPSHOT_RETENTION", "72h")
	defer func() {
		for _, key := range []string{"ENV", "CACHE_DIR", "TIMEZONE", "SNAPSHOT_RETENTION"} {
			os.Unsetenv(key)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Println("cache:", cfg.Cache.Dir)
	fmt.Println("retention:", cfg.Cache.Retention)
	fmt.Println("exchange tz:", cfg.Location())
	// Output:
	// cache: /var/cache/screener
	// retention: 72h0m0s
	// exchange tz: America/New_York
}
