package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type CheckResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency_ms"`
	Error   string        `json:"error,omitempty"`
}

type Status struct {
	OK        bool          `json:"ok"`
	Checks    []CheckResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

// CheckAll runs all dependency checks and returns the combined status.
func CheckAll(ctx context.Context, client *redis.Client) Status {
	checks := []CheckResult{
		checkRedis(ctx, client),
	}

	allOK := true
	for _, c := range checks {
		if !c.OK {
			allOK = false
		}
	}

	return Status{
		OK:        allOK,
		Checks:    checks,
		CheckedAt: time.Now().UTC(),
	}
}

func checkRedis(ctx context.Context, client *redis.Client) CheckResult {
	start := time.Now()
	result := CheckResult{Name: "redis"}

	if client == nil {
		result.Error = "redis not configured"
		result.Latency = time.Since(start)
		return result
	}
	if err := client.Ping(ctx).Err(); err != nil {
		result.Error = err.Error()
		result.Latency = time.Since(start)
		return result
	}
	result.OK = true
	result.Latency = time.Since(start)
	return result
}
