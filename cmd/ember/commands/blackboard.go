package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/dyluth/ember/internal/config"
	"github.com/dyluth/ember/internal/printer"
	"github.com/dyluth/ember/pkg/blackboard"
)

// resolveTarget picks the blackboard URL and device name from the flags,
// falling back to the device config for whatever the flags leave out.
func resolveTarget() (redisURL, device string, err error) {
	redisURL, device = redisURLArg, deviceArg

	if redisURL == "" || device == "" {
		cfg, err := config.Load(configPath)
		switch {
		case err == nil:
			if redisURL == "" {
				redisURL = cfg.Blackboard.RedisURL
			}
			if device == "" {
				device = cfg.Device.Name
			}
		case errors.Is(err, fs.ErrNotExist):
			// Flags alone must then be enough.
		default:
			return "", "", printer.Error(
				"invalid device config",
				err.Error(),
				[]string{fmt.Sprintf("Fix %s, or pass --redis-url and --device", configPath)},
			)
		}
	}

	if device == "" {
		return "", "", printer.Error(
			"no device selected",
			fmt.Sprintf("No --device flag and no readable %s.", configPath),
			[]string{"Pass the device name:\n  ember events --device <name>", "Create a config:\n  ember init"},
		)
	}
	if redisURL == "" {
		return "", "", printer.Error(
			"blackboard not configured",
			fmt.Sprintf("Device '%s' has no blackboard.redis_url.", device),
			[]string{"Set blackboard.redis_url in spark.yml", "Or pass it directly:\n  ember events --redis-url redis://localhost:6379/0"},
		)
	}
	return redisURL, device, nil
}

// connectBlackboard opens and pings the selected device's blackboard.
func connectBlackboard(ctx context.Context) (*blackboard.Client, error) {
	redisURL, device, err := resolveTarget()
	if err != nil {
		return nil, err
	}

	client, err := blackboard.NewClientFromURL(redisURL, device)
	if err != nil {
		return nil, fmt.Errorf("failed to create blackboard client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", redisURL),
			map[string]string{"device": device},
			[]string{"Check that Redis is running and reachable", "Check blackboard.redis_url in spark.yml"},
		)
	}
	return client, nil
}
