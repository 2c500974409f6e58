// pkg/config/env_config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables read by ApplyEnvironmentOverrides
const (
	EnvTimeStep        = "ORRERY_TIMESTEP"
	EnvTrajectoryLimit = "ORRERY_TRAJECTORY_LIMIT"
	EnvMinSeparation   = "ORRERY_MIN_SEPARATION"
	EnvUpdateOrder     = "ORRERY_UPDATE_ORDER"
	EnvWidth           = "ORRERY_WIDTH"
	EnvHeight          = "ORRERY_HEIGHT"
	EnvFPS             = "ORRERY_FPS"
	EnvScale           = "ORRERY_SCALE"
	EnvShowDistances   = "ORRERY_SHOW_DISTANCES"
	EnvListenAddr      = "ORRERY_LISTEN_ADDR"
	EnvShutdownTimeout = "ORRERY_SHUTDOWN_TIMEOUT"
)

// ApplyEnvironmentOverrides applies environment variable overrides to a
// loaded configuration and validates the result. Unparseable values are
// ignored and the configured value is kept; values that parse but are out
// of range fail validation.
func ApplyEnvironmentOverrides(config *Config) error {
	if config == nil {
		return &ValidationError{Field: "config", Message: "config is nil"}
	}

	sim := &config.Simulation
	sim.TimeStep = getEnvAsFloatOrDefault(EnvTimeStep, sim.TimeStep)
	sim.TrajectoryLimit = getEnvAsIntOrDefault(EnvTrajectoryLimit, sim.TrajectoryLimit)
	sim.MinSeparation = getEnvAsFloatOrDefault(EnvMinSeparation, sim.MinSeparation)
	sim.Order = getEnvOrDefault(EnvUpdateOrder, sim.Order)

	pres := &config.Presentation
	pres.Width = getEnvAsIntOrDefault(EnvWidth, pres.Width)
	pres.Height = getEnvAsIntOrDefault(EnvHeight, pres.Height)
	pres.FPS = getEnvAsIntOrDefault(EnvFPS, pres.FPS)
	pres.Scale = getEnvAsFloatOrDefault(EnvScale, pres.Scale)
	pres.ShowDistances = getEnvAsBoolOrDefault(EnvShowDistances, pres.ShowDistances)

	obs := &config.Observability
	obs.ListenAddress = getEnvOrDefault(EnvListenAddr, obs.ListenAddress)
	obs.ShutdownTimeout = getEnvAsDurationOrDefault(EnvShutdownTimeout, obs.GracePeriod())

	return config.Validate()
}

// FrameInterval returns the wall-clock duration of one frame
func (p PresentationConfig) FrameInterval() time.Duration {
	if p.FPS <= 0 {
		return time.Second / DefaultFPS
	}
	return time.Second / time.Duration(p.FPS)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
