package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/dittodav/internal/telemetry"
	"github.com/marmos91/dittodav/pkg/mount"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag()+paramSuffix(fe), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if err := validateMounts(cfg.Mounts); err != nil {
		return err
	}

	if cfg.Telemetry.Profiling.Enabled {
		for _, pt := range cfg.Telemetry.Profiling.ProfileTypes {
			if !telemetry.ValidProfileType(pt) {
				return fmt.Errorf("telemetry.profiling.profile_types: unknown profile type %q", pt)
			}
		}
	}

	if cfg.Identity.RetryWaitMax < cfg.Identity.RetryWaitMin {
		return fmt.Errorf("identity.retry_wait_max (%s) is below retry_wait_min (%s)",
			cfg.Identity.RetryWaitMax, cfg.Identity.RetryWaitMin)
	}

	if cfg.Metrics.Enabled && cfg.Admin.IsEnabled() && cfg.Metrics.Port == cfg.Admin.Port {
		return fmt.Errorf("metrics.port and admin.port are both %d", cfg.Admin.Port)
	}
	if cfg.Admin.IsEnabled() && cfg.Admin.Port == cfg.Server.Port {
		return fmt.Errorf("admin.port and server.port are both %d", cfg.Server.Port)
	}

	return nil
}

func paramSuffix(fe validator.FieldError) string {
	if fe.Param() == "" {
		return ""
	}
	return "=" + fe.Param()
}

func validateMounts(mounts []MountConfig) error {
	seen := make(map[string]bool, len(mounts))
	for _, m := range mounts {
		if seen[m.Name] {
			return fmt.Errorf("mounts: %q is declared twice", m.Name)
		}
		seen[m.Name] = true

		if (m.Type == mount.KindLocal || m.Type == mount.KindReadOnly) && m.Path == "" {
			return fmt.Errorf("mounts: %q of type %s needs a path", m.Name, m.Type)
		}
	}
	return nil
}
