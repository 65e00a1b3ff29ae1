// conf/validate.go

package conf

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marrs-acoustics/reefscape/internal/logger"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// ValidClipModes lists the supported clip selection modes
var ValidClipModes = []string{"random", "ordered"}

// ValidateSettings validates the entire Settings struct and reports every problem at once
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateBaseDir(settings.BaseDir); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateCountries(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateThresholds(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateOverlapSettings(&settings.Overlap); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateKernelSettings(&settings.Kernel); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateClipSettings(&settings.Clips); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateBaseDir(baseDir string) error {
	if baseDir == "" {
		return fmt.Errorf("%s environment variable is not set", BaseDirEnv)
	}
	info, err := os.Stat(baseDir)
	if err != nil {
		return fmt.Errorf("base directory %s is not accessible: %w", baseDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("base directory %s is not a directory", baseDir)
	}
	return nil
}

func validateCountries(settings *Settings) error {
	var errs []string

	if len(settings.Countries) == 0 {
		errs = append(errs, "at least one country must be configured")
	}

	for _, name := range settings.Countries {
		cc, ok := settings.Country[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("country %q has no configuration block", name))
			continue
		}
		if err := structValidator.Struct(cc); err != nil {
			errs = append(errs, fmt.Sprintf("country %q: %v", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("country settings errors: %v", strings.Join(errs, "; "))
	}
	return nil
}

func validateThresholds(settings *Settings) error {
	var errs []string

	if settings.Coverage.Daily < 0 || settings.Coverage.Daily > 1 {
		errs = append(errs, fmt.Sprintf("daily coverage must be between 0 and 1, got %g", settings.Coverage.Daily))
	}
	if settings.Coverage.Kernel < 0 || settings.Coverage.Kernel > 1 {
		errs = append(errs, fmt.Sprintf("kernel coverage must be between 0 and 1, got %g", settings.Coverage.Kernel))
	}
	if settings.Cuescape.WindowsPerFile <= 0 {
		errs = append(errs, "cuescape windows per file must be positive")
	}
	if settings.Cuescape.NightPadding < 0 {
		errs = append(errs, "cuescape night padding must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("threshold settings errors: %v", strings.Join(errs, "; "))
	}
	return nil
}

func validateOverlapSettings(settings *OverlapSettings) error {
	var errs []string

	if settings.Reps < 0 {
		errs = append(errs, fmt.Sprintf("bootstrap reps must be non-negative, got %d", settings.Reps))
	}
	if settings.Confidence <= 0 || settings.Confidence >= 1 {
		errs = append(errs, fmt.Sprintf("confidence must be between 0 and 1 exclusive, got %g", settings.Confidence))
	}
	if settings.KMax <= 0 {
		errs = append(errs, "kmax must be positive")
	}
	if settings.GridPoints < 16 {
		errs = append(errs, fmt.Sprintf("overlap grid needs at least 16 points, got %d", settings.GridPoints))
	}
	if settings.Adjust.Dhat1 <= 0 || settings.Adjust.Dhat4 <= 0 || settings.Adjust.Dhat5 <= 0 {
		errs = append(errs, "bandwidth adjust factors must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("overlap settings errors: %v", strings.Join(errs, "; "))
	}
	return nil
}

func validateKernelSettings(settings *KernelSettings) error {
	var errs []string

	if settings.Bandwidth <= 0 {
		errs = append(errs, "kernel bandwidth must be positive")
	}
	if settings.GridPoints < 2 {
		errs = append(errs, "kernel grid needs at least 2 points")
	}
	for i, group := range settings.Groups {
		if len(group) == 0 {
			errs = append(errs, fmt.Sprintf("treatment group %d is empty", i+1))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("kernel settings errors: %v", strings.Join(errs, "; "))
	}
	return nil
}

func validateClipSettings(settings *ClipSettings) error {
	var errs []string

	// an unknown mode falls back to random at run time, so it only warns
	if !slices.Contains(ValidClipModes, settings.Mode) {
		GetLogger().Warn("Unknown clip selection mode, random will be used",
			logger.String("mode", settings.Mode))
	}
	if settings.Count < 0 {
		errs = append(errs, "clip count must be non-negative")
	}
	if settings.Duration <= 0 {
		errs = append(errs, "clip duration must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("clip settings errors: %v", strings.Join(errs, "; "))
	}
	return nil
}
