// internal/validator/validator.go
package validator

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	businessTypePattern = regexp.MustCompile(`^[a-zA-Z\s\-&]+$`)
	emailPattern        = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

const maxEmailLength = 254

// BusinessType checks a business category such as "dentist" or "hair & beauty".
func BusinessType(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("business type cannot be empty")
	}
	if len(s) > 50 {
		return errors.New("business type too long (max 50 characters)")
	}
	if !businessTypePattern.MatchString(s) {
		return errors.New("business type can only contain letters, spaces, hyphens, and ampersands")
	}
	return nil
}

func Email(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("email cannot be empty")
	}
	if len(s) > maxEmailLength {
		return errors.New("email too long")
	}
	if !emailPattern.MatchString(s) {
		return errors.New("invalid email format")
	}
	return nil
}

// EmailSyntaxOK is the bare pattern check used by the verifier.
func EmailSyntaxOK(s string) bool {
	return len(s) <= maxEmailLength && emailPattern.MatchString(s)
}

// Integer parses s and checks it against the optional bounds.
func Integer(s string, min, max *int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.New("please enter a valid number")
	}
	if min != nil && n < *min {
		return 0, fmt.Errorf("value must be at least %d", *min)
	}
	if max != nil && n > *max {
		return 0, fmt.Errorf("value must be at most %d", *max)
	}
	return n, nil
}

// IntRange is a shorthand for Integer with both bounds.
func IntRange(s string, min, max int) (int, error) {
	return Integer(s, &min, &max)
}

func Choice(s string, valid []string) error {
	s = strings.TrimSpace(s)
	for _, v := range valid {
		if s == v {
			return nil
		}
	}
	return fmt.Errorf("invalid choice, please select from: %s", strings.Join(valid, ", "))
}

// FilePath checks a path; with mustExist the path has to be an existing regular file.
func FilePath(path string, mustExist bool) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("file path cannot be empty")
	}
	if !mustExist {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("path is not a file: %s", path)
	}
	return nil
}

func Location(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("location cannot be empty")
	}
	if len(s) < 2 {
		return errors.New("location too short")
	}
	if len(s) > 100 {
		return errors.New("location too long (max 100 characters)")
	}
	return nil
}
