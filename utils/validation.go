package utils

import (
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength        = 140
	maxDescriptionLength = 140
	// bcrypt ignores input past 72 bytes and x/crypto rejects it.
	maxPasswordBytes = 72
)

func ValidateEmail(email string) error {
	addr, err := netmail.ParseAddress(email)
	if err != nil {
		return err
	}
	if addr.Address != email {
		return errors.New("email must be a bare address")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) == 0 {
		return errors.New("password is required")
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes long", maxPasswordBytes)
	}
	return nil
}

func ValidateUserName(name string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(name)); n == 0 || n > maxNameLength {
		return fmt.Errorf("name must be between 1 and %d characters", maxNameLength)
	}
	return nil
}

// ValidateTaskInput checks a task's name and description.
func ValidateTaskInput(name, description string) error {
	if n := utf8.RuneCountInString(name); n == 0 || n > maxNameLength {
		return fmt.Errorf("name must be between 1 and %d characters", maxNameLength)
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", maxDescriptionLength)
	}
	return nil
}
