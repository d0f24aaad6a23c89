package models

import (
	"fmt"
	"regexp"
	"strings"
)

var accountIDPattern = regexp.MustCompile(`^[A-Za-z]{3}[0-9]{3}$`)

// Account identifies a customer. Its ID is three letters and three digits.
type Account struct {
	Meta
}

// NormalizeAccountID validates id and returns its uppercase form.
func NormalizeAccountID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if !accountIDPattern.MatchString(id) {
		return "", fmt.Errorf("account id %q must be 3 letters followed by 3 digits", id)
	}
	return strings.ToUpper(id), nil
}
