package utils

import (
	"fmt"
	"regexp"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

var jobPORegex = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)

// knownJobPrefixes are the division prefixes currently in use. A number
// outside the list is accepted with a warning, not rejected; dispatch
// occasionally hands out numbers for new divisions before this list is
// updated.
var knownJobPrefixes = map[string]bool{
	"23": true,
	"29": true,
	"42": true,
}

// ValidateJobPONumber checks the XX-XX-XXXX format of a job/PO number. Format
// violations are errors; an unrecognized division prefix only produces a
// warning string.
func ValidateJobPONumber(jobPO string) (warning string, err error) {
	m := jobPORegex.FindStringSubmatch(jobPO)
	if m == nil {
		return "", fmt.Errorf("job/PO number must match XX-XX-XXXX: %s", jobPO)
	}

	if !knownJobPrefixes[m[2]] {
		return fmt.Sprintf("job/PO number %s has unrecognized division prefix %s", jobPO, m[2]), nil
	}

	return "", nil
}
