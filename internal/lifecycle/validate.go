package lifecycle

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/claimdesk/claim-service/internal/domain"
)

var policyNoRx = regexp.MustCompile(`^[0-9]{2}[A-Z0-9-]{2,30}$`)

const (
	maxShortField       = 256
	maxDescriptionField = 4000
	maxAttachmentRef    = 1024
	maxAttachments      = 50
)

// NormalizePolicyNo trims and upper-cases a policy number.
func NormalizePolicyNo(policyNo string) string {
	return strings.ToUpper(strings.TrimSpace(policyNo))
}

// ValidatePolicyNo checks the two-digit product code prefix and overall shape.
func ValidatePolicyNo(policyNo string) error {
	if !policyNoRx.MatchString(policyNo) {
		return payloadError("", "", "policyNo", "must start with a two-digit product code followed by 2-30 letters, digits or dashes")
	}
	return nil
}

type textField struct {
	name  string
	value *string
	dest  **string
	max   int
}

// mergePayload copies non-nil payload fields onto next and appends attachments.
// A provided field must not be blank; use nil to leave a field unchanged.
func mergePayload(next *domain.ClaimCase, p domain.ClaimPayload, action string) error {
	fields := []textField{
		{"insuredEntityName", p.InsuredEntityName, &next.InsuredEntityName, maxShortField},
		{"accidentType", p.AccidentType, &next.AccidentType, maxShortField},
		{"accidentLocation", p.AccidentLocation, &next.AccidentLocation, maxShortField},
		{"accidentDescription", p.AccidentDescription, &next.AccidentDescription, maxDescriptionField},
		{"reporterName", p.ReporterName, &next.ReporterName, maxShortField},
		{"reporterContact", p.ReporterContact, &next.ReporterContact, maxShortField},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if v == "" {
			return payloadError(next.State, action, f.name, "must not be blank")
		}
		if utf8.RuneCountInString(v) > f.max {
			return payloadError(next.State, action, f.name, fmt.Sprintf("must be at most %d characters", f.max))
		}
		*f.dest = &v
	}
	if p.AccidentDateTime != nil {
		if p.AccidentDateTime.IsZero() {
			return payloadError(next.State, action, "accidentDateTime", "must be a valid timestamp")
		}
		t := p.AccidentDateTime.UTC().Truncate(time.Microsecond)
		next.AccidentDateTime = &t
	}
	if p.Comment != nil && utf8.RuneCountInString(*p.Comment) > maxDescriptionField {
		return payloadError(next.State, action, "comment", fmt.Sprintf("must be at most %d characters", maxDescriptionField))
	}

	if len(p.Attachments) == 0 {
		return nil
	}
	if len(next.Attachments)+len(p.Attachments) > maxAttachments {
		return payloadError(next.State, action, "attachments", "too many attachments")
	}
	seen := make(map[string]struct{}, len(next.Attachments)+len(p.Attachments))
	for _, ref := range next.Attachments {
		seen[ref] = struct{}{}
	}
	for _, ref := range p.Attachments {
		ref = strings.TrimSpace(ref)
		if ref == "" || utf8.RuneCountInString(ref) > maxAttachmentRef {
			return payloadError(next.State, action, "attachments", fmt.Sprintf("attachment reference must be 1-%d characters", maxAttachmentRef))
		}
		if _, dup := seen[ref]; dup {
			return payloadError(next.State, action, "attachments", "duplicate attachment "+ref)
		}
		seen[ref] = struct{}{}
		next.Attachments = append(next.Attachments, ref)
	}
	return nil
}

// requireIntake checks the data every case needs before it can be submitted.
func requireIntake(c domain.ClaimCase, action string, now time.Time) error {
	required := []struct {
		name  string
		value *string
	}{
		{"accidentType", c.AccidentType},
		{"accidentLocation", c.AccidentLocation},
		{"accidentDescription", c.AccidentDescription},
		{"reporterName", c.ReporterName},
		{"reporterContact", c.ReporterContact},
	}
	if c.AccidentDateTime == nil {
		return payloadError(c.State, action, "accidentDateTime", "required")
	}
	for _, f := range required {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			return payloadError(c.State, action, f.name, "required")
		}
	}
	if c.AccidentDateTime.After(now) {
		return payloadError(c.State, action, "accidentDateTime", "must not be in the future")
	}
	if len(c.Attachments) == 0 {
		return payloadError(c.State, action, "attachments", "at least one attachment is required")
	}
	return nil
}

func payloadError(state domain.ClaimState, action, field, reason string) error {
	return &domain.TransitionError{
		Kind:   domain.ErrPayloadValidationFailed,
		State:  state,
		Action: action,
		Field:  field,
		Reason: reason,
	}
}
