package vcon

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	uuidRegex  = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	emailRegex = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
)

var validRoles = []string{"chair", "presenter", "participant", "speaker", "host", "attendee"}

var validDialogTypes = []string{"recording", "video", "audio", "text", "transfer"}

// Report is the outcome of validating one document: hard structural
// violations and soft convention warnings. A document with zero errors is
// valid regardless of warning count.
type Report struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Valid reports whether the document passed without errors.
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validator checks serialized vCon documents against the structural rules of
// the format and the conventions of IETF session records. It re-parses the
// raw document independently of the builder types, so hand-edited or
// foreign-produced documents are checked on equal footing.
type Validator struct {
	// Verbose enables informational warnings that are usually noise, such
	// as "no analysis in document".
	Verbose bool
}

// Validate checks one serialized document. Every rule is independent and all
// findings are accumulated; validation never stops at the first problem.
func (v *Validator) Validate(raw []byte) *Report {
	report := &Report{Errors: []string{}, Warnings: []string{}}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		report.errorf("invalid JSON: %v", err)
		return report
	}

	v.validateRoot(data, report)
	v.validateParties(listField(data, "parties"), report)
	v.validateDialogs(listField(data, "dialog"), report)
	v.validateAttachments(listField(data, "attachments"), report)
	v.validateAnalysis(listField(data, "analysis"), report)

	return report
}

func (v *Validator) validateRoot(data map[string]any, report *Report) {
	for _, field := range []string{"vcon", "uuid", "created_at"} {
		if _, ok := data[field]; !ok {
			report.errorf("missing required field: %s", field)
		}
	}

	if version, ok := data["vcon"]; ok && version != Version {
		report.warnf("unexpected vcon version: %v", version)
	}

	if id, ok := data["uuid"]; ok {
		if !uuidRegex.MatchString(fmt.Sprint(id)) {
			report.errorf("invalid UUID format: %v", id)
		}
	}

	if created, ok := data["created_at"]; ok {
		if _, err := parseDateTime(created); err != nil {
			report.errorf("invalid created_at format: %v", created)
		}
	}

	subject, _ := data["subject"].(string)
	if subject == "" {
		report.warnf("missing or empty subject")
	} else if !strings.Contains(subject, "IETF") {
		report.warnf("subject doesn't mention IETF: %s", subject)
	}
}

func (v *Validator) validateParties(parties []any, report *Report) {
	if len(parties) == 0 {
		report.warnf("no parties in vCon")
		return
	}

	for i, raw := range parties {
		party, ok := raw.(map[string]any)
		if !ok {
			report.errorf("party %d: not an object", i)
			continue
		}

		hasIdentity := false
		for _, field := range []string{"name", "tel", "mailto", "uri"} {
			if s, _ := party[field].(string); s != "" {
				hasIdentity = true
				break
			}
		}
		if !hasIdentity {
			report.warnf("party %d: no identifying information", i)
		}

		if email, _ := party["mailto"].(string); email != "" {
			if !emailRegex.MatchString(email) {
				report.errorf("party %d: invalid email format: %s", i, email)
			}
		}

		if role, ok := party["role"]; ok {
			if !containsString(validRoles, fmt.Sprint(role)) {
				report.warnf("party %d: unusual role: %v", i, role)
			}
		}
	}
}

func (v *Validator) validateDialogs(dialogs []any, report *Report) {
	if len(dialogs) == 0 {
		report.warnf("no dialogs in vCon")
		return
	}

	for i, raw := range dialogs {
		dialog, ok := raw.(map[string]any)
		if !ok {
			report.errorf("dialog %d: not an object", i)
			continue
		}

		if kind, ok := dialog["type"]; !ok {
			report.errorf("dialog %d: missing type", i)
		} else if !containsString(validDialogTypes, fmt.Sprint(kind)) {
			report.warnf("dialog %d: unusual type: %v", i, kind)
		}

		urlStr, _ := dialog["url"].(string)
		body, _ := dialog["body"].(string)
		if urlStr == "" && body == "" {
			report.errorf("dialog %d: missing both url and body", i)
		}

		if urlStr != "" {
			v.validateURL(urlStr, fmt.Sprintf("dialog %d", i), report)
		}

		if mimetype, _ := dialog["mimetype"].(string); mimetype != "" {
			if !strings.Contains(mimetype, "/") {
				report.errorf("dialog %d: invalid mimetype: %s", i, mimetype)
			}
		}

		if start, ok := dialog["start"]; ok {
			if _, err := parseDateTime(start); err != nil {
				report.errorf("dialog %d: invalid start time: %v", i, start)
			}
		}
	}
}

func (v *Validator) validateAttachments(attachments []any, report *Report) {
	if len(attachments) == 0 {
		report.warnf("no attachments in vCon")
		return
	}

	hasLawfulBasis := false
	hasIngressInfo := false

	for i, raw := range attachments {
		att, ok := raw.(map[string]any)
		if !ok {
			report.errorf("attachment %d: not an object", i)
			continue
		}

		if kind, ok := att["type"]; !ok {
			report.errorf("attachment %d: missing type", i)
		} else {
			switch fmt.Sprint(kind) {
			case AttachmentLawfulBasis:
				hasLawfulBasis = true
				v.validateLawfulBasis(att, i, report)
			case AttachmentIngressInfo:
				hasIngressInfo = true
			}
		}

		urlStr, _ := att["url"].(string)
		body, hasBody := att["body"]
		if urlStr == "" && (!hasBody || body == nil) {
			report.errorf("attachment %d: missing both url and body", i)
		}

		if urlStr != "" {
			v.validateURL(urlStr, fmt.Sprintf("attachment %d", i), report)
		}
	}

	if !hasLawfulBasis {
		report.warnf("no lawful_basis attachment (IETF Note Well)")
	}
	if !hasIngressInfo {
		report.warnf("no ingress_info attachment")
	}
}

func (v *Validator) validateLawfulBasis(att map[string]any, index int, report *Report) {
	rawBody, ok := att["body"]
	if !ok || rawBody == nil {
		report.errorf("attachment %d (lawful_basis): missing body", index)
		return
	}

	body, ok := rawBody.(map[string]any)
	if !ok {
		report.errorf("attachment %d (lawful_basis): body is not an object", index)
		return
	}

	if _, ok := body["lawful_basis"]; !ok {
		report.errorf("attachment %d (lawful_basis): missing lawful_basis field", index)
	}

	if name, ok := body["terms_of_service_name"]; ok {
		if !strings.Contains(fmt.Sprint(name), "Note Well") {
			report.warnf("attachment %d: terms_of_service_name doesn't mention Note Well", index)
		}
	}
}

func (v *Validator) validateAnalysis(analysis []any, report *Report) {
	if len(analysis) == 0 {
		if v.Verbose {
			report.warnf("no analysis (transcript) in vCon")
		}
		return
	}

	for i, raw := range analysis {
		item, ok := raw.(map[string]any)
		if !ok {
			report.errorf("analysis %d: not an object", i)
			continue
		}

		if kind, ok := item["type"]; !ok {
			report.errorf("analysis %d: missing type", i)
		} else if fmt.Sprint(kind) == AnalysisWTFTranscription {
			v.validateWTFTranscription(item, i, report)
		}

		if _, ok := item["body"]; !ok {
			report.errorf("analysis %d: missing body", i)
		}
	}
}

func (v *Validator) validateWTFTranscription(item map[string]any, index int, report *Report) {
	if spec, ok := item["spec"]; !ok {
		report.warnf("analysis %d (wtf): missing spec field", index)
	} else if !strings.Contains(fmt.Sprint(spec), "draft-howe-wtf") {
		report.warnf("analysis %d (wtf): unexpected spec: %v", index, spec)
	}

	rawBody, ok := item["body"]
	if !ok || rawBody == nil {
		return
	}
	body, ok := rawBody.(map[string]any)
	if !ok {
		report.errorf("analysis %d (wtf): body is not an object", index)
		return
	}

	if _, ok := body["segments"]; !ok {
		report.errorf("analysis %d (wtf): missing segments", index)
	}

	segments, _ := body["segments"].([]any)
	if len(segments) == 0 {
		if _, ok := body["segments"]; ok {
			report.warnf("analysis %d (wtf): no segments in transcript", index)
		}
	} else {
		// Sample validation of the first few segments only.
		sample := segments
		if len(sample) > 5 {
			sample = sample[:5]
		}
		for j, rawSeg := range sample {
			seg, ok := rawSeg.(map[string]any)
			if !ok {
				report.errorf("analysis %d (wtf): segment %d is not an object", index, j)
				continue
			}

			for _, field := range []string{"start", "end", "text"} {
				if _, ok := seg[field]; !ok {
					report.errorf("analysis %d (wtf): segment %d missing %s", index, j, field)
				}
			}

			start, hasStart := seg["start"].(float64)
			end, hasEnd := seg["end"].(float64)
			if hasStart && hasEnd && start > end {
				report.errorf("analysis %d (wtf): segment %d start > end", index, j)
			}
		}
	}

	if rawMeta, ok := body["metadata"]; ok {
		if _, isMap := rawMeta.(map[string]any); !isMap {
			report.warnf("analysis %d (wtf): metadata is not an object", index)
		}
	}
}

func (v *Validator) validateURL(raw, context string, report *Report) {
	parsed, err := url.Parse(raw)
	if err != nil {
		report.errorf("%s: invalid URL: %s (%v)", context, raw, err)
		return
	}
	if parsed.Scheme == "" {
		report.errorf("%s: URL missing scheme: %s", context, raw)
	} else if !containsString([]string{"http", "https", "mailto", "tel"}, parsed.Scheme) {
		report.warnf("%s: unusual URL scheme: %s", context, parsed.Scheme)
	}
	if parsed.Host == "" && (parsed.Scheme == "http" || parsed.Scheme == "https") {
		report.errorf("%s: URL missing host: %s", context, raw)
	}
}

func listField(data map[string]any, key string) []any {
	list, _ := data[key].([]any)
	return list
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// parseDateTime accepts RFC 3339 timestamps with or without fractional
// seconds, plus the zone-less ISO variant some producers emit.
func parseDateTime(value any) (time.Time, error) {
	s, ok := value.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("not a string: %v", value)
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp: %s", s)
}
